package httpx

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oldgoods/thriftstore/internal/users"
)

type UserStore interface {
	Register(ctx context.Context, username, email, password string) (*users.User, error)
	Authenticate(ctx context.Context, username, password string) (*users.User, error)
	ResetPassword(ctx context.Context, username, email, newPassword string) error
	GetByID(ctx context.Context, id string) (*users.User, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id string, upd users.ProfileUpdate) (*users.User, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, u *users.User) (*users.Session, error)
	Revoke(ctx context.Context, token string) error
}

type UsersHandler struct {
	Users    UserStore
	Sessions SessionIssuer
}

// RegisterPublic mounts the unauthenticated auth routes.
func (h *UsersHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/forgot-password", h.forgotPassword)
	r.Get("/auth/check-email", h.checkEmail)
	r.Get("/auth/check-username", h.checkUsername)
}

// RegisterPrivate mounts the session-holding routes.
func (h *UsersHandler) RegisterPrivate(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/users/profile", h.getProfile)
	r.Put("/users/profile", h.updateProfile)
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeErr(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	sess, err := h.Sessions.Issue(ctx, u)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"user": u, "token": sess.Token})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	sess, err := h.Sessions.Issue(ctx, u)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": u, "token": sess.Token, "is_admin": u.IsAdmin})
}

func (h *UsersHandler) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, tokenFrom(r)); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "logged out"})
}

type forgotPasswordReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// forgotPassword resets the password when username and email match the same
// account. No mail delivery is involved.
func (h *UsersHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Email == "" || len(req.NewPassword) < 8 {
		writeErr(w, http.StatusBadRequest, "username, email and a new password of at least 8 characters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Users.ResetPassword(ctx, strings.TrimSpace(req.Username), strings.TrimSpace(strings.ToLower(req.Email)), req.NewPassword)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "password reset"})
}

func (h *UsersHandler) checkEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	if email == "" {
		writeErr(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	available, err := h.Users.EmailAvailable(ctx, email)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"available": available})
}

func (h *UsersHandler) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeErr(w, http.StatusBadRequest, "username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	available, err := h.Users.UsernameAvailable(ctx, username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"available": available})
}

func (h *UsersHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": u})
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var upd users.ProfileUpdate
	if err := decode(r, &upd); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, sess.UserID, upd)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": u})
}
