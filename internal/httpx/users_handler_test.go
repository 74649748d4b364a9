package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldgoods/thriftstore/internal/users"
)

type fakeUserStore struct {
	registered *users.User
	regErr     error

	authUser *users.User
	authErr  error

	emailFree    bool
	usernameFree bool
}

func (f *fakeUserStore) Register(context.Context, string, string, string) (*users.User, error) {
	return f.registered, f.regErr
}
func (f *fakeUserStore) Authenticate(context.Context, string, string) (*users.User, error) {
	return f.authUser, f.authErr
}
func (f *fakeUserStore) ResetPassword(context.Context, string, string, string) error { return nil }
func (f *fakeUserStore) GetByID(context.Context, string) (*users.User, error) {
	return f.authUser, nil
}
func (f *fakeUserStore) EmailAvailable(context.Context, string) (bool, error) {
	return f.emailFree, nil
}
func (f *fakeUserStore) UsernameAvailable(context.Context, string) (bool, error) {
	return f.usernameFree, nil
}
func (f *fakeUserStore) UpdateProfile(context.Context, string, users.ProfileUpdate) (*users.User, error) {
	return f.authUser, nil
}

type fakeIssuer struct{ revoked string }

func (f *fakeIssuer) Issue(_ context.Context, u *users.User) (*users.Session, error) {
	return &users.Session{Token: "issued-token", UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, nil
}
func (f *fakeIssuer) Revoke(_ context.Context, token string) error {
	f.revoked = token
	return nil
}

func newAuthRouter(store UserStore, issuer SessionIssuer) *chi.Mux {
	r := chi.NewRouter()
	h := &UsersHandler{Users: store, Sessions: issuer}
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(testSession(customerSession()))
		h.RegisterPrivate(r)
	})
	return r
}

func TestRegister(t *testing.T) {
	u := &users.User{ID: "u-1", UserID: "USR-000001", Username: "thriftfan", Email: "ana@example.com"}
	router := newAuthRouter(&fakeUserStore{registered: u}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		jsonBody(t, map[string]any{"username": "thriftfan", "email": "ana@example.com", "password": "hunter2hunter2"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "issued-token", resp["token"], "register logs the user in")
}

func TestRegisterValidation(t *testing.T) {
	router := newAuthRouter(&fakeUserStore{}, &fakeIssuer{})

	cases := []map[string]any{
		{"email": "a@b.c", "password": "hunter2hunter2"},                         // no username
		{"username": "x", "password": "hunter2hunter2"},                          // no email
		{"username": "x", "email": "not-an-email", "password": "hunter2hunter2"}, // bad email
		{"username": "x", "email": "a@b.c", "password": "short"},                 // weak password
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	router := newAuthRouter(&fakeUserStore{regErr: users.ErrEmailTaken}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		jsonBody(t, map[string]any{"username": "x", "email": "a@b.c", "password": "hunter2hunter2"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	u := &users.User{ID: "u-1", Username: "thriftfan", IsAdmin: false}
	router := newAuthRouter(&fakeUserStore{authUser: u}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		jsonBody(t, map[string]any{"username": "thriftfan", "password": "hunter2hunter2"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "issued-token", resp["token"])
	assert.Equal(t, false, resp["is_admin"])
}

func TestLoginBadCredential(t *testing.T) {
	router := newAuthRouter(&fakeUserStore{authErr: users.ErrBadCredential}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		jsonBody(t, map[string]any{"username": "thriftfan", "password": "wrong"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	router := newAuthRouter(&fakeUserStore{authErr: users.ErrInactive}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		jsonBody(t, map[string]any{"username": "thriftfan", "password": "hunter2hunter2"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	issuer := &fakeIssuer{}
	router := newAuthRouter(&fakeUserStore{}, issuer)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-to-kill")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-to-kill", issuer.revoked)
}

func TestCheckAvailability(t *testing.T) {
	router := newAuthRouter(&fakeUserStore{emailFree: true, usernameFree: false}, &fakeIssuer{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/check-email?email=a@b.c", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/check-username?username=thriftfan", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
}
