package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/oldgoods/thriftstore/internal/dashboard"
	"github.com/oldgoods/thriftstore/internal/metrics"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/redisx"
	"github.com/oldgoods/thriftstore/internal/users"
)

type AdminOrderStore interface {
	ListAll(ctx context.Context) ([]orders.AdminSummary, error)
	GetByID(ctx context.Context, orderID string) (*orders.Order, error)
	SetStatus(ctx context.Context, orderID string, to orders.Status) (orders.Status, error)
}

type AdminUserStore interface {
	Lookup(ctx context.Context, ident string) (*users.User, error)
	ListAll(ctx context.Context) ([]users.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type DashboardService interface {
	Stats(ctx context.Context) (*dashboard.Stats, error)
	Revenue(ctx context.Context) (*dashboard.Revenue, error)
	Overview(ctx context.Context) (*dashboard.Overview, error)
}

type AdminHandler struct {
	Orders    AdminOrderStore
	Users     AdminUserStore
	Dashboard DashboardService

	StatusEvents EventPublisher
	Redis        *redis.Client
	Service      string
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin/stats", h.stats)
	r.Get("/admin/revenue", h.revenue)
	r.Get("/admin/dashboard", h.overview)

	r.Get("/admin/orders", h.listOrders)
	r.Get("/admin/orders/{id}", h.getOrder)
	r.Put("/admin/orders/{id}", h.setStatus)

	r.Get("/admin/users", h.listUsers)
	r.Put("/admin/users/{id}", h.updateUser)
	r.Delete("/admin/users/{id}", h.deleteUser)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Dashboard.Stats(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"stats": st})
}

func (h *AdminHandler) revenue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Dashboard.Revenue(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"revenue": rev})
}

func (h *AdminHandler) overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ov, err := h.Dashboard.Overview(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"dashboard": ov})
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.Orders.ListAll(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if list == nil {
		list = []orders.AdminSummary{}
	}
	writeOK(w, http.StatusOK, map[string]any{"orders": list, "count": len(list)})
}

// getOrder returns the full order plus the customer profile for the admin
// detail view.
func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	body := map[string]any{"order": o}
	if u, err := h.Users.Lookup(ctx, o.UserID); err == nil {
		body["customer"] = map[string]any{
			"id":       u.ID,
			"user_id":  u.UserID,
			"username": u.Username,
			"email":    u.Email,
			"name":     u.DisplayName(),
			"phone":    u.Phone,
		}
	}
	writeOK(w, http.StatusOK, body)
}

type setStatusReq struct {
	Status string `json:"status"`
}

// setStatus applies an admin transition. The target status is parsed and
// validated against the transition table before anything is written.
func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req setStatusReq
	if err := decode(r, &req); err != nil || req.Status == "" {
		writeErr(w, http.StatusBadRequest, "status is required")
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	from, err := h.Orders.SetStatus(ctx, orderID, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	if from != to {
		metrics.OrderStatusChanges.WithLabelValues(string(to)).Inc()
		if h.Redis != nil {
			(&redisx.OrderStatusCache{R: h.Redis}).Del(ctx, orderID)
		}
		h.publishStatusChanged(r, orderID, from, to)
	}

	writeOK(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"from":     from,
		"status":   to,
	})
}

func (h *AdminHandler) publishStatusChanged(r *http.Request, orderID string, from, to orders.Status) {
	if h.StatusEvents == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
	}
	ev.Payload = mustMarshal(orders.OrderStatusChangedPayload{OrderID: orderID, From: from, To: to})
	h.StatusEvents.Publish(orders.PartitionKey(orderID), mustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Users.ListAll(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if list == nil {
		list = []users.User{}
	}
	writeOK(w, http.StatusOK, map[string]any{"users": list, "count": len(list)})
}

type updateUserReq struct {
	IsActive *bool `json:"is_active"`
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserReq
	if err := decode(r, &req); err != nil || req.IsActive == nil {
		writeErr(w, http.StatusBadRequest, "is_active is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, chi.URLParam(r, "id"), *req.IsActive); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "user updated", "is_active": *req.IsActive})
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "user deleted"})
}
