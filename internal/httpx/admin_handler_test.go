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

	"github.com/oldgoods/thriftstore/internal/dashboard"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/users"
)

type fakeAdminOrderStore struct {
	setTo   orders.Status
	setFrom orders.Status
	setErr  error
}

func (f *fakeAdminOrderStore) ListAll(context.Context) ([]orders.AdminSummary, error) {
	return []orders.AdminSummary{{ID: "o-1", OrderNumber: "ORD-20260601-ABC123", Status: orders.StatusConfirmed}}, nil
}

func (f *fakeAdminOrderStore) GetByID(context.Context, string) (*orders.Order, error) {
	return sampleOrder(), nil
}

func (f *fakeAdminOrderStore) SetStatus(_ context.Context, _ string, to orders.Status) (orders.Status, error) {
	f.setTo = to
	return f.setFrom, f.setErr
}

type fakeAdminUserStore struct{}

func (fakeAdminUserStore) Lookup(context.Context, string) (*users.User, error) {
	return &users.User{ID: "u-1", UserID: "USR-000001", Username: "thriftfan", Email: "ana@example.com"}, nil
}
func (fakeAdminUserStore) ListAll(context.Context) ([]users.User, error) { return nil, nil }
func (fakeAdminUserStore) SetActive(context.Context, string, bool) error { return nil }
func (fakeAdminUserStore) Delete(context.Context, string) error          { return nil }

type fakeDashboard struct{}

func (fakeDashboard) Stats(context.Context) (*dashboard.Stats, error) {
	return &dashboard.Stats{ProductCount: 3, OrderCount: 2, CustomerCount: 1, RevenueCents: 57000}, nil
}
func (fakeDashboard) Revenue(context.Context) (*dashboard.Revenue, error) {
	return &dashboard.Revenue{TotalCents: 57000}, nil
}
func (fakeDashboard) Overview(context.Context) (*dashboard.Overview, error) {
	return &dashboard.Overview{}, nil
}

func adminSession() *users.Session {
	return &users.Session{Token: "tok", UserID: "a-1", Username: "admin", IsAdmin: true}
}

func newAdminRouter(h *AdminHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(testSession(adminSession()))
	h.Register(r)
	return r
}

func TestSetStatus(t *testing.T) {
	store := &fakeAdminOrderStore{setFrom: orders.StatusConfirmed}
	pub := &fakePublisher{}
	h := &AdminHandler{Orders: store, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, StatusEvents: pub, Service: "test"}
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o-1",
		jsonBody(t, map[string]any{"status": "processing"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orders.StatusProcessing, store.setTo)
	require.Len(t, pub.values, 1)

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.values[0], &env))
	assert.Equal(t, orders.EventOrderStatusChanged, env.EventType)

	var p orders.OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, orders.StatusConfirmed, p.From)
	assert.Equal(t, orders.StatusProcessing, p.To)
}

func TestSetStatusLegacyPendingAlias(t *testing.T) {
	store := &fakeAdminOrderStore{setFrom: orders.StatusPendingPayment}
	h := &AdminHandler{Orders: store, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, Service: "test"}
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o-1",
		jsonBody(t, map[string]any{"status": "pending"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusPendingPayment, store.setTo)
}

func TestSetStatusNoOpDoesNotPublish(t *testing.T) {
	store := &fakeAdminOrderStore{setFrom: orders.StatusProcessing}
	pub := &fakePublisher{}
	h := &AdminHandler{Orders: store, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, StatusEvents: pub, Service: "test"}
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o-1",
		jsonBody(t, map[string]any{"status": "processing"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.values, "same-status update is a no-op")
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	h := &AdminHandler{Orders: &fakeAdminOrderStore{}, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, Service: "test"}
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o-1",
		jsonBody(t, map[string]any{"status": "delivered"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatusIllegalTransition(t *testing.T) {
	store := &fakeAdminOrderStore{setErr: orders.ErrIllegalTransition}
	h := &AdminHandler{Orders: store, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, Service: "test"}
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o-1",
		jsonBody(t, map[string]any{"status": "cancelled"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminGetOrderIncludesCustomer(t *testing.T) {
	h := &AdminHandler{Orders: &fakeAdminOrderStore{}, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, Service: "test"}
	router := newAdminRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders/o-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	cust, ok := resp["customer"].(map[string]any)
	require.True(t, ok, "customer block missing: %s", rec.Body.String())
	assert.Equal(t, "thriftfan", cust["username"])
}

func TestAdminStats(t *testing.T) {
	h := &AdminHandler{Orders: &fakeAdminOrderStore{}, Users: fakeAdminUserStore{}, Dashboard: fakeDashboard{}, Service: "test"}
	router := newAdminRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Stats dashboard.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 57000, resp.Stats.RevenueCents)
}

func TestRequireAdmin(t *testing.T) {
	r := chi.NewRouter()
	r.Use(testSession(customerSession()))
	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/admin/stats", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
