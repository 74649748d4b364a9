package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/oldgoods/thriftstore/internal/metrics"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/payments"
	"github.com/oldgoods/thriftstore/internal/redisx"
	"github.com/oldgoods/thriftstore/internal/shipping"
)

type OrderStore interface {
	Create(ctx context.Context, externalID, userID string, in orders.CreateInput) (*orders.Order, bool, error)
	GetForUser(ctx context.Context, orderID, userID string) (*orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	AttachPaymentProof(ctx context.Context, orderID, userID, proofPath string, method orders.PaymentMethod) (*orders.Order, bool, error)
	ConfirmReceipt(ctx context.Context, orderID, userID, proofPath string) error
}

type ProofSaver interface {
	SavePaymentProof(orderID, filename string, r io.Reader) (string, error)
	SaveReceiptProof(orderID, filename string, r io.Reader) (string, error)
	Discard(publicPath string)
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Orders OrderStore
	Proofs ProofSaver

	CreatedEvents  EventPublisher
	AcceptedEvents EventPublisher

	Verifier *payments.Verifier // nil = manual review
	Redis    *redis.Client      // optional: idempotency shortcut + status cache
	Service  string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Post("/orders/calculate-shipping", h.calculateShipping)
	r.Get("/orders/user/{userId}", h.listForUser)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders/upload-payment-proof", h.uploadPaymentProof)
	r.Put("/orders/{id}/confirm-receipt", h.confirmReceipt)
}

type createOrderReq struct {
	ExternalID    string                 `json:"external_id"`
	Items         []orders.ItemQty       `json:"items"`
	PaymentMethod orders.PaymentMethod   `json:"payment_method"`
	Address       orders.ShippingAddress `json:"shipping_address"`
	DiscountCode  string                 `json:"discount_code,omitempty"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req createOrderReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeErr(w, http.StatusBadRequest, "items are required")
		return
	}
	if req.Address.Province == "" {
		writeErr(w, http.StatusBadRequest, "shipping address with province is required")
		return
	}
	if req.ExternalID == "" {
		// clients that don't send one lose create-idempotency, not the order
		req.ExternalID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// The code rides into the create transaction: redemption happens there,
	// after the external_id check, so replays never consume a use.
	in := orders.CreateInput{
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,
		ShippingCents: shipping.FeeCents(req.Address.Province),
		DiscountCode:  req.DiscountCode,
	}

	o, existed, err := h.Orders.Create(ctx, req.ExternalID, sess.UserID, in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	if h.Redis != nil {
		_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalID), o.ID, redisx.TTLIdempotency).Err()
		(&redisx.OrderStatusCache{R: h.Redis}).Set(ctx, o.ID, string(o.Status))
	}

	if !existed {
		metrics.OrdersCreated.Inc()
		h.publish(h.CreatedEvents, r, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Items:       itemQtys(o.Items),
			TotalCents:  o.TotalCents,
		})
	}

	writeOK(w, http.StatusCreated, map[string]any{
		"order":        o,
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"shipping_fee": o.ShippingCents,
		"idempotent":   existed,
	})
}

type calcShippingReq struct {
	Province string `json:"province"`
}

func (h *OrdersHandler) calculateShipping(w http.ResponseWriter, r *http.Request) {
	var req calcShippingReq
	if err := decode(r, &req); err != nil || req.Province == "" {
		writeErr(w, http.StatusBadRequest, "province is required")
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"province":     req.Province,
		"region":       shipping.RegionName(req.Province),
		"shipping_fee": shipping.FeeCents(req.Province),
	})
}

func (h *OrdersHandler) listForUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	userID := chi.URLParam(r, "userId")
	if !canActFor(sess, userID) {
		writeErr(w, http.StatusForbidden, "cannot access another user's orders")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.ListByUser(ctx, sess.UserID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"orders": list, "count": len(list)})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetForUser(ctx, orderID, sess.UserID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if h.Redis != nil {
		(&redisx.OrderStatusCache{R: h.Redis}).Set(ctx, o.ID, string(o.Status))
	}
	writeOK(w, http.StatusOK, map[string]any{"order": o})
}

// uploadPaymentProof is the multipart endpoint gating stock deduction.
func (h *OrdersHandler) uploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	orderID := r.FormValue("orderId")
	userID := r.FormValue("userId")
	method := orders.PaymentMethod(r.FormValue("paymentMethod"))
	if orderID == "" || userID == "" {
		writeErr(w, http.StatusBadRequest, "missing required fields: orderId or userId")
		return
	}
	if !canActFor(sess, userID) {
		writeErr(w, http.StatusForbidden, "cannot upload proof for another user's order")
		return
	}
	if !orders.ValidPaymentMethod(method) {
		writeErr(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	file, header, err := r.FormFile("paymentProof")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "missing required field: paymentProof")
		return
	}
	defer file.Close()

	proofPath, err := h.Proofs.SavePaymentProof(orderID, header.Filename, file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, deducted, err := h.Orders.AttachPaymentProof(ctx, orderID, sess.UserID, proofPath, method)
	if err != nil {
		h.Proofs.Discard(proofPath)
		metrics.PaymentProofUploads.WithLabelValues("rejected").Inc()
		writeDomainErr(w, err)
		return
	}
	metrics.PaymentProofUploads.WithLabelValues("accepted").Inc()

	outcome := payments.OutcomeManualReview
	if h.Verifier != nil {
		outcome = h.Verifier.Verify(ctx, o.ID, string(method), proofPath, o.TotalCents)
	}

	// The cart reconciliation saga keys off this event; publish only on the
	// call that actually moved stock so duplicates cannot shrink the cart.
	if deducted {
		h.publish(h.AcceptedEvents, r, orders.EventPaymentProofAccepted, o.ID, orders.PaymentProofAcceptedPayload{
			OrderID: o.ID,
			UserID:  o.UserID,
			Items:   itemQtys(o.Items),
		})
	}

	writeOK(w, http.StatusOK, map[string]any{
		"message":      "payment proof uploaded, order awaits admin confirmation",
		"proof_path":   proofPath,
		"status":       o.Status,
		"verification": outcome,
	})
}

type confirmReceiptReq struct {
	UserID     string `json:"userId"`
	ProofImage string `json:"proofImage"` // base64 data URL
}

func (h *OrdersHandler) confirmReceipt(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	var req confirmReceiptReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProofImage == "" {
		writeErr(w, http.StatusBadRequest, "proof image is required")
		return
	}
	if req.UserID != "" && !canActFor(sess, req.UserID) {
		writeErr(w, http.StatusForbidden, "cannot confirm another user's order")
		return
	}

	proofPath, err := saveDataURL(h.Proofs, orderID, req.ProofImage)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.ConfirmReceipt(ctx, orderID, sess.UserID, proofPath); err != nil {
		h.Proofs.Discard(proofPath)
		writeDomainErr(w, err)
		return
	}
	metrics.OrderStatusChanges.WithLabelValues(string(orders.StatusCompleted)).Inc()
	if h.Redis != nil {
		(&redisx.OrderStatusCache{R: h.Redis}).Del(ctx, orderID)
	}

	writeOK(w, http.StatusOK, map[string]any{
		"message": "order receipt confirmed",
		"status":  orders.StatusCompleted,
	})
}

func (h *OrdersHandler) publish(p EventPublisher, r *http.Request, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
	}
	ev.Payload = mustMarshal(payload)
	p.Publish(orders.PartitionKey(orderID), mustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func itemQtys(items []orders.Item) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}
