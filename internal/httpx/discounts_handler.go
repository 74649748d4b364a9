package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oldgoods/thriftstore/internal/discounts"
)

type DiscountStore interface {
	List(ctx context.Context) ([]discounts.Discount, error)
	GetByCode(ctx context.Context, code string) (*discounts.Discount, error)
	Create(ctx context.Context, d discounts.Discount) (*discounts.Discount, error)
	Update(ctx context.Context, id string, d discounts.Discount) (*discounts.Discount, error)
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, code string, subtotalCents int) (int, error)
}

type DiscountsHandler struct {
	Discounts DiscountStore
}

// RegisterPrivate mounts the customer-facing preview route.
func (h *DiscountsHandler) RegisterPrivate(r chi.Router) {
	r.Post("/discounts/apply", h.apply)
}

// RegisterAdmin mounts discount management.
func (h *DiscountsHandler) RegisterAdmin(r chi.Router) {
	r.Get("/discounts", h.list)
	r.Post("/discounts", h.create)
	r.Put("/discounts/{id}", h.update)
	r.Delete("/discounts/{id}", h.delete)
}

type applyDiscountReq struct {
	Code          string `json:"code"`
	SubtotalCents int    `json:"subtotal_cents"`
}

// apply previews the discount amount for a subtotal; nothing is consumed
// until order creation redeems the code.
func (h *DiscountsHandler) apply(w http.ResponseWriter, r *http.Request) {
	var req applyDiscountReq
	if err := decode(r, &req); err != nil || req.Code == "" {
		writeErr(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	amount, err := h.Discounts.Preview(ctx, req.Code, req.SubtotalCents)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"code":           req.Code,
		"discount_cents": amount,
	})
}

func (h *DiscountsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Discounts.List(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if list == nil {
		list = []discounts.Discount{}
	}
	writeOK(w, http.StatusOK, map[string]any{"discounts": list, "count": len(list)})
}

func (h *DiscountsHandler) create(w http.ResponseWriter, r *http.Request) {
	var d discounts.Discount
	if err := decode(r, &d); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Discounts.Create(ctx, d)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"discount": out})
}

func (h *DiscountsHandler) update(w http.ResponseWriter, r *http.Request) {
	var d discounts.Discount
	if err := decode(r, &d); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Discounts.Update(ctx, chi.URLParam(r, "id"), d)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"discount": out})
}

func (h *DiscountsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Discounts.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "discount deleted"})
}
