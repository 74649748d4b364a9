package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oldgoods/thriftstore/internal/cart"
	"github.com/oldgoods/thriftstore/internal/orders"
)

type CartStore interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Add(ctx context.Context, userID, productID string, qty int) error
	Update(ctx context.Context, userID, productID string, qty *int, selected *bool) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	Replace(ctx context.Context, userID string, items []orders.ItemQty) error
}

type CartHandler struct {
	Carts CartStore
}

// Register mounts the cart routes. The path shapes match what the storefront
// already calls: the product id rides in the body, not the path.
func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart/{userId}", h.get)
	r.Post("/cart/{userId}/add", h.add)
	r.Put("/cart/{userId}/update", h.update)
	r.Delete("/cart/{userId}/remove", h.remove)
	r.Delete("/cart/{userId}/clear", h.clear)
	r.Post("/cart/{userId}/sync", h.sync)
}

// resolveUser enforces that the path userId belongs to the session.
func (h *CartHandler) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := sessionFrom(r.Context())
	if !canActFor(sess, chi.URLParam(r, "userId")) {
		writeErr(w, http.StatusForbidden, "cannot access another user's cart")
		return "", false
	}
	return sess.UserID, true
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Carts.Get(ctx, userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	writeOK(w, http.StatusOK, map[string]any{"cart": lines, "count": len(lines)})
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	var req addToCartReq
	if err := decode(r, &req); err != nil || req.ProductID == "" {
		writeErr(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Add(ctx, userID, req.ProductID, req.Qty); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "item added to cart"})
}

type updateCartReq struct {
	ProductID string `json:"product_id"`
	Qty       *int   `json:"qty,omitempty"`
	Selected  *bool  `json:"selected,omitempty"`
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	var req updateCartReq
	if err := decode(r, &req); err != nil || req.ProductID == "" {
		writeErr(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Qty == nil && req.Selected == nil {
		writeErr(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Update(ctx, userID, req.ProductID, req.Qty, req.Selected); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "cart item updated"})
}

type removeCartReq struct {
	ProductID string `json:"product_id"`
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	// legacy clients send the product id either as a query param or a body
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		var req removeCartReq
		if err := decode(r, &req); err == nil {
			productID = req.ProductID
		}
	}
	if productID == "" {
		writeErr(w, http.StatusBadRequest, "product_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Remove(ctx, userID, productID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "item removed from cart"})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, userID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "cart cleared"})
}

type syncCartReq struct {
	Items []orders.ItemQty `json:"items"`
}

// sync replaces the stored cart with the checkout selection. Legacy clients
// that kept the cart locally call this before creating an order.
func (h *CartHandler) sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	var req syncCartReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Replace(ctx, userID, req.Items); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "cart synced", "count": len(req.Items)})
}
