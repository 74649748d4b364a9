package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oldgoods/thriftstore/internal/catalog"
)

type CatalogStore interface {
	List(ctx context.Context, includeInactive bool) ([]catalog.Product, error)
	Search(ctx context.Context, query string) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	Update(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	Delete(ctx context.Context, id string) error
	CheckStock(ctx context.Context, id string, qty int) (bool, int, error)
	SetStock(ctx context.Context, id string, stock int) error
}

type CatalogHandler struct {
	Products CatalogStore
}

// RegisterPublic mounts the read-only storefront routes.
func (h *CatalogHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/search", h.search)
	r.Get("/products/{id}", h.get)
	r.Get("/products/{id}/check-stock", h.checkStock)
}

// RegisterAdmin mounts the catalog management routes.
func (h *CatalogHandler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/products", h.adminList)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
	r.Put("/products/{id}/stock", h.setStock)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, false)
}

func (h *CatalogHandler) adminList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, true)
}

func (h *CatalogHandler) writeList(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Products.List(ctx, includeInactive)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	writeOK(w, http.StatusOK, map[string]any{"products": list, "count": len(list)})
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeErr(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Products.Search(ctx, q)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	writeOK(w, http.StatusOK, map[string]any{"products": list, "count": len(list)})
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"product": p})
}

func (h *CatalogHandler) checkStock(w http.ResponseWriter, r *http.Request) {
	qty, err := strconv.Atoi(r.URL.Query().Get("qty"))
	if err != nil || qty < 1 {
		qty = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, available, err := h.Products.CheckStock(ctx, chi.URLParam(r, "id"), qty)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"in_stock": ok, "available": available})
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"product": p})
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "product deactivated"})
}

type setStockReq struct {
	Stock int `json:"stock"`
}

func (h *CatalogHandler) setStock(w http.ResponseWriter, r *http.Request) {
	var req setStockReq
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.SetStock(ctx, chi.URLParam(r, "id"), req.Stock); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "stock updated", "stock": req.Stock})
}
