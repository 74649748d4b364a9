package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oldgoods/thriftstore/internal/cart"
	"github.com/oldgoods/thriftstore/internal/catalog"
	"github.com/oldgoods/thriftstore/internal/discounts"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/users"
)

// Every response carries the {"success": bool, ...} envelope the storefront
// expects.

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, code int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, code, body)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

// writeDomainErr maps domain sentinels onto HTTP codes in one place.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotInCart),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, discounts.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrForbidden):
		writeErr(w, http.StatusForbidden, err.Error())
	case errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, orders.ErrNotEligible),
		errors.Is(err, orders.ErrUnknownStatus):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrProductUnavailable),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, cart.ErrInvalidQty),
		errors.Is(err, discounts.ErrInactive),
		errors.Is(err, discounts.ErrExpired),
		errors.Is(err, discounts.ErrUsedUp),
		errors.Is(err, discounts.ErrMinOrder),
		errors.Is(err, discounts.ErrInvalidInput),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrUsernameTaken),
		errors.Is(err, users.ErrHasOrders),
		errors.Is(err, users.ErrIsAdmin):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrBadCredential),
		errors.Is(err, users.ErrInactive),
		errors.Is(err, users.ErrNoSession):
		writeErr(w, http.StatusUnauthorized, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
