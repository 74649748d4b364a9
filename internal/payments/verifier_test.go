package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateway(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := New(srv.URL)
	require.NotNil(t, v)
	return v
}

func TestVerifyVerified(t *testing.T) {
	v := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ord-1", req["order_id"])
		assert.Equal(t, "gcash", req["method"])
		assert.EqualValues(t, 15000, req["amount_cents"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"verified": true})
	})

	got := v.Verify(context.Background(), "ord-1", "gcash", "/static/uploads/p.png", 15000)
	assert.Equal(t, OutcomeVerified, got)
}

func TestVerifyRejected(t *testing.T) {
	v := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"verified": false, "reason": "amount mismatch"})
	})

	got := v.Verify(context.Background(), "ord-2", "paymaya", "/p.png", 9999)
	assert.Equal(t, OutcomeRejected, got)
}

func TestVerifyGatewayErrorFallsBackToManualReview(t *testing.T) {
	v := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	got := v.Verify(context.Background(), "ord-3", "gcash", "/p.png", 100)
	assert.Equal(t, OutcomeManualReview, got)
}

func TestVerifyNilVerifier(t *testing.T) {
	var v *Verifier
	assert.Equal(t, OutcomeManualReview, v.Verify(context.Background(), "ord-4", "gcash", "/p.png", 100))
}

func TestNewEmptyURLDisables(t *testing.T) {
	assert.Nil(t, New(""))
}
