// Package payments talks to the optional external proof verification service.
// The storefront never blocks on it: when the gateway is unconfigured, down or
// the breaker is open, the proof falls back to manual admin review.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type Outcome string

const (
	OutcomeVerified     Outcome = "verified"
	OutcomeRejected     Outcome = "rejected"
	OutcomeManualReview Outcome = "manual_review"
)

type Verifier struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker
}

type verifyRequest struct {
	OrderID     string `json:"order_id"`
	Method      string `json:"method"`
	ProofPath   string `json:"proof_path"`
	AmountCents int    `json:"amount_cents"`
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

// New returns a Verifier, or nil when baseURL is empty (verification
// disabled). Callers must treat a nil Verifier as manual review.
func New(baseURL string) *Verifier {
	if baseURL == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "payment-gateway",
		Interval: 15 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{"circuit": name, "from": from.String(), "to": to.String()}).
				Info("circuit breaker state changed")
		},
	})
	return &Verifier{client: client, cb: cb}
}

// Verify asks the gateway about a proof. Gateway trouble of any kind yields
// OutcomeManualReview with a nil error: availability of the verifier must
// never decide an order's fate.
func (v *Verifier) Verify(ctx context.Context, orderID, method, proofPath string, amountCents int) Outcome {
	if v == nil {
		return OutcomeManualReview
	}

	res, err := v.cb.Execute(func() (interface{}, error) {
		var out verifyResponse
		resp, err := v.client.R().
			SetContext(ctx).
			SetBody(verifyRequest{OrderID: orderID, Method: method, ProofPath: proofPath, AmountCents: amountCents}).
			SetResult(&out).
			Post("/verify")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("gateway returned %s", resp.Status())
		}
		return &out, nil
	})
	if err != nil {
		log.WithFields(log.Fields{"order_id": orderID}).WithError(err).
			Warn("payment verification unavailable, deferring to manual review")
		return OutcomeManualReview
	}

	if res.(*verifyResponse).Verified {
		return OutcomeVerified
	}
	return OutcomeRejected
}
