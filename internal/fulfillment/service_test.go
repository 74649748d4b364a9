package fulfillment

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/oldgoods/thriftstore/internal/orders"
)

type fakeReconciler struct{ calls int }

func (f *fakeReconciler) Reconcile(context.Context, string, []orders.ItemQty) error {
	f.calls++
	return nil
}

func TestHandlePaymentAcceptedSkipsGarbage(t *testing.T) {
	rec := &fakeReconciler{}
	s := &Service{Carts: rec, ServiceName: "test"}

	// Unparseable messages commit: redelivery cannot fix them.
	err := s.HandlePaymentAccepted(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.NoError(t, err)
	assert.Zero(t, rec.calls)
}

func TestHandlePaymentAcceptedIgnoresOtherEventTypes(t *testing.T) {
	rec := &fakeReconciler{}
	s := &Service{Carts: rec, ServiceName: "test"}

	msg := kafkago.Message{Value: []byte(`{"event_id":"e-1","event_type":"OrderCreated","payload":{}}`)}
	err := s.HandlePaymentAccepted(context.Background(), msg)
	assert.NoError(t, err)
	assert.Zero(t, rec.calls, "only PaymentProofAccepted reconciles carts")
}
