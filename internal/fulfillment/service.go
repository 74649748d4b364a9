// Package fulfillment runs the post-payment saga step: once a payment proof
// is accepted, the customer's cart is reconciled against the ordered lines.
// The old storefront did this client-side as a best-effort loop; here a
// failed reconciliation leaves the offset uncommitted and is retried on
// redelivery.
package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/oldgoods/thriftstore/internal/metrics"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/redisx"
)

type CartReconciler interface {
	Reconcile(ctx context.Context, userID string, ordered []orders.ItemQty) error
}

type Service struct {
	Carts       CartReconciler
	Redis       *redis.Client
	ServiceName string
}

// HandlePaymentAccepted is the consumer handler for order.payment.accepted.
func (s *Service) HandlePaymentAccepted(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// Unparseable message: log and commit, redelivery cannot fix it.
		log.WithError(err).Error("dropping unparseable event")
		return nil
	}
	if env.EventType != orders.EventPaymentProofAccepted {
		return nil
	}

	// Dedup by event id so a redelivered-but-processed event does not
	// shrink the cart twice.
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	var p orders.PaymentProofAcceptedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.WithField("event_id", env.EventID).WithError(err).Error("dropping event with bad payload")
		return nil
	}

	if err := s.Carts.Reconcile(ctx, p.UserID, p.Items); err != nil {
		metrics.CartReconciliations.WithLabelValues("error").Inc()
		log.WithFields(log.Fields{"order_id": p.OrderID, "user_id": p.UserID}).
			WithError(err).Warn("cart reconciliation failed, will retry")
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	metrics.CartReconciliations.WithLabelValues("ok").Inc()
	log.WithFields(log.Fields{"order_id": p.OrderID, "user_id": p.UserID, "lines": len(p.Items)}).
		Info("cart reconciled after payment")
	return nil
}
