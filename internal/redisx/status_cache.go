package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OrderStatusCache keeps hot single-order status reads off Postgres.
type OrderStatusCache struct{ R *redis.Client }

func (c *OrderStatusCache) Get(ctx context.Context, orderID string) (string, bool) {
	s, err := c.R.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if errors.Is(err, redis.Nil) || err != nil || s == "" {
		return "", false
	}
	return s, true
}

func (c *OrderStatusCache) Set(ctx context.Context, orderID, status string) {
	_ = c.R.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), status, TTLStatusCache).Err()
}

func (c *OrderStatusCache) Del(ctx context.Context, orderID string) {
	_ = c.R.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}
