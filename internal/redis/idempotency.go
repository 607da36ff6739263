package redis

import (
	"context"
	"errors"
	"time"
)

var ErrKeyExists = errors.New("idempotency key already exists")

const pendingMarker = "pending"

// SetIdempotencyKey claims key for ttl. Returns ErrKeyExists if it is
// already claimed.
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error {
	set, err := c.rdb.SetNX(ctx, c.prefixKey("idempotency:"+key), pendingMarker, ttl).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrKeyExists
	}
	return nil
}

// MarkIdempotencyComplete stores the response replayed to later duplicates.
func (c *Client) MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefixKey("idempotency:"+key), response, ttl).Err()
}

// MarkIdempotencyFailed releases key so the client can retry.
func (c *Client) MarkIdempotencyFailed(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefixKey("idempotency:"+key)).Err()
}

// CheckAndSetIdempotency claims key, or returns the cached response of the
// request that claimed it first. ErrKeyExists means that request is still
// in flight.
func (c *Client) CheckAndSetIdempotency(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	prefixedKey := c.prefixKey("idempotency:" + key)

	set, err := c.rdb.SetNX(ctx, prefixedKey, pendingMarker, ttl).Result()
	if err != nil {
		return nil, err
	}
	if set {
		return nil, nil
	}

	val, err := c.rdb.Get(ctx, prefixedKey).Result()
	if err != nil {
		return nil, err
	}
	if val == pendingMarker {
		return nil, ErrKeyExists
	}
	return []byte(val), nil
}
