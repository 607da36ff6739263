package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessWithRetry(t *testing.T) {
	c := &Consumer{cfg: &Config{MaxRetries: 2, RetryBackoff: time.Millisecond}}
	msg := &Message{Topic: "t"}

	attempts := 0
	err := c.processWithRetry(context.Background(), func(ctx context.Context, m *Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, msg)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = c.processWithRetry(context.Background(), func(ctx context.Context, m *Message) error {
		attempts++
		return errors.New("permanent")
	}, msg)
	assert.ErrorContains(t, err, "max retries exceeded: permanent")
	assert.Equal(t, 3, attempts)
}

func TestProcessWithRetryStopsOnCancel(t *testing.T) {
	c := &Consumer{cfg: &Config{MaxRetries: 5, RetryBackoff: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())

	err := c.processWithRetry(ctx, func(ctx context.Context, m *Message) error {
		cancel()
		return errors.New("boom")
	}, &Message{})
	assert.ErrorIs(t, err, context.Canceled)
}

func newTestConsumer(onFailure FailureHandler) *Consumer {
	log := zerolog.Nop()
	return &Consumer{
		cfg:       &Config{MaxRetries: 1, RetryBackoff: time.Millisecond},
		logger:    &log,
		onFailure: onFailure,
	}
}

func failing(ctx context.Context, msg *Message) error {
	return errors.New("handler failed")
}

func TestSettleParksExhaustedMessage(t *testing.T) {
	var parked []int64
	c := newTestConsumer(func(ctx context.Context, msg *Message, err error) error {
		parked = append(parked, msg.Offset)
		assert.ErrorContains(t, err, "handler failed")
		return nil
	})

	require.NoError(t, c.settle(context.Background(), failing, &Message{Topic: "t", Offset: 7}))
	assert.Equal(t, []int64{7}, parked)
}

func TestSettleFailsWhenParkingFails(t *testing.T) {
	dlqErr := errors.New("dlq unwritable")
	c := newTestConsumer(func(ctx context.Context, msg *Message, err error) error {
		return dlqErr
	})

	err := c.settle(context.Background(), failing, &Message{Topic: "t", Partition: 2, Offset: 7})
	assert.ErrorIs(t, err, dlqErr)
	assert.ErrorContains(t, err, "parking offset 7 of t/2")
}

func TestSettleDoesNotParkOnCancel(t *testing.T) {
	called := false
	c := newTestConsumer(func(ctx context.Context, msg *Message, err error) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.settle(ctx, failing, &Message{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
