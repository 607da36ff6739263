package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/kafka"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/pkg/constants"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type ledgerStore interface {
	Advance(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (*ledger.Snapshot, error)
	Refresh(ctx context.Context, load func(context.Context) ([]model.Transaction, error)) (*ledger.Snapshot, error)
}

type loader interface {
	LoadAll(ctx context.Context) ([]model.Transaction, error)
}

type deduper interface {
	SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error
	MarkIdempotencyFailed(ctx context.Context, key string) error
}

var validate = validator.New()

// fulfillmentHandler applies marketplace fulfillment events to the ledger.
// Each event ID is applied at most once. Malformed events go straight to the
// dead-letter handler; if that fails the message is retried like any other
// failure.
func fulfillmentHandler(store ledgerStore, journal loader, dedup deduper, deadLetter kafka.FailureHandler, log *zerolog.Logger) kafka.Handler {
	return func(ctx context.Context, msg *kafka.Message) error {
		var event types.FulfillmentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("Malformed fulfillment event")
			return deadLetter(ctx, msg, err)
		}
		if err := validate.Struct(&event); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("Invalid fulfillment event")
			return deadLetter(ctx, msg, err)
		}

		// Status changes written for this event carry its correlation ID
		// into the outbox.
		correlationID := msg.Headers[kafka.HeaderCorrelationID]
		if correlationID == "" {
			correlationID = event.EventID
		}
		l := log.With().
			Str("event_id", event.EventID).
			Str("correlation_id", correlationID).
			Str("transaction_id", event.TransactionID).
			Str("status", string(event.Status)).
			Logger()
		ctx = middleware.WithLogger(middleware.WithRequestID(ctx, correlationID), &l)

		key := "fulfillment:" + event.EventID
		if err := dedup.SetIdempotencyKey(ctx, key, constants.FulfillmentDedupTTL); err != nil {
			if errors.Is(err, redis.ErrKeyExists) {
				l.Info().Msg("Fulfillment event already applied, skipping")
				return nil
			}
			return fmt.Errorf("claiming event %s: %w", event.EventID, err)
		}

		if err := apply(ctx, store, journal, &event); err != nil {
			if rerr := dedup.MarkIdempotencyFailed(ctx, key); rerr != nil {
				l.Warn().Err(rerr).Msg("Failed to release event key")
			}
			return err
		}
		return nil
	}
}

// apply advances the transaction. When the local ledger disagrees with the
// event it is refreshed from the journal and the event tried once more. A
// transition the refreshed ledger still refuses is stale and dropped.
func apply(ctx context.Context, store ledgerStore, journal loader, event *types.FulfillmentEvent) error {
	logger := middleware.GetLogger(ctx)

	_, err := store.Advance(ctx, event.TransactionID, event.Status, event.OccurredAt)
	if errors.Is(err, ledger.ErrTransactionNotFound) || errors.Is(err, ledger.ErrInvalidTransition) {
		if _, rerr := store.Refresh(ctx, journal.LoadAll); rerr != nil {
			return fmt.Errorf("refreshing ledger: %w", rerr)
		}
		_, err = store.Advance(ctx, event.TransactionID, event.Status, event.OccurredAt)
	}

	switch {
	case err == nil:
		logger.Info().Msg("Transaction status advanced")
		return nil
	case errors.Is(err, ledger.ErrInvalidTransition):
		logger.Warn().Err(err).Msg("Dropping stale fulfillment event")
		return nil
	default:
		return err
	}
}
