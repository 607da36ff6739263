package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/kafka"
	"github.com/Niiaks/Ledgerly/internal/model"
)

// Publisher is the part of the Kafka producer the relay needs.
type Publisher interface {
	PublishWithHeaders(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

type Relay struct {
	db         *pgxpool.Pool
	publisher  Publisher
	logger     *zerolog.Logger
	batchSize  int
	interval   time.Duration
	maxRetries int
}

func NewRelay(db *pgxpool.Pool, publisher Publisher, cfg config.OutboxConfig, logger *zerolog.Logger) *Relay {
	return &Relay{
		db:         db,
		publisher:  publisher,
		logger:     logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Int("batch_size", r.batchSize).Msg("Starting Outbox Relay")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Stopping Outbox Relay")
			return nil
		case <-ticker.C:
			if err := r.processBatch(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Failed to process batch")
			}
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, payload, partition_key, correlation_id, retry_count
		FROM transaction_outbox
		WHERE status = 'pending'
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return err
	}

	var events []model.TransactionOutbox
	for rows.Next() {
		var e model.TransactionOutbox
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.PartitionKey, &e.CorrelationID, &e.RetryCount); err != nil {
			rows.Close()
			return err
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}
	r.logger.Debug().Int("count", len(events)).Msg("Fetched outbox events")

	var processedIDs []int64
	for _, e := range events {
		topic := kafka.TopicForEvent(e.EventType)
		headers := map[string]string{
			kafka.HeaderEventType:     e.EventType,
			kafka.HeaderCorrelationID: e.CorrelationID,
		}

		if err := r.publisher.PublishWithHeaders(ctx, topic, []byte(e.PartitionKey), e.Payload, headers); err != nil {
			status := statusAfterFailure(e.RetryCount, r.maxRetries)
			r.logger.Error().Err(err).
				Int64("event_id", e.ID).
				Str("event_type", e.EventType).
				Int("retry_count", e.RetryCount+1).
				Str("status", status).
				Msg("Failed to publish event to Kafka")

			if _, uerr := tx.Exec(ctx, `
				UPDATE transaction_outbox
				SET retry_count = retry_count + 1, last_error = $2, status = $3, updated_at = NOW()
				WHERE id = $1
			`, e.ID, err.Error(), status); uerr != nil {
				return uerr
			}
			continue
		}
		processedIDs = append(processedIDs, e.ID)
	}

	if len(processedIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE transaction_outbox
			SET status = 'processed', updated_at = NOW()
			WHERE id = ANY($1)
		`, processedIDs); err != nil {
			return err
		}
		r.logger.Info().Int("published", len(processedIDs)).Msg("Outbox events relayed")
	}

	return tx.Commit(ctx)
}

// statusAfterFailure keeps an event pending until it has failed maxRetries
// times.
func statusAfterFailure(retryCount, maxRetries int) string {
	if retryCount+1 >= maxRetries {
		return "failed"
	}
	return "pending"
}
