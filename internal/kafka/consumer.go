package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a simplified wrapper around Kafka records
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
}

// Handler processes a single message. Return error to trigger retry.
type Handler func(ctx context.Context, msg *Message) error

// FailureHandler parks a message whose retries are exhausted. An error
// means the message was not parked and must be redelivered.
type FailureHandler func(ctx context.Context, msg *Message, err error) error

type Consumer struct {
	client    *kgo.Client
	cfg       *Config
	topic     string
	group     string
	logger    *zerolog.Logger
	onFailure FailureHandler
}

func NewConsumer(cfg *Config, group, topic string, logger *zerolog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.HeartbeatInterval(cfg.HeartbeatInterval),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()), // Start from earliest if no offset
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	l := logger.With().Str("topic", topic).Str("group", group).Logger()
	return &Consumer{
		client: client,
		cfg:    cfg,
		topic:  topic,
		group:  group,
		logger: &l,
	}, nil
}

// OnFailure sets where messages go once retries are exhausted.
func (c *Consumer) OnFailure(fn FailureHandler) {
	c.onFailure = fn
}

// Run starts consuming messages and calls handler for each.
// Blocks until context is cancelled or a message can be neither processed
// nor handed to the failure handler.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fetches := c.client.PollRecords(ctx, c.cfg.MaxPollRecords)
		if fetches.IsClientClosed() {
			return nil
		}
		// Transient fetch errors are common; log and keep polling.
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Warn().Err(err).Str("fetch_topic", topic).Int32("partition", partition).Msg("fetch error")
		})

		var settled []*kgo.Record
		for iter := fetches.RecordIter(); !iter.Done(); {
			record := iter.Next()
			msg := &Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Partition: record.Partition,
				Offset:    record.Offset,
				Timestamp: record.Timestamp,
				Headers:   headersToMap(record.Headers),
			}

			if err := c.settle(ctx, handler, msg); err != nil {
				// Only what was settled is committed; the rest of the poll
				// is redelivered to whoever consumes the partition next.
				if len(settled) > 0 {
					if cerr := c.client.CommitRecords(context.WithoutCancel(ctx), settled...); cerr != nil {
						c.logger.Error().Err(cerr).Msg("failed to commit settled records")
					}
				}
				return err
			}
			settled = append(settled, record)
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to commit offsets")
		}
	}
}

// settle processes msg, handing it to the failure handler once retries are
// exhausted. It returns an error only when msg was neither processed nor
// parked.
func (c *Consumer) settle(ctx context.Context, handler Handler, msg *Message) error {
	err := c.processWithRetry(ctx, handler, msg)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	c.logger.Error().Err(err).Int32("partition", msg.Partition).Int64("offset", msg.Offset).Msg("message processing failed after retries")
	if c.onFailure == nil {
		return nil
	}
	if ferr := c.onFailure(ctx, msg, err); ferr != nil {
		return fmt.Errorf("parking offset %d of %s/%d: %w", msg.Offset, msg.Topic, msg.Partition, ferr)
	}
	return nil
}

func (c *Consumer) processWithRetry(ctx context.Context, handler Handler, msg *Message) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := handler(ctx, msg); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Consumer) Close() {
	c.client.Close()
}

func headersToMap(headers []kgo.RecordHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
