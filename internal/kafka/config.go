package kafka

import (
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Topics owned by Ledgerly.
const (
	TopicTransactionRecorded      = "ledgerly.transaction.recorded"
	TopicTransactionStatusChanged = "ledgerly.transaction.status_changed"
	TopicPayoutCreated            = "ledgerly.payout.created"

	TopicDLQ = "ledgerly.dlq"
)

// Event types for outbox
const (
	EventTransactionRecorded      = "transaction.recorded"
	EventTransactionStatusChanged = "transaction.status_changed"
	EventPayoutCreated            = "payout.created"
)

// Record headers set by the outbox relay.
const (
	HeaderEventType     = "event_type"
	HeaderCorrelationID = "correlation_id"
)

// ConsumerGroup names for different Kafka consumers
const (
	GroupFulfillmentWorker = "ledgerly.fulfillment.worker"
)

// TopicForEvent routes an outbox event type. Unknown types go to the DLQ.
func TopicForEvent(eventType string) string {
	switch eventType {
	case EventTransactionRecorded:
		return TopicTransactionRecorded
	case EventTransactionStatusChanged:
		return TopicTransactionStatusChanged
	case EventPayoutCreated:
		return TopicPayoutCreated
	default:
		return TopicDLQ
	}
}

type Config struct {
	Brokers           []string
	ProducerTimeout   time.Duration
	RequiredAcks      kgo.Acks
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxPollRecords    int
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConfig(brokers []string) *Config {
	return &Config{
		Brokers:           brokers,
		ProducerTimeout:   10 * time.Second,
		RequiredAcks:      kgo.AllISRAcks(),
		SessionTimeout:    10 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxPollRecords:    100,
		MaxRetries:        5,
		RetryBackoff:      1 * time.Second,
	}
}
