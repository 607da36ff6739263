package constants

import "time"

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotencyTTL       = 24 * time.Hour

	// FulfillmentDedupTTL bounds how long a consumed fulfillment event ID is
	// remembered.
	FulfillmentDedupTTL = 72 * time.Hour
)
