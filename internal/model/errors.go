package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// DataInvariantError reports a transaction that breaks a ledger invariant,
// such as the fee identity or a non-negative net. It is raised on ingestion
// and never corrected downstream.
type DataInvariantError struct {
	TransactionID string
	Reason        string
}

func (e *DataInvariantError) Error() string {
	if e.TransactionID == "" {
		return "data invariant violated: " + e.Reason
	}
	return fmt.Sprintf("data invariant violated for transaction %s: %s", e.TransactionID, e.Reason)
}

// ConfigurationError reports an unusable payout or fee configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// DoubleAssignmentError is raised when a payout tries to claim a transaction
// that already belongs to a payout. It always aborts the whole run.
type DoubleAssignmentError struct {
	TransactionID     string
	ExistingPayoutID  string
	AttemptedPayoutID string
}

func (e *DoubleAssignmentError) Error() string {
	return fmt.Sprintf("transaction %s already assigned to payout %q, refusing payout %q",
		e.TransactionID, e.ExistingPayoutID, e.AttemptedPayoutID)
}
