package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/model"
)

// RecordTransactionRequest is a paid booking or order. Fees are never taken
// from the caller; they are computed on ingestion.
type RecordTransactionRequest struct {
	TransactionID  string                  `json:"transaction_id" validate:"required,max=128"`
	SellerID       string                  `json:"seller_id" validate:"required,max=64"`
	Type           model.TransactionType   `json:"type" validate:"required,oneof=booking_payment order_payment"`
	Amount         decimal.Decimal         `json:"amount"`
	Date           time.Time               `json:"date" validate:"required"`
	CompletionDate time.Time               `json:"completion_date" validate:"required"`
	AvailableDate  time.Time               `json:"available_date" validate:"required"`
	TaxAmount      decimal.NullDecimal     `json:"tax_amount"`
	Status         model.TransactionStatus `json:"status" validate:"omitempty,oneof=pending processing completed failed"`
	BookingID      string                  `json:"booking_id,omitempty"`
	OrderID        string                  `json:"order_id,omitempty"`
	ListingID      string                  `json:"listing_id" validate:"required"`
	ListingName    string                  `json:"listing_name,omitempty"`
}

type UpdateStatusRequest struct {
	Status model.TransactionStatus `json:"status" validate:"required,oneof=pending processing completed failed"`
}

type PayoutSettingsRequest struct {
	Configuration  model.PayoutConfiguration `json:"configuration"`
	AccountDetails model.AccountDetails      `json:"account_details"`
}

// TransactionRecordedEvent is published once a transaction is in the ledger.
type TransactionRecordedEvent struct {
	ID            string                  `json:"id"`
	SellerID      string                  `json:"seller_id"`
	ListingID     string                  `json:"listing_id"`
	Amount        decimal.Decimal         `json:"amount"`
	TotalFees     decimal.Decimal         `json:"total_fees"`
	NetToSeller   decimal.Decimal         `json:"net_to_seller"`
	Status        model.TransactionStatus `json:"status"`
	AvailableDate time.Time               `json:"available_date"`
}

type TransactionStatusChangedEvent struct {
	ID        string                  `json:"id"`
	SellerID  string                  `json:"seller_id"`
	From      model.TransactionStatus `json:"from"`
	To        model.TransactionStatus `json:"to"`
	ChangedAt time.Time               `json:"changed_at"`
}

// PayoutCreatedEvent hands a payout to the downstream disbursement system.
type PayoutCreatedEvent struct {
	ID             string               `json:"id"`
	SellerID       string               `json:"seller_id"`
	Method         model.PayoutMethod   `json:"method"`
	InitiatedDate  time.Time            `json:"initiated_date"`
	Amount         decimal.Decimal      `json:"amount"`
	WithdrawalFee  decimal.Decimal      `json:"withdrawal_fee"`
	NetAmount      decimal.Decimal      `json:"net_amount"`
	TransactionIDs []string             `json:"transaction_ids"`
	AccountDetails model.AccountDetails `json:"account_details"`
}

// FulfillmentEvent is consumed from the marketplace when a booking or order
// moves through fulfillment.
type FulfillmentEvent struct {
	EventID       string                  `json:"event_id" validate:"required"`
	TransactionID string                  `json:"transaction_id" validate:"required"`
	Status        model.TransactionStatus `json:"status" validate:"required,oneof=pending processing completed failed"`
	OccurredAt    time.Time               `json:"occurred_at" validate:"required"`
}
