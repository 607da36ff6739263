package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Model struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionType string

const (
	TypeBookingPayment TransactionType = "booking_payment"
	TypeOrderPayment   TransactionType = "order_payment"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
)

// rank orders the forward path. failed sits outside it.
func (s TransactionStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether s may advance to next. Progression is
// monotonic along pending -> processing -> completed; failed is reachable
// from pending and processing only.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if next == StatusFailed {
		return s == StatusPending || s == StatusProcessing
	}
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	return to > from
}

// Transaction is one payment for a completed booking or order. Fees are
// computed once at creation and never change afterwards. BookingID and
// OrderID form a tagged union discriminated by Type.
type Transaction struct {
	ID                   string              `json:"id" validate:"required"`
	TransactionID        string              `json:"transaction_id" validate:"required"`
	SellerID             string              `json:"seller_id" validate:"required"`
	Type                 TransactionType     `json:"type" validate:"required,oneof=booking_payment order_payment"`
	Amount               decimal.Decimal     `json:"amount"`
	Date                 time.Time           `json:"date" validate:"required"`
	CompletionDate       time.Time           `json:"completion_date" validate:"required"`
	AvailableDate        time.Time           `json:"available_date" validate:"required"`
	PlatformFee          decimal.Decimal     `json:"platform_fee"`
	PaymentProcessingFee decimal.Decimal     `json:"payment_processing_fee"`
	TransactionFee       decimal.Decimal     `json:"transaction_fee"`
	NetToSeller          decimal.Decimal     `json:"net_to_seller"`
	TaxAmount            decimal.NullDecimal `json:"tax_amount"`
	Status               TransactionStatus   `json:"status" validate:"required,oneof=pending processing completed failed"`
	BookingID            string              `json:"booking_id,omitempty" validate:"required_if=Type booking_payment,excluded_unless=Type booking_payment"`
	OrderID              string              `json:"order_id,omitempty" validate:"required_if=Type order_payment,excluded_unless=Type order_payment"`
	ListingID            string              `json:"listing_id" validate:"required"`
	ListingName          string              `json:"listing_name"`
	PayoutID             string              `json:"payout_id,omitempty"`
	Model
}

// TotalFees is the sum of the three fee components.
func (t *Transaction) TotalFees() decimal.Decimal {
	return t.PlatformFee.Add(t.PaymentProcessingFee).Add(t.TransactionFee)
}

// Reference returns the booking or order identifier, whichever the type carries.
func (t *Transaction) Reference() string {
	if t.Type == TypeOrderPayment {
		return t.OrderID
	}
	return t.BookingID
}

// EligibleForPayout reports whether t can be swept into a payout at now.
func (t *Transaction) EligibleForPayout(now time.Time) bool {
	return t.Status == StatusCompleted && !t.AvailableDate.After(now) && t.PayoutID == ""
}

type PayoutMethod string

const (
	MethodSchedule  PayoutMethod = "schedule"
	MethodThreshold PayoutMethod = "threshold"
)

type ScheduleFrequency string

const (
	FrequencyBiMonthly ScheduleFrequency = "bi-monthly"
	FrequencyMonthly   ScheduleFrequency = "monthly"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

type PayoutConfiguration struct {
	Method            PayoutMethod        `json:"method" validate:"required"`
	ScheduleFrequency ScheduleFrequency   `json:"schedule_frequency,omitempty"`
	ThresholdMinimum  decimal.Decimal     `json:"threshold_minimum"`
	ThresholdMaximum  decimal.NullDecimal `json:"threshold_maximum"`
}

// AccountDetails describes where a payout is sent. The engine never reads it.
type AccountDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountLast4  string `json:"account_last4,omitempty" validate:"omitempty,len=4,numeric"`
	ExternalEmail string `json:"external_email,omitempty" validate:"omitempty,email"`
}

type PayoutRecord struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	Method         PayoutMethod    `json:"method"`
	InitiatedDate  time.Time       `json:"initiated_date"`
	CompletedDate  *time.Time      `json:"completed_date,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	WithdrawalFee  decimal.Decimal `json:"withdrawal_fee"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	TransactionIDs []string        `json:"transaction_ids"`
	Status         PayoutStatus    `json:"status"`
	AccountDetails AccountDetails  `json:"account_details"`
	Model
}

// PayoutSettings is a seller's payout policy plus its destination account.
type PayoutSettings struct {
	SellerID       string              `json:"seller_id" validate:"required"`
	Configuration  PayoutConfiguration `json:"configuration"`
	AccountDetails AccountDetails      `json:"account_details"`
	Model
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID              string          `json:"id"`
	SellerID        string          `json:"seller_id"`
	ListingID       string          `json:"listing_id"`
	Price           decimal.Decimal `json:"price"`
	Status          BookingStatus   `json:"status"`
	AppointmentDate time.Time       `json:"appointment_date"`
}

type Listing struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Name     string `json:"name"`
}

type FinancialSummary struct {
	Window                 string          `json:"window"`
	GeneratedAt            time.Time       `json:"generated_at"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalFees              decimal.Decimal `json:"total_fees"`
	NetEarnings            decimal.Decimal `json:"net_earnings"`
	PendingEarnings        decimal.Decimal `json:"pending_earnings"`
	AvailableForWithdrawal decimal.Decimal `json:"available_for_withdrawal"`
	CompletedTransactions  int             `json:"completed_transactions"`
	AverageOrderValue      decimal.Decimal `json:"average_order_value"`
	RevenueGrowth          decimal.Decimal `json:"revenue_growth"`
	MonthlyTarget          decimal.Decimal `json:"monthly_target"`
}

type ListingPerformance struct {
	ListingID          string          `json:"listing_id"`
	ListingName        string          `json:"listing_name"`
	TransactionCount   int             `json:"transaction_count"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

type TransactionOutbox struct {
	ID            int64           `json:"id" validate:"required"`
	EventType     string          `json:"event_type" validate:"required"`
	Payload       json.RawMessage `json:"payload" validate:"required"`
	PartitionKey  string          `json:"partition_key" validate:"required"`
	Status        string          `json:"status" validate:"required,oneof=pending processed failed"`
	CorrelationID string          `json:"correlation_id"`
	RetryCount    int             `json:"retry_count" validate:"gte=0"`
	LastError     string          `json:"last_error,omitempty"`
	Model
}
