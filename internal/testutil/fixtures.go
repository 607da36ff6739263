package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
)

// Now is the fixed reference time used across tests.
var Now = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

const SellerID = "seller-1"

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type Option func(*model.Transaction)

// WithDate moves the charge date and keeps completion one day and
// availability three days after it.
func WithDate(date time.Time) Option {
	return func(tx *model.Transaction) {
		tx.Date = date
		tx.CompletionDate = date.Add(24 * time.Hour)
		tx.AvailableDate = date.Add(72 * time.Hour)
	}
}

func WithAvailableDate(at time.Time) Option {
	return func(tx *model.Transaction) {
		tx.AvailableDate = at
		if tx.CompletionDate.After(at) {
			tx.CompletionDate = at
		}
		if tx.Date.After(at) {
			tx.Date = at
		}
	}
}

func WithStatus(status model.TransactionStatus) Option {
	return func(tx *model.Transaction) { tx.Status = status }
}

func WithListing(id, name string) Option {
	return func(tx *model.Transaction) {
		tx.ListingID = id
		tx.ListingName = name
	}
}

func WithSeller(sellerID string) Option {
	return func(tx *model.Transaction) { tx.SellerID = sellerID }
}

func WithPayout(payoutID string) Option {
	return func(tx *model.Transaction) { tx.PayoutID = payoutID }
}

func AsOrder(orderID string) Option {
	return func(tx *model.Transaction) {
		tx.Type = model.TypeOrderPayment
		tx.BookingID = ""
		tx.OrderID = orderID
	}
}

// NewTransaction builds a completed booking payment whose fees come from the
// default schedule. It panics on fee errors since fixtures must be valid.
func NewTransaction(id, amount string, opts ...Option) model.Transaction {
	gross := Money(amount)
	b, err := fee.NewModel(fee.DefaultSchedule()).Compute(gross)
	if err != nil {
		panic(err)
	}

	date := Now.Add(-10 * 24 * time.Hour)
	tx := model.Transaction{
		ID:                   id,
		TransactionID:        "txn_" + id,
		SellerID:             SellerID,
		Type:                 model.TypeBookingPayment,
		Amount:               gross,
		Date:                 date,
		CompletionDate:       date.Add(24 * time.Hour),
		AvailableDate:        date.Add(72 * time.Hour),
		PlatformFee:          b.PlatformFee,
		PaymentProcessingFee: b.PaymentProcessingFee,
		TransactionFee:       b.TransactionFee,
		NetToSeller:          b.NetToSeller,
		Status:               model.StatusCompleted,
		BookingID:            "booking-" + id,
		ListingID:            "listing-1",
		ListingName:          "Harbour View Loft",
	}
	for _, opt := range opts {
		opt(&tx)
	}
	return tx
}
