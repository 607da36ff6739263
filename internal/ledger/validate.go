package ledger

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/pkg/errors"

	"github.com/Niiaks/Ledgerly/internal/model"
)

var validate = validator.New()

// Validate checks every invariant a transaction must satisfy before the
// ledger accepts it.
func Validate(tx *model.Transaction) error {
	fail := func(reason string) error {
		return pkgerrors.WithStack(&model.DataInvariantError{TransactionID: tx.ID, Reason: reason})
	}

	if err := validate.Struct(tx); err != nil {
		return fail(err.Error())
	}
	if !tx.Amount.IsPositive() {
		return fail("amount must be positive")
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"amount", tx.Amount},
		{"platform fee", tx.PlatformFee},
		{"payment processing fee", tx.PaymentProcessingFee},
		{"transaction fee", tx.TransactionFee},
		{"net to seller", tx.NetToSeller},
		{"tax amount", tx.TaxAmount.Decimal},
	} {
		if !wholeCents(f.value) {
			return fail(f.name + " has more than two decimal places: " + f.value.String())
		}
	}
	if tx.PlatformFee.IsNegative() || tx.PaymentProcessingFee.IsNegative() || tx.TransactionFee.IsNegative() {
		return fail("fees must not be negative")
	}
	if tx.NetToSeller.IsNegative() {
		return fail("net to seller is negative: " + tx.NetToSeller.StringFixed(2))
	}
	if expected := tx.Amount.Sub(tx.TotalFees()); !tx.NetToSeller.Equal(expected) {
		return fail("net to seller " + tx.NetToSeller.StringFixed(2) + " does not equal amount minus fees " + expected.StringFixed(2))
	}
	if tx.TaxAmount.Valid && tx.TaxAmount.Decimal.IsNegative() {
		return fail("tax amount must not be negative")
	}
	if tx.CompletionDate.Before(tx.Date) {
		return fail("completion date precedes charge date")
	}
	if tx.AvailableDate.Before(tx.CompletionDate) {
		return fail("available date precedes completion date")
	}
	return nil
}

// wholeCents reports whether d is stored unchanged by a NUMERIC(14,2) column.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
