package fee

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Schedule holds the platform's fee parameters. Rates are fractions, so
// 2.5% is 0.025.
type Schedule struct {
	PlatformRate          decimal.Decimal
	ProcessingRate        decimal.Decimal
	ProcessingFixedFee    decimal.Decimal
	TransactionFee        decimal.Decimal
	MicroTransactionFloor decimal.Decimal // zero disables the waiver
	WithdrawalFee         decimal.Decimal
	WithdrawalFeeWaiver   decimal.Decimal // payouts above this pay no withdrawal fee
}

func DefaultSchedule() Schedule {
	return Schedule{
		PlatformRate:        decimal.RequireFromString("0.025"),
		ProcessingRate:      decimal.RequireFromString("0.029"),
		ProcessingFixedFee:  decimal.RequireFromString("0.30"),
		TransactionFee:      decimal.RequireFromString("0.25"),
		WithdrawalFee:       decimal.RequireFromString("1.00"),
		WithdrawalFeeWaiver: decimal.NewFromInt(50),
	}
}

// ScheduleFromConfig builds a Schedule from percentage-based config values.
func ScheduleFromConfig(cfg *config.FeeConfig) (Schedule, error) {
	s := Schedule{
		PlatformRate:          cfg.PlatformPercent.Div(hundred),
		ProcessingRate:        cfg.ProcessingPercent.Div(hundred),
		ProcessingFixedFee:    cfg.ProcessingFixed,
		TransactionFee:        cfg.TransactionFee,
		MicroTransactionFloor: cfg.MicroTransactionFloor,
		WithdrawalFee:         cfg.WithdrawalFee,
		WithdrawalFeeWaiver:   cfg.WithdrawalFeeWaiver,
	}
	return s, s.Validate()
}

func (s Schedule) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"platform_rate", s.PlatformRate},
		{"processing_rate", s.ProcessingRate},
		{"processing_fixed_fee", s.ProcessingFixedFee},
		{"transaction_fee", s.TransactionFee},
		{"micro_transaction_floor", s.MicroTransactionFloor},
		{"withdrawal_fee", s.WithdrawalFee},
		{"withdrawal_fee_waiver", s.WithdrawalFeeWaiver},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return errors.WithStack(&model.ConfigurationError{Field: f.name, Reason: "must not be negative"})
		}
	}
	if s.PlatformRate.Add(s.ProcessingRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.WithStack(&model.ConfigurationError{Field: "rates", Reason: "combined rates must stay below 100%"})
	}
	return nil
}

// Breakdown is the fee split of a single gross amount.
type Breakdown struct {
	Gross                decimal.Decimal `json:"gross"`
	PlatformFee          decimal.Decimal `json:"platform_fee"`
	PaymentProcessingFee decimal.Decimal `json:"payment_processing_fee"`
	TransactionFee       decimal.Decimal `json:"transaction_fee"`
	NetToSeller          decimal.Decimal `json:"net_to_seller"`
}

func (b Breakdown) TotalFees() decimal.Decimal {
	return b.PlatformFee.Add(b.PaymentProcessingFee).Add(b.TransactionFee)
}

type Model struct {
	schedule Schedule
}

func NewModel(schedule Schedule) *Model {
	return &Model{schedule: schedule}
}

func (m *Model) Schedule() Schedule {
	return m.schedule
}

// Compute splits gross into fees and the seller's net. Each component is
// rounded half-up to cents on its own before the net is derived.
//
// A net below zero means the schedule cannot serve this amount: the returned
// breakdown has its net clamped to zero for display, and the error must be
// treated as fatal by anything that records money.
func (m *Model) Compute(gross decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, errors.WithStack(&model.DataInvariantError{
			Reason: "gross amount " + gross.StringFixed(2) + " is negative",
		})
	}

	s := m.schedule
	b := Breakdown{
		Gross:                gross,
		PlatformFee:          Round2(gross.Mul(s.PlatformRate)),
		PaymentProcessingFee: Round2(gross.Mul(s.ProcessingRate).Add(s.ProcessingFixedFee)),
		TransactionFee:       Round2(s.TransactionFee),
	}
	if s.MicroTransactionFloor.IsPositive() && gross.LessThan(s.MicroTransactionFloor) {
		b.TransactionFee = decimal.Zero
	}

	b.NetToSeller = gross.Sub(b.TotalFees())
	if b.NetToSeller.IsNegative() {
		net := b.NetToSeller
		b.NetToSeller = decimal.Zero
		return b, errors.WithStack(&model.ConfigurationError{
			Field:  "fee_schedule",
			Reason: "fees exceed gross " + gross.StringFixed(2) + ", net would be " + net.StringFixed(2),
		})
	}
	return b, nil
}

// WithdrawalFee is charged on a payout unless its amount exceeds the waiver.
// The fee never exceeds the amount itself.
func (m *Model) WithdrawalFee(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(m.schedule.WithdrawalFeeWaiver) || !amount.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(Round2(m.schedule.WithdrawalFee), amount)
}

// Round2 rounds to cents, half away from zero. For the non-negative amounts
// the fee model deals in that is round-half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
