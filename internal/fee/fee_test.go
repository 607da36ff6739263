package fee

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute(t *testing.T) {
	m := NewModel(DefaultSchedule())

	tests := []struct {
		name       string
		gross      string
		platform   string
		processing string
		txFee      string
		net        string
	}{
		{name: "hundred", gross: "100", platform: "2.50", processing: "3.20", txFee: "0.25", net: "94.05"},
		{name: "fifty", gross: "50", platform: "1.25", processing: "1.75", txFee: "0.25", net: "46.75"},
		{name: "thirty", gross: "30", platform: "0.75", processing: "1.17", txFee: "0.25", net: "27.83"},
		{name: "two hundred", gross: "200", platform: "5.00", processing: "6.10", txFee: "0.25", net: "188.65"},
		// 2.5% of 1.00 is 0.025, which rounds half-up to 0.03
		{name: "half cent rounds up", gross: "1.00", platform: "0.03", processing: "0.33", txFee: "0.25", net: "0.39"},
		{name: "odd cents", gross: "19.99", platform: "0.50", processing: "0.88", txFee: "0.25", net: "18.36"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := m.Compute(d(tt.gross))
			require.NoError(t, err)
			assert.True(t, d(tt.platform).Equal(b.PlatformFee), "platform fee %s", b.PlatformFee)
			assert.True(t, d(tt.processing).Equal(b.PaymentProcessingFee), "processing fee %s", b.PaymentProcessingFee)
			assert.True(t, d(tt.txFee).Equal(b.TransactionFee), "transaction fee %s", b.TransactionFee)
			assert.True(t, d(tt.net).Equal(b.NetToSeller), "net %s", b.NetToSeller)
		})
	}
}

func TestComputeFeeIdentity(t *testing.T) {
	m := NewModel(DefaultSchedule())
	for cents := int64(100); cents <= 100000; cents += 137 {
		gross := decimal.New(cents, -2)
		b, err := m.Compute(gross)
		require.NoError(t, err)
		assert.True(t, gross.Equal(b.NetToSeller.Add(b.TotalFees())), "identity broken for %s", gross)
	}
}

func TestComputeMicroTransactionFloor(t *testing.T) {
	s := DefaultSchedule()
	s.MicroTransactionFloor = d("5")
	m := NewModel(s)

	below, err := m.Compute(d("4.99"))
	require.NoError(t, err)
	assert.True(t, below.TransactionFee.IsZero())

	at, err := m.Compute(d("5"))
	require.NoError(t, err)
	assert.True(t, d("0.25").Equal(at.TransactionFee))
}

func TestComputeNegativeNetIsReported(t *testing.T) {
	m := NewModel(DefaultSchedule())

	b, err := m.Compute(d("0.50"))
	require.Error(t, err)

	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "fee_schedule", cfgErr.Field)
	assert.True(t, b.NetToSeller.IsZero(), "display value is clamped")
}

func TestComputeRejectsNegativeGross(t *testing.T) {
	_, err := NewModel(DefaultSchedule()).Compute(d("-1"))

	var invErr *model.DataInvariantError
	assert.True(t, errors.As(err, &invErr))
}

func TestWithdrawalFee(t *testing.T) {
	m := NewModel(DefaultSchedule())

	tests := []struct {
		amount   string
		expected string
	}{
		{"50.01", "0"},
		{"50", "1.00"},
		{"12.40", "1.00"},
		{"0.60", "0.60"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.True(t, d(tt.expected).Equal(m.WithdrawalFee(d(tt.amount))))
		})
	}
}

func TestScheduleFromConfig(t *testing.T) {
	s, err := ScheduleFromConfig(&config.FeeConfig{
		PlatformPercent:     d("2.5"),
		ProcessingPercent:   d("2.9"),
		ProcessingFixed:     d("0.30"),
		TransactionFee:      d("0.25"),
		WithdrawalFee:       d("1"),
		WithdrawalFeeWaiver: d("50"),
	})
	require.NoError(t, err)
	assert.True(t, d("0.025").Equal(s.PlatformRate))
	assert.True(t, d("0.029").Equal(s.ProcessingRate))

	_, err = ScheduleFromConfig(&config.FeeConfig{PlatformPercent: d("-1")})
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "platform_rate", cfgErr.Field)

	_, err = ScheduleFromConfig(&config.FeeConfig{PlatformPercent: d("60"), ProcessingPercent: d("40")})
	assert.Error(t, err)
}
