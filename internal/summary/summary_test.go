package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/testutil"
)

var now = testutil.Now

func daysAgo(n float64) time.Time {
	return now.Add(-time.Duration(n * float64(day)))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, All, now, decimal.Zero)

	assert.True(t, s.TotalRevenue.IsZero())
	assert.True(t, s.AverageOrderValue.IsZero())
	assert.True(t, s.RevenueGrowth.IsZero())
	assert.Equal(t, 0, s.CompletedTransactions)
}

func TestSummarizeAll(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("t-1", "100"),
		testutil.NewTransaction("t-2", "50", testutil.WithPayout("p-1")),
		testutil.NewTransaction("t-3", "30", testutil.WithStatus(model.StatusProcessing)),
		testutil.NewTransaction("t-4", "80", testutil.WithStatus(model.StatusFailed)),
		testutil.NewTransaction("t-5", "200", testutil.WithAvailableDate(now.Add(48*time.Hour))),
	}

	s := Summarize(txs, All, now, testutil.Money("5000"))

	assert.True(t, testutil.Money("380").Equal(s.TotalRevenue), "revenue %s", s.TotalRevenue)
	// fees: 5.95 + 3.25 + 2.17 + 11.35
	assert.True(t, testutil.Money("22.72").Equal(s.TotalFees), "fees %s", s.TotalFees)
	assert.True(t, testutil.Money("357.28").Equal(s.NetEarnings))
	assert.True(t, testutil.Money("27.83").Equal(s.PendingEarnings))
	assert.True(t, testutil.Money("94.05").Equal(s.AvailableForWithdrawal), "available %s", s.AvailableForWithdrawal)
	assert.Equal(t, 3, s.CompletedTransactions)
	assert.True(t, testutil.Money("126.67").Equal(s.AverageOrderValue), "aov %s", s.AverageOrderValue)
	assert.True(t, s.RevenueGrowth.IsZero())
	assert.True(t, testutil.Money("5000").Equal(s.MonthlyTarget))
}

func TestSummarizeWindowAndGrowth(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("cur-1", "100", testutil.WithDate(daysAgo(1))),
		testutil.NewTransaction("cur-2", "50", testutil.WithDate(daysAgo(6.5))),
		testutil.NewTransaction("prior-1", "60", testutil.WithDate(daysAgo(8))),
		testutil.NewTransaction("prior-2", "40", testutil.WithDate(daysAgo(13))),
		testutil.NewTransaction("old", "500", testutil.WithDate(daysAgo(20))),
	}

	s := Summarize(txs, Last7Days, now, decimal.Zero)

	assert.True(t, testutil.Money("150").Equal(s.TotalRevenue))
	// 150 vs 100 in the preceding seven days
	assert.True(t, testutil.Money("50").Equal(s.RevenueGrowth), "growth %s", s.RevenueGrowth)
}

func TestSummarizeCutoffIsInclusive(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("edge", "100", testutil.WithDate(now.Add(-day))),
		testutil.NewTransaction("before", "100", testutil.WithDate(now.Add(-day-time.Nanosecond))),
	}

	s := Summarize(txs, Last24h, now, decimal.Zero)
	assert.True(t, testutil.Money("100").Equal(s.TotalRevenue))
}

func TestSummarizeNoPriorWindowMeansZeroGrowth(t *testing.T) {
	txs := []model.Transaction{testutil.NewTransaction("cur", "100", testutil.WithDate(daysAgo(2)))}

	s := Summarize(txs, Last30Days, now, decimal.Zero)
	assert.True(t, s.RevenueGrowth.IsZero())
}

func TestSummarizeNegativeGrowth(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("cur", "30", testutil.WithDate(daysAgo(0.5))),
		testutil.NewTransaction("prior", "90", testutil.WithDate(daysAgo(1.5))),
	}

	s := Summarize(txs, Last24h, now, decimal.Zero)
	assert.True(t, testutil.Money("-66.67").Equal(s.RevenueGrowth), "growth %s", s.RevenueGrowth)
}

func TestSummarizeAdditivityAndIdempotence(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("t-1", "19.99", testutil.WithDate(daysAgo(3))),
		testutil.NewTransaction("t-2", "250.10", testutil.WithDate(daysAgo(5))),
		testutil.NewTransaction("t-3", "7.35", testutil.WithDate(daysAgo(29)), testutil.WithStatus(model.StatusPending)),
	}
	before := make([]model.Transaction, len(txs))
	copy(before, txs)

	for _, f := range []TimeFilter{All, Last24h, Last7Days, Last30Days} {
		first := Summarize(txs, f, now, decimal.Zero)
		second := Summarize(txs, f, now, decimal.Zero)

		assert.Equal(t, first, second, "filter %s", f)
		assert.True(t, first.TotalRevenue.Equal(first.TotalFees.Add(first.NetEarnings)), "filter %s", f)
	}
	assert.Equal(t, before, txs, "inputs are not mutated")
}

func TestParseTimeFilter(t *testing.T) {
	f, err := ParseTimeFilter("")
	require.NoError(t, err)
	assert.Equal(t, All, f)

	f, err = ParseTimeFilter("7d")
	require.NoError(t, err)
	assert.Equal(t, Last7Days, f)

	_, err = ParseTimeFilter("90d")
	assert.Error(t, err)
}

func TestCalculatorUsesClock(t *testing.T) {
	c := clock.NewFixed(now)
	calc := NewCalculator(c, decimal.Zero)
	txs := []model.Transaction{testutil.NewTransaction("t-1", "100", testutil.WithDate(daysAgo(2)))}

	assert.True(t, testutil.Money("100").Equal(calc.Summarize(txs, Last7Days).TotalRevenue))

	c.Advance(10 * day)
	assert.True(t, calc.Summarize(txs, Last7Days).TotalRevenue.IsZero())
}
