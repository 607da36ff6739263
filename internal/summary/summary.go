package summary

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
)

type TimeFilter string

const (
	All        TimeFilter = "all"
	Last24h    TimeFilter = "24h"
	Last7Days  TimeFilter = "7d"
	Last30Days TimeFilter = "30d"
)

const day = 24 * time.Hour

// ParseTimeFilter accepts the dashboard range values. Empty means all.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch f := TimeFilter(s); f {
	case "":
		return All, nil
	case All, Last24h, Last7Days, Last30Days:
		return f, nil
	default:
		return "", fmt.Errorf("unknown time filter %q", s)
	}
}

// Window returns the filter's length. ok is false for All.
func (f TimeFilter) Window() (time.Duration, bool) {
	switch f {
	case Last24h:
		return day, true
	case Last7Days:
		return 7 * day, true
	case Last30Days:
		return 30 * day, true
	default:
		return 0, false
	}
}

var hundred = decimal.NewFromInt(100)

// Summarize aggregates the transactions dated inside the filter's window
// ending at now. Failed transactions contribute nothing. The result depends
// only on its arguments.
func Summarize(txs []model.Transaction, filter TimeFilter, now time.Time, target decimal.Decimal) model.FinancialSummary {
	s := model.FinancialSummary{
		Window:                 string(filter),
		GeneratedAt:            now,
		TotalRevenue:           decimal.Zero,
		TotalFees:              decimal.Zero,
		NetEarnings:            decimal.Zero,
		PendingEarnings:        decimal.Zero,
		AvailableForWithdrawal: decimal.Zero,
		AverageOrderValue:      decimal.Zero,
		RevenueGrowth:          decimal.Zero,
		MonthlyTarget:          target,
	}

	window, bounded := filter.Window()
	cutoff := now.Add(-window)
	priorCutoff := cutoff.Add(-window)

	priorRevenue := decimal.Zero
	priorCount := 0

	for i := range txs {
		tx := &txs[i]
		if tx.Status == model.StatusFailed {
			continue
		}
		if bounded && tx.Date.Before(cutoff) {
			if !tx.Date.Before(priorCutoff) {
				priorRevenue = priorRevenue.Add(tx.Amount)
				priorCount++
			}
			continue
		}

		s.TotalRevenue = s.TotalRevenue.Add(tx.Amount)
		s.TotalFees = s.TotalFees.Add(tx.TotalFees())

		if tx.Status == model.StatusCompleted {
			s.CompletedTransactions++
			if !tx.AvailableDate.After(now) && tx.PayoutID == "" {
				s.AvailableForWithdrawal = s.AvailableForWithdrawal.Add(tx.NetToSeller)
			}
		} else {
			s.PendingEarnings = s.PendingEarnings.Add(tx.NetToSeller)
		}
	}

	s.NetEarnings = s.TotalRevenue.Sub(s.TotalFees)
	if s.CompletedTransactions > 0 {
		s.AverageOrderValue = fee.Round2(s.TotalRevenue.Div(decimal.NewFromInt(int64(s.CompletedTransactions))))
	}
	if bounded && priorCount > 0 && priorRevenue.IsPositive() {
		s.RevenueGrowth = fee.Round2(s.TotalRevenue.Sub(priorRevenue).Div(priorRevenue).Mul(hundred))
	}
	return s
}

// Calculator binds Summarize to a clock and the configured monthly target.
type Calculator struct {
	clock  clock.Clock
	target decimal.Decimal
}

func NewCalculator(c clock.Clock, monthlyTarget decimal.Decimal) *Calculator {
	return &Calculator{clock: c, target: monthlyTarget}
}

func (c *Calculator) Summarize(txs []model.Transaction, filter TimeFilter) model.FinancialSummary {
	return Summarize(txs, filter, c.clock.Now(), c.target)
}
