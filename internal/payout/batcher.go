package payout

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
)

// Plan is the outcome of one batching pass.
type Plan struct {
	Payouts []model.PayoutRecord `json:"payouts"`
	// Carried lists eligible transactions left for a later run, in arrival order.
	Carried []string `json:"carried"`
}

// TransactionIDs returns every transaction claimed by the plan.
func (p *Plan) TransactionIDs() []string {
	var ids []string
	for _, po := range p.Payouts {
		ids = append(ids, po.TransactionIDs...)
	}
	return ids
}

type Batcher struct {
	fees     *fee.Model
	floor    decimal.Decimal
	location *time.Location
	newID    func() string
	logger   zerolog.Logger
}

func NewBatcher(fees *fee.Model, floor decimal.Decimal, location *time.Location, logger zerolog.Logger) *Batcher {
	if location == nil {
		location = time.UTC
	}
	return &Batcher{
		fees:     fees,
		floor:    floor,
		location: location,
		newID:    func() string { return uuid.New().String() },
		logger:   logger.With().Str("component", "payout_batcher").Logger(),
	}
}

// Form groups the eligible transactions in txs into payouts under cfg.
// Transactions that are not completed or not yet available are ignored. One
// that already belongs to a payout, or that appears twice, is a
// DoubleAssignmentError and nothing is formed.
func (b *Batcher) Form(txs []model.Transaction, cfg model.PayoutConfiguration, now time.Time) (*Plan, error) {
	if err := ValidateConfiguration(cfg, b.floor); err != nil {
		return nil, err
	}

	eligible, err := b.eligible(txs, now)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return &Plan{}, nil
	}

	var (
		batches [][]model.Transaction
		dates   []time.Time
		carried []model.Transaction
	)
	switch cfg.Method {
	case model.MethodSchedule:
		batches, dates, carried, err = b.bySchedule(eligible, cfg.ScheduleFrequency, now)
		if err != nil {
			return nil, err
		}
	case model.MethodThreshold:
		batches, carried = b.byThreshold(eligible, cfg.ThresholdMinimum, cfg.ThresholdMaximum)
		dates = make([]time.Time, len(batches))
		for i := range dates {
			dates[i] = now
		}
	}

	plan := &Plan{Payouts: make([]model.PayoutRecord, 0, len(batches))}
	for i, batch := range batches {
		plan.Payouts = append(plan.Payouts, b.record(batch, cfg.Method, dates[i]))
	}
	arrival := make(map[string]int, len(eligible))
	for i, tx := range eligible {
		arrival[tx.ID] = i
	}
	sort.SliceStable(carried, func(i, j int) bool {
		return arrival[carried[i].ID] < arrival[carried[j].ID]
	})
	for _, tx := range carried {
		plan.Carried = append(plan.Carried, tx.ID)
	}
	sort.SliceStable(plan.Payouts, func(i, j int) bool {
		return plan.Payouts[i].InitiatedDate.Before(plan.Payouts[j].InitiatedDate)
	})
	return plan, nil
}

func (b *Batcher) eligible(txs []model.Transaction, now time.Time) ([]model.Transaction, error) {
	seen := make(map[string]struct{}, len(txs))
	var (
		out    []model.Transaction
		seller string
	)
	for _, tx := range txs {
		if _, dup := seen[tx.ID]; dup {
			return nil, pkgerrors.WithStack(&model.DoubleAssignmentError{TransactionID: tx.ID, ExistingPayoutID: tx.PayoutID})
		}
		seen[tx.ID] = struct{}{}
		if tx.PayoutID != "" {
			return nil, pkgerrors.WithStack(&model.DoubleAssignmentError{TransactionID: tx.ID, ExistingPayoutID: tx.PayoutID})
		}
		if !tx.EligibleForPayout(now) {
			continue
		}
		if seller == "" {
			seller = tx.SellerID
		} else if tx.SellerID != seller {
			return nil, fmt.Errorf("payout batch spans sellers %s and %s", seller, tx.SellerID)
		}
		out = append(out, tx)
	}
	return out, nil
}

// bySchedule sweeps, for every schedule date up to now, everything that had
// become available by that date. Dates with nothing to pay are skipped.
func (b *Batcher) bySchedule(txs []model.Transaction, freq model.ScheduleFrequency, now time.Time) ([][]model.Transaction, []time.Time, []model.Transaction, error) {
	sched, err := scheduleFor(freq)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		batches [][]model.Transaction
		dates   []time.Time
	)
	remaining := txs
	for len(remaining) > 0 {
		earliest := remaining[0].AvailableDate
		for _, tx := range remaining[1:] {
			if tx.AvailableDate.Before(earliest) {
				earliest = tx.AvailableDate
			}
		}
		date := sched.Next(earliest.In(b.location).Add(-time.Nanosecond))
		if date.After(now) {
			break
		}

		var batch, rest []model.Transaction
		for _, tx := range remaining {
			if tx.AvailableDate.After(date) {
				rest = append(rest, tx)
			} else {
				batch = append(batch, tx)
			}
		}
		batches = append(batches, batch)
		dates = append(dates, date)
		remaining = rest
	}
	return batches, dates, remaining, nil
}

// byThreshold accumulates transactions in arrival order. Without a maximum a
// batch closes as soon as it reaches the minimum. With a maximum the batch
// keeps filling; a transaction that would overflow it closes the batch when
// the minimum is already met, and otherwise waits for the next batch while
// later transactions keep filling this one. A batch that still falls short
// is retried with the deferred transactions first. Transactions are never
// split.
func (b *Batcher) byThreshold(txs []model.Transaction, minimum decimal.Decimal, maximum decimal.NullDecimal) ([][]model.Transaction, []model.Transaction) {
	var (
		batches  [][]model.Transaction
		carried  []model.Transaction
		oversize []model.Transaction
	)

	pending := txs
	retries := 0
	for len(pending) > 0 {
		var batch, rest []model.Transaction
		running := decimal.Zero
		closed := false

		for _, tx := range pending {
			if closed {
				rest = append(rest, tx)
				continue
			}
			if maximum.Valid {
				if tx.NetToSeller.GreaterThan(maximum.Decimal) {
					oversize = append(oversize, tx)
					continue
				}
				if running.Add(tx.NetToSeller).GreaterThan(maximum.Decimal) {
					if running.GreaterThanOrEqual(minimum) {
						closed = true
					}
					rest = append(rest, tx)
					continue
				}
			}
			batch = append(batch, tx)
			running = running.Add(tx.NetToSeller)
			if !maximum.Valid && running.GreaterThanOrEqual(minimum) {
				closed = true
			}
		}

		if len(batch) == 0 || running.LessThan(minimum) {
			// Deferred transactions get to lead the next attempt.
			if len(rest) > 0 && retries < len(pending)-1 {
				retries++
				pending = append(rest, batch...)
				continue
			}
			carried = append(batch, rest...)
			break
		}
		batches = append(batches, batch)
		pending = rest
		retries = 0
	}

	for _, tx := range oversize {
		b.logger.Warn().
			Str("transaction_id", tx.ID).
			Str("net_to_seller", tx.NetToSeller.StringFixed(2)).
			Str("threshold_maximum", maximum.Decimal.StringFixed(2)).
			Msg("Transaction exceeds payout maximum on its own, carrying it")
	}
	return batches, append(carried, oversize...)
}

func (b *Batcher) record(batch []model.Transaction, method model.PayoutMethod, initiated time.Time) model.PayoutRecord {
	amount := decimal.Zero
	ids := make([]string, 0, len(batch))
	for _, tx := range batch {
		amount = amount.Add(tx.NetToSeller)
		ids = append(ids, tx.ID)
	}
	withdrawal := b.fees.WithdrawalFee(amount)

	return model.PayoutRecord{
		ID:             b.newID(),
		SellerID:       batch[0].SellerID,
		Method:         method,
		InitiatedDate:  initiated,
		Amount:         amount,
		WithdrawalFee:  withdrawal,
		NetAmount:      amount.Sub(withdrawal),
		TransactionIDs: ids,
		Status:         model.PayoutPending,
	}
}
