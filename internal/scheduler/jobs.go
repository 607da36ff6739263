package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/model"
)

type Loader interface {
	LoadAll(ctx context.Context) ([]model.Transaction, error)
}

type Refresher interface {
	Refresh(ctx context.Context, load func(context.Context) ([]model.Transaction, error)) (*ledger.Snapshot, error)
}

// LedgerRefreshJob replaces the in-memory ledger with the journal's
// contents, picking up writes made by other processes.
type LedgerRefreshJob struct {
	loader Loader
	store  Refresher
	log    zerolog.Logger
}

func NewLedgerRefreshJob(loader Loader, store Refresher, log zerolog.Logger) *LedgerRefreshJob {
	return &LedgerRefreshJob{loader: loader, store: store, log: log}
}

func (j *LedgerRefreshJob) Name() string {
	return "ledger_refresh"
}

func (j *LedgerRefreshJob) Run(ctx context.Context) error {
	snap, err := j.store.Refresh(ctx, j.loader.LoadAll)
	if err != nil {
		return fmt.Errorf("refreshing ledger: %w", err)
	}
	j.log.Debug().Int("transactions", snap.Len()).Uint64("version", snap.Version()).Msg("Ledger refreshed")
	return nil
}

type DueRunner interface {
	RunDue(ctx context.Context) (int, error)
}

// PayoutRunJob refreshes the ledger and then pays every seller with
// something due.
type PayoutRunJob struct {
	refresh Job
	payouts DueRunner
	log     zerolog.Logger
}

func NewPayoutRunJob(refresh Job, payouts DueRunner, log zerolog.Logger) *PayoutRunJob {
	return &PayoutRunJob{refresh: refresh, payouts: payouts, log: log}
}

func (j *PayoutRunJob) Name() string {
	return "payout_run"
}

func (j *PayoutRunJob) Run(ctx context.Context) error {
	if err := j.refresh.Run(ctx); err != nil {
		return err
	}
	committed, err := j.payouts.RunDue(ctx)
	j.log.Info().Int("payouts", committed).Msg("Payout run finished")
	return err
}
