package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/redis"
)

type SettingsProvider interface {
	Get(ctx context.Context, sellerID string) (*model.PayoutSettings, error)
}

// Locker serialises payout runs for one seller across processes.
type Locker interface {
	Guard(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type Ledger interface {
	Snapshot() *ledger.Snapshot
	AssignPayouts(ctx context.Context, payouts []model.PayoutRecord) (*ledger.Snapshot, error)
}

type Service struct {
	ledger   Ledger
	settings SettingsProvider
	locker   Locker
	batcher  *Batcher
	repo     PayoutRepository
	clock    clock.Clock
	lockTTL  time.Duration
}

func NewService(l Ledger, settings SettingsProvider, locker Locker, batcher *Batcher, repo PayoutRepository, c clock.Clock, lockTTL time.Duration) *Service {
	return &Service{
		ledger:   l,
		settings: settings,
		locker:   locker,
		batcher:  batcher,
		repo:     repo,
		clock:    c,
		lockTTL:  lockTTL,
	}
}

// Run forms and commits the payouts currently due to sellerID. Either every
// payout in the returned plan is committed or none is.
func (s *Service) Run(ctx context.Context, sellerID string) (*Plan, error) {
	logger := middleware.GetLogger(ctx).With().Str("seller_id", sellerID).Logger()

	settings, err := s.settings.Get(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("loading payout settings: %w", err)
	}
	if err := ValidateConfiguration(settings.Configuration, s.batcher.floor); err != nil {
		return nil, err
	}

	release, err := s.locker.Guard(ctx, "payout:"+sellerID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("payout run for %s: %w", sellerID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("Failed to release payout lock")
		}
	}()

	now := s.clock.Now()
	snap := s.ledger.Snapshot()
	plan, err := s.batcher.Form(snap.Eligible(sellerID, now), settings.Configuration, now)
	if err != nil {
		return nil, err
	}
	if len(plan.Payouts) == 0 {
		logger.Debug().Int("carried", len(plan.Carried)).Msg("No payouts due")
		return plan, nil
	}

	for i := range plan.Payouts {
		plan.Payouts[i].AccountDetails = settings.AccountDetails
		plan.Payouts[i].CreatedAt = now
		plan.Payouts[i].UpdatedAt = now
	}

	if _, err := s.ledger.AssignPayouts(ctx, plan.Payouts); err != nil {
		var dupErr *model.DoubleAssignmentError
		if errors.As(err, &dupErr) {
			logger.Error().Stack().Err(err).Uint64("snapshot_version", snap.Version()).Msg("Payout run lost a race for a transaction")
		}
		return nil, fmt.Errorf("committing payouts: %w", err)
	}

	logger.Info().
		Int("payouts", len(plan.Payouts)).
		Int("transactions", len(plan.TransactionIDs())).
		Int("carried", len(plan.Carried)).
		Msg("Payouts committed")
	return plan, nil
}

// RunDue runs every seller that has something payable now. A seller whose
// lock is held elsewhere is skipped. The first other error is returned after
// all sellers were attempted.
func (s *Service) RunDue(ctx context.Context) (int, error) {
	logger := middleware.GetLogger(ctx)

	var (
		committed int
		firstErr  error
	)
	for _, sellerID := range s.ledger.Snapshot().SellersWithEligible(s.clock.Now()) {
		if err := ctx.Err(); err != nil {
			return committed, err
		}
		plan, err := s.Run(ctx, sellerID)
		switch {
		case errors.Is(err, redis.ErrLockHeld):
			logger.Info().Str("seller_id", sellerID).Msg("Payout run already in progress, skipping")
		case err != nil:
			logger.Error().Err(err).Str("seller_id", sellerID).Msg("Payout run failed")
			if firstErr == nil {
				firstErr = err
			}
		default:
			committed += len(plan.Payouts)
		}
	}
	return committed, firstErr
}

func (s *Service) List(ctx context.Context, sellerID string, limit int) ([]model.PayoutRecord, error) {
	return s.repo.ListBySeller(ctx, sellerID, limit)
}
