package settings

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/payout"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type SettingsService struct {
	repo     SettingsRepository
	defaults model.PayoutConfiguration
	floor    decimal.Decimal
}

func NewSettingsService(repo SettingsRepository, cfg *config.PayoutConfig) *SettingsService {
	return &SettingsService{
		repo:     repo,
		defaults: Defaults(cfg),
		floor:    cfg.ThresholdFloor,
	}
}

// Defaults is the payout policy of a seller who never saved one.
func Defaults(cfg *config.PayoutConfig) model.PayoutConfiguration {
	return model.PayoutConfiguration{
		Method:            model.PayoutMethod(cfg.DefaultMethod),
		ScheduleFrequency: model.ScheduleFrequency(cfg.DefaultFrequency),
		ThresholdMinimum:  cfg.DefaultMinimum,
	}
}

// Get returns the seller's saved settings, or the platform defaults with no
// account details.
func (ss *SettingsService) Get(ctx context.Context, sellerID string) (*model.PayoutSettings, error) {
	s, err := ss.repo.Get(ctx, sellerID)
	if errors.Is(err, model.ErrNotFound) {
		middleware.GetLogger(ctx).Debug().Str("seller_id", sellerID).Msg("No payout settings saved, using defaults")
		return &model.PayoutSettings{SellerID: sellerID, Configuration: ss.defaults}, nil
	}
	return s, err
}

func (ss *SettingsService) Update(ctx context.Context, sellerID string, req *types.PayoutSettingsRequest) (*model.PayoutSettings, error) {
	if err := payout.ValidateConfiguration(req.Configuration, ss.floor); err != nil {
		return nil, err
	}

	s := &model.PayoutSettings{
		SellerID:       sellerID,
		Configuration:  req.Configuration,
		AccountDetails: req.AccountDetails,
	}
	if s.Configuration.Method == model.MethodThreshold {
		s.Configuration.ScheduleFrequency = ""
	} else {
		s.Configuration.ThresholdMinimum = decimal.Zero
		s.Configuration.ThresholdMaximum = decimal.NullDecimal{}
	}

	if err := ss.repo.Upsert(ctx, s); err != nil {
		return nil, err
	}
	middleware.GetLogger(ctx).Info().
		Str("seller_id", sellerID).
		Str("method", string(s.Configuration.Method)).
		Msg("Payout settings updated")
	return s, nil
}
