package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"github.com/Niiaks/Ledgerly/internal/model"
)

type SettingsRepository interface {
	Get(ctx context.Context, sellerID string) (*model.PayoutSettings, error)
	Upsert(ctx context.Context, settings *model.PayoutSettings) error
}

type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (sr *SettingsRepo) Get(ctx context.Context, sellerID string) (*model.PayoutSettings, error) {
	s := model.PayoutSettings{SellerID: sellerID}
	var frequency string
	err := sr.db.QueryRow(ctx, `
		SELECT method, schedule_frequency, threshold_minimum, threshold_maximum,
		       bank_name, account_last4, external_email, created_at, updated_at
		FROM payout_settings
		WHERE seller_id = $1`, sellerID,
	).Scan(
		&s.Configuration.Method, &frequency, &s.Configuration.ThresholdMinimum, &s.Configuration.ThresholdMaximum,
		&s.AccountDetails.BankName, &s.AccountDetails.AccountLast4, &s.AccountDetails.ExternalEmail,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.Wrapf(model.ErrNotFound, "payout settings for %s", sellerID)
	}
	if err != nil {
		return nil, err
	}
	s.Configuration.ScheduleFrequency = model.ScheduleFrequency(frequency)
	return &s, nil
}

func (sr *SettingsRepo) Upsert(ctx context.Context, s *model.PayoutSettings) error {
	return sr.db.QueryRow(ctx, `
		INSERT INTO payout_settings (seller_id, method, schedule_frequency, threshold_minimum, threshold_maximum,
			bank_name, account_last4, external_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (seller_id) DO UPDATE SET
			method = EXCLUDED.method,
			schedule_frequency = EXCLUDED.schedule_frequency,
			threshold_minimum = EXCLUDED.threshold_minimum,
			threshold_maximum = EXCLUDED.threshold_maximum,
			bank_name = EXCLUDED.bank_name,
			account_last4 = EXCLUDED.account_last4,
			external_email = EXCLUDED.external_email,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		s.SellerID, s.Configuration.Method, string(s.Configuration.ScheduleFrequency),
		s.Configuration.ThresholdMinimum, s.Configuration.ThresholdMaximum,
		s.AccountDetails.BankName, s.AccountDetails.AccountLast4, s.AccountDetails.ExternalEmail,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}
