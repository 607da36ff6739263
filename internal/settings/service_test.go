package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type fakeRepo struct {
	saved map[string]*model.PayoutSettings
	err   error
}

func (f *fakeRepo) Get(ctx context.Context, sellerID string) (*model.PayoutSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.saved[sellerID]
	if !ok {
		return nil, fmt.Errorf("payout settings for %s: %w", sellerID, model.ErrNotFound)
	}
	return s, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, s *model.PayoutSettings) error {
	if f.err != nil {
		return f.err
	}
	f.saved[s.SellerID] = s
	return nil
}

func testPayoutConfig() *config.PayoutConfig {
	return &config.PayoutConfig{
		ThresholdFloor:   decimal.NewFromInt(10),
		DefaultMethod:    "schedule",
		DefaultFrequency: "bi-monthly",
		DefaultMinimum:   decimal.NewFromInt(50),
	}
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := NewSettingsService(&fakeRepo{saved: map[string]*model.PayoutSettings{}}, testPayoutConfig())

	s, err := svc.Get(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", s.SellerID)
	assert.Equal(t, model.MethodSchedule, s.Configuration.Method)
	assert.Equal(t, model.FrequencyBiMonthly, s.Configuration.ScheduleFrequency)
}

func TestGetPropagatesRepositoryErrors(t *testing.T) {
	svc := NewSettingsService(&fakeRepo{err: errors.New("connection reset")}, testPayoutConfig())

	_, err := svc.Get(context.Background(), "seller-1")
	assert.EqualError(t, err, "connection reset")
}

func TestUpdate(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*model.PayoutSettings{}}
	svc := NewSettingsService(repo, testPayoutConfig())

	s, err := svc.Update(context.Background(), "seller-1", &types.PayoutSettingsRequest{
		Configuration: model.PayoutConfiguration{
			Method:            model.MethodThreshold,
			ScheduleFrequency: model.FrequencyMonthly,
			ThresholdMinimum:  decimal.NewFromInt(100),
			ThresholdMaximum:  decimal.NewNullDecimal(decimal.NewFromInt(150)),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, s.Configuration.ScheduleFrequency, "unused fields are cleared")
	assert.Same(t, s, repo.saved["seller-1"])
}

func TestUpdateRejectsMinimumBelowFloor(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*model.PayoutSettings{}}
	svc := NewSettingsService(repo, testPayoutConfig())

	_, err := svc.Update(context.Background(), "seller-1", &types.PayoutSettingsRequest{
		Configuration: model.PayoutConfiguration{Method: model.MethodThreshold, ThresholdMinimum: decimal.NewFromInt(5)},
	})
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "threshold_minimum", cfgErr.Field)
	assert.Empty(t, repo.saved)
}

func TestHandlerUpdateSettings(t *testing.T) {
	svc := NewSettingsService(&fakeRepo{saved: map[string]*model.PayoutSettings{}}, testPayoutConfig())
	h := NewSettingsHandler(svc)

	r := chi.NewRouter()
	r.Get("/sellers/{sellerID}/payout-settings", h.GetSettings)
	r.Put("/sellers/{sellerID}/payout-settings", h.UpdateSettings)

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/sellers/seller-1/payout-settings", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := put(`{"configuration":{"method":"schedule","schedule_frequency":"monthly"},"account_details":{"account_last4":"4242"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = put(`{"configuration":{"method":"schedule","schedule_frequency":"weekly"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = put(`{"configuration":{"method":"schedule","schedule_frequency":"monthly"},"account_details":{"account_last4":"42"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/sellers/seller-1/payout-settings", nil)
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), `"schedule_frequency":"monthly"`)
}
