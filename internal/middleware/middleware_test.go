package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/internal/server"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"data invariant", pkgerrors.WithStack(&model.DataInvariantError{TransactionID: "t-1", Reason: "net mismatch"}), http.StatusUnprocessableEntity},
		{"configuration", &model.ConfigurationError{Field: "method", Reason: "unknown"}, http.StatusUnprocessableEntity},
		{"double assignment", fmt.Errorf("run: %w", &model.DoubleAssignmentError{TransactionID: "t-1"}), http.StatusConflict},
		{"invalid transition", pkgerrors.Wrap(ledger.ErrInvalidTransition, "t-1"), http.StatusConflict},
		{"lock held", fmt.Errorf("payout: %w", redis.ErrLockHeld), http.StatusConflict},
		{"transaction not found", ledger.ErrTransactionNotFound, http.StatusNotFound},
		{"row not found", fmt.Errorf("settings seller-1: %w", model.ErrNotFound), http.StatusNotFound},
		{"rate limited", redis.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"anything else", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

type fakeLimiter struct {
	checkFn func(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error)
}

func (f *fakeLimiter) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error) {
	return f.checkFn(ctx, key, limit, window)
}

func TestRateLimit(t *testing.T) {
	calls := map[string]int64{}
	limiter := &fakeLimiter{checkFn: func(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error) {
		calls[key]++
		return &redis.RateLimitResult{
			Allowed:   calls[key] <= limit,
			Remaining: max(limit-calls[key], 0),
			ResetAt:   time.Now().Add(window),
		}, nil
	}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) })
	h := RateLimit(limiter, "payout-run", 2, time.Minute, func(r *http.Request) string {
		return r.Header.Get(SellerIDHeader)
	})(ok)

	send := func(seller string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(SellerIDHeader, seller)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusAccepted, send("seller-1").Code)
	assert.Equal(t, http.StatusAccepted, send("seller-1").Code)
	rec := send("seller-1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusAccepted, send("seller-2").Code)
	assert.Equal(t, int64(3), calls["payout-run:seller-1"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{checkFn: func(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error) {
		return nil, errors.New("connection refused")
	}}
	h := RateLimit(limiter, "x", 1, time.Minute, func(r *http.Request) string { return "k" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"whitespace", "req 42"},
		{"newline", "req-42\nX-Injected: 1"},
		{"too long", strings.Repeat("a", maxRequestIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEqual(t, tt.header, seen)
			assert.True(t, validRequestID(seen))
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "ev-7")
	assert.Equal(t, "ev-7", GetRequestIDFromContext(ctx))
	assert.Empty(t, GetRequestIDFromContext(context.Background()))
}

func TestAddTraceAttributeWithoutTransaction(t *testing.T) {
	assert.NotPanics(t, func() {
		AddTraceAttribute(context.Background(), "seller.id", "seller-1")
		AddTraceAttribute(context.Background(), "payout.count", 2)
	})
}

func TestPayoutRunLimitKeysOnSeller(t *testing.T) {
	var keys []string
	limiter := &fakeLimiter{checkFn: func(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error) {
		keys = append(keys, key)
		return &redis.RateLimitResult{Allowed: len(keys) <= int(limit), ResetAt: time.Now().Add(window)}, nil
	}}
	log := zerolog.Nop()
	s := server.NewServer(&config.Config{
		Payout: config.PayoutConfig{RunRateLimit: 1, RunRateLimitEvery: time.Minute},
	}, &log, nil, nil, nil)
	mw := NewMiddlewares(s, limiter)

	r := chi.NewRouter()
	r.With(mw.PayoutRunLimit).Post("/sellers/{sellerID}/payouts/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	send := func() int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sellers/seller-9/payouts/run", nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	assert.Equal(t, []string{"payout-run:seller-9", "payout-run:seller-9"}, keys)
}

func TestWriteErrorIncludesClientMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, fmt.Errorf("settings: %w", model.ErrNotFound), "payout settings unavailable")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "payout settings unavailable: settings: not found")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetLoggerDefaultsToNop(t *testing.T) {
	l := GetLogger(context.Background())
	require.NotNil(t, l)
	l.Info().Msg("discarded")
}
