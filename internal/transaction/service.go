package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/pkg/constants"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type Ledger interface {
	Snapshot() *ledger.Snapshot
	Append(ctx context.Context, tx model.Transaction) (*ledger.Snapshot, error)
	Advance(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (*ledger.Snapshot, error)
}

// Idempotency replays the first response for a repeated Idempotency-Key.
type Idempotency interface {
	CheckAndSetIdempotency(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	MarkIdempotencyFailed(ctx context.Context, key string) error
}

type TransactionService struct {
	ledger Ledger
	idem   Idempotency
	fees   *fee.Model
	clock  clock.Clock
	newID  func() string
}

func NewTransactionService(l Ledger, idem Idempotency, fees *fee.Model, c clock.Clock) *TransactionService {
	return &TransactionService{
		ledger: l,
		idem:   idem,
		fees:   fees,
		clock:  c,
		newID:  func() string { return uuid.New().String() },
	}
}

// Record computes the fees for a paid booking or order and appends it to the
// ledger. A repeated idempotency key returns the transaction recorded first.
func (ts *TransactionService) Record(ctx context.Context, request *types.RecordTransactionRequest, idempotencyKey string) (*model.Transaction, error) {
	logger := middleware.GetLogger(ctx)

	cached, err := ts.idem.CheckAndSetIdempotency(ctx, idempotencyKey, constants.IdempotencyTTL)
	if cached != nil {
		logger.Info().Str("idempotency_key", idempotencyKey).Msg("Returning cached transaction for idempotency key")
		var res model.Transaction
		if err := json.Unmarshal(cached, &res); err != nil {
			return nil, fmt.Errorf("decoding cached transaction: %w", err)
		}
		return &res, nil
	}
	if errors.Is(err, redis.ErrKeyExists) {
		logger.Warn().Str("idempotency_key", idempotencyKey).Msg("Request still in progress with same idempotency key")
		return nil, pkgerrors.Wrap(err, "request in progress, retry later")
	}
	if err != nil {
		return nil, fmt.Errorf("checking idempotency key: %w", err)
	}

	tx, err := ts.build(request)
	if err == nil {
		_, err = ts.ledger.Append(ctx, *tx)
	}
	if err != nil {
		if ferr := ts.idem.MarkIdempotencyFailed(ctx, idempotencyKey); ferr != nil {
			logger.Warn().Err(ferr).Msg("Failed to release idempotency key")
		}
		return nil, err
	}

	if body, err := json.Marshal(tx); err == nil {
		if err := ts.idem.MarkIdempotencyComplete(ctx, idempotencyKey, body, constants.IdempotencyTTL); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache transaction response")
		}
	}

	logger.Info().
		Str("transaction_id", tx.ID).
		Str("net_to_seller", tx.NetToSeller.StringFixed(2)).
		Msg("Transaction recorded")
	return tx, nil
}

func (ts *TransactionService) build(request *types.RecordTransactionRequest) (*model.Transaction, error) {
	breakdown, err := ts.fees.Compute(request.Amount)
	if err != nil {
		return nil, err
	}

	status := request.Status
	if status == "" {
		status = model.StatusPending
	}
	now := ts.clock.Now()
	return &model.Transaction{
		ID:                   ts.newID(),
		TransactionID:        request.TransactionID,
		SellerID:             request.SellerID,
		Type:                 request.Type,
		Amount:               request.Amount,
		Date:                 request.Date,
		CompletionDate:       request.CompletionDate,
		AvailableDate:        request.AvailableDate,
		PlatformFee:          breakdown.PlatformFee,
		PaymentProcessingFee: breakdown.PaymentProcessingFee,
		TransactionFee:       breakdown.TransactionFee,
		NetToSeller:          breakdown.NetToSeller,
		TaxAmount:            request.TaxAmount,
		Status:               status,
		BookingID:            request.BookingID,
		OrderID:              request.OrderID,
		ListingID:            request.ListingID,
		ListingName:          request.ListingName,
		Model:                model.Model{CreatedAt: now, UpdatedAt: now},
	}, nil
}

// UpdateStatus advances a transaction and returns it as now recorded.
func (ts *TransactionService) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus) (*model.Transaction, error) {
	snap, err := ts.ledger.Advance(ctx, id, status, ts.clock.Now())
	if err != nil {
		return nil, err
	}
	tx, _ := snap.Get(id)
	middleware.GetLogger(ctx).Info().Str("transaction_id", id).Str("status", string(status)).Msg("Transaction status updated")
	return &tx, nil
}

func (ts *TransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	tx, ok := ts.ledger.Snapshot().Get(id)
	if !ok {
		return nil, pkgerrors.Wrapf(ledger.ErrTransactionNotFound, "get %s", id)
	}
	return &tx, nil
}
