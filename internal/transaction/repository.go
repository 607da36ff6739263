package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"github.com/Niiaks/Ledgerly/internal/kafka"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

const uniqueViolation = "23505"

// TransactionRepo is the Postgres journal behind ledger.Store. Every write
// records its outbox event in the same database transaction.
type TransactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{
		db: db,
	}
}

const transactionColumns = `id, transaction_id, seller_id, type, amount, date, completion_date, available_date,
	platform_fee, payment_processing_fee, transaction_fee, net_to_seller, tax_amount, status,
	booking_id, order_id, listing_id, listing_name, payout_id, created_at, updated_at`

func (tr *TransactionRepo) Append(ctx context.Context, t model.Transaction) error {
	return pgx.BeginFunc(ctx, tr.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, transaction_id, seller_id, type, amount, date, completion_date, available_date,
				platform_fee, payment_processing_fee, transaction_fee, net_to_seller, tax_amount, status,
				booking_id, order_id, listing_id, listing_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			t.ID, t.TransactionID, t.SellerID, t.Type, t.Amount, t.Date, t.CompletionDate, t.AvailableDate,
			t.PlatformFee, t.PaymentProcessingFee, t.TransactionFee, t.NetToSeller, t.TaxAmount, t.Status,
			nullable(t.BookingID), nullable(t.OrderID), t.ListingID, t.ListingName, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return pkgerrors.Wrapf(ledger.ErrDuplicateTransaction, "%s (%s)", t.ID, pgErr.ConstraintName)
			}
			return err
		}

		return insertOutbox(ctx, tx, kafka.EventTransactionRecorded, t.SellerID, types.TransactionRecordedEvent{
			ID:            t.ID,
			SellerID:      t.SellerID,
			ListingID:     t.ListingID,
			Amount:        t.Amount,
			TotalFees:     t.TotalFees(),
			NetToSeller:   t.NetToSeller,
			Status:        t.Status,
			AvailableDate: t.AvailableDate,
		})
	})
}

// UpdateStatus moves id from one status to another. The row must still be in
// from; otherwise another process got there first.
func (tr *TransactionRepo) UpdateStatus(ctx context.Context, id string, from, to model.TransactionStatus, at time.Time) error {
	return pgx.BeginFunc(ctx, tr.db, func(tx pgx.Tx) error {
		var sellerID string
		err := tx.QueryRow(ctx, `
			UPDATE transactions SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
			RETURNING seller_id`,
			id, from, to, at,
		).Scan(&sellerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return pkgerrors.Wrapf(ledger.ErrInvalidTransition, "%s is no longer %s", id, from)
		}
		if err != nil {
			return err
		}

		return insertOutbox(ctx, tx, kafka.EventTransactionStatusChanged, sellerID, types.TransactionStatusChangedEvent{
			ID:        id,
			SellerID:  sellerID,
			From:      from,
			To:        to,
			ChangedAt: at,
		})
	})
}

// AssignPayouts inserts the payouts and claims their transactions. A
// transaction already claimed by any payout fails the whole call.
func (tr *TransactionRepo) AssignPayouts(ctx context.Context, payouts []model.PayoutRecord) error {
	return pgx.BeginFunc(ctx, tr.db, func(tx pgx.Tx) error {
		for _, p := range payouts {
			_, err := tx.Exec(ctx, `
				INSERT INTO payouts (id, seller_id, method, initiated_date, amount, withdrawal_fee, net_amount, status,
					bank_name, account_last4, external_email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				p.ID, p.SellerID, p.Method, p.InitiatedDate, p.Amount, p.WithdrawalFee, p.NetAmount, p.Status,
				p.AccountDetails.BankName, p.AccountDetails.AccountLast4, p.AccountDetails.ExternalEmail, p.CreatedAt, p.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert payout %s: %w", p.ID, err)
			}

			tag, err := tx.Exec(ctx, `
				UPDATE transactions SET payout_id = $1, updated_at = $3
				WHERE id = ANY($2) AND payout_id IS NULL AND status = 'completed'`,
				p.ID, p.TransactionIDs, p.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("claim transactions for %s: %w", p.ID, err)
			}
			if int(tag.RowsAffected()) != len(p.TransactionIDs) {
				return conflictFor(ctx, tx, p)
			}

			if err := insertOutbox(ctx, tx, kafka.EventPayoutCreated, p.SellerID, types.PayoutCreatedEvent{
				ID:             p.ID,
				SellerID:       p.SellerID,
				Method:         p.Method,
				InitiatedDate:  p.InitiatedDate,
				Amount:         p.Amount,
				WithdrawalFee:  p.WithdrawalFee,
				NetAmount:      p.NetAmount,
				TransactionIDs: p.TransactionIDs,
				AccountDetails: p.AccountDetails,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// conflictFor names the first transaction of p that could not be claimed.
func conflictFor(ctx context.Context, tx pgx.Tx, p model.PayoutRecord) error {
	var (
		id       string
		existing *string
	)
	err := tx.QueryRow(ctx, `
		SELECT id, payout_id FROM transactions
		WHERE id = ANY($1) AND payout_id IS DISTINCT FROM $2
		ORDER BY seq
		LIMIT 1`,
		p.TransactionIDs, p.ID,
	).Scan(&id, &existing)
	if errors.Is(err, pgx.ErrNoRows) {
		// Nothing is claimed elsewhere, so an ID is missing or listed twice.
		return pkgerrors.Wrapf(ledger.ErrTransactionNotFound, "payout %s", p.ID)
	}
	if err != nil {
		return err
	}
	if existing == nil {
		return pkgerrors.Wrapf(ledger.ErrNotEligible, "payout %s: %s", p.ID, id)
	}
	return pkgerrors.WithStack(&model.DoubleAssignmentError{
		TransactionID:     id,
		ExistingPayoutID:  *existing,
		AttemptedPayoutID: p.ID,
	})
}

// LoadAll reads every transaction in arrival order.
func (tr *TransactionRepo) LoadAll(ctx context.Context) ([]model.Transaction, error) {
	rows, err := tr.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTransaction)
}

func scanTransaction(row pgx.CollectableRow) (model.Transaction, error) {
	var (
		t                            model.Transaction
		bookingID, orderID, payoutID *string
	)
	err := row.Scan(
		&t.ID, &t.TransactionID, &t.SellerID, &t.Type, &t.Amount, &t.Date, &t.CompletionDate, &t.AvailableDate,
		&t.PlatformFee, &t.PaymentProcessingFee, &t.TransactionFee, &t.NetToSeller, &t.TaxAmount, &t.Status,
		&bookingID, &orderID, &t.ListingID, &t.ListingName, &payoutID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Transaction{}, err
	}
	t.BookingID = deref(bookingID)
	t.OrderID = deref(orderID)
	t.PayoutID = deref(payoutID)
	return t, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, partitionKey string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO transaction_outbox (event_type, payload, partition_key, correlation_id)
		VALUES ($1, $2, $3, $4)`,
		eventType, payload, partitionKey, middleware.GetRequestIDFromContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("insert outbox %s: %w", eventType, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
