package payout

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Niiaks/Ledgerly/internal/model"
)

type PayoutRepository interface {
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]model.PayoutRecord, error)
}

type PayoutRepo struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{db: db}
}

const listPayoutsSQL = `
	SELECT p.id, p.seller_id, p.method, p.initiated_date, p.completed_date,
	       p.amount, p.withdrawal_fee, p.net_amount, p.status,
	       p.bank_name, p.account_last4, p.external_email,
	       p.created_at, p.updated_at,
	       COALESCE(array_agg(t.id ORDER BY t.seq) FILTER (WHERE t.id IS NOT NULL), '{}')
	FROM payouts p
	LEFT JOIN transactions t ON t.payout_id = p.id
	WHERE p.seller_id = $1
	GROUP BY p.id
	ORDER BY p.initiated_date DESC, p.id
	LIMIT $2`

func (pr *PayoutRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]model.PayoutRecord, error) {
	rows, err := pr.db.Query(ctx, listPayoutsSQL, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing payouts for %s: %w", sellerID, err)
	}
	defer rows.Close()

	var payouts []model.PayoutRecord
	for rows.Next() {
		var p model.PayoutRecord
		if err := rows.Scan(
			&p.ID, &p.SellerID, &p.Method, &p.InitiatedDate, &p.CompletedDate,
			&p.Amount, &p.WithdrawalFee, &p.NetAmount, &p.Status,
			&p.AccountDetails.BankName, &p.AccountDetails.AccountLast4, &p.AccountDetails.ExternalEmail,
			&p.CreatedAt, &p.UpdatedAt,
			&p.TransactionIDs,
		); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
