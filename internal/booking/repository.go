package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Niiaks/Ledgerly/internal/model"
)

type BookingRepository interface {
	Upcoming(ctx context.Context, sellerID string, after time.Time) ([]model.Booking, error)
}

type BookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{db: db}
}

// Upcoming lists the seller's confirmed bookings with an appointment after
// the given time, soonest first.
func (br *BookingRepo) Upcoming(ctx context.Context, sellerID string, after time.Time) ([]model.Booking, error) {
	rows, err := br.db.Query(ctx, `
		SELECT id, seller_id, listing_id, price, status, appointment_date
		FROM bookings
		WHERE seller_id = $1 AND status = $2 AND appointment_date > $3
		ORDER BY appointment_date, id`,
		sellerID, model.BookingConfirmed, after,
	)
	if err != nil {
		return nil, fmt.Errorf("upcoming bookings for %s: %w", sellerID, err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.Booking])
}
