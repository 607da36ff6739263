// Package projection estimates what a seller will earn from bookings that are
// confirmed but have not happened yet.
package projection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
)

// Projection is an estimate. It assumes every counted booking completes as
// scheduled; cancellations before the appointment are not modelled.
type Projection struct {
	ListingID         string          `json:"listing_id,omitempty"`
	UpcomingBookings  int             `json:"upcoming_bookings"`
	ProjectedGross    decimal.Decimal `json:"projected_gross"`
	ProjectedFees     decimal.Decimal `json:"projected_fees"`
	ProjectedEarnings decimal.Decimal `json:"projected_earnings"`
	NextAppointment   *time.Time      `json:"next_appointment,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

type Engine struct {
	fees *fee.Model
}

func NewEngine(fees *fee.Model) *Engine {
	return &Engine{fees: fees}
}

// Project sums the net each confirmed future booking would earn under the
// current fee schedule. An empty listingID projects across all listings.
func (e *Engine) Project(bookings []model.Booking, listingID string, now time.Time) (Projection, error) {
	p := Projection{
		ListingID:         listingID,
		ProjectedGross:    decimal.Zero,
		ProjectedFees:     decimal.Zero,
		ProjectedEarnings: decimal.Zero,
		GeneratedAt:       now,
	}

	for _, b := range bookings {
		if b.Status != model.BookingConfirmed || !b.AppointmentDate.After(now) {
			continue
		}
		if listingID != "" && b.ListingID != listingID {
			continue
		}

		breakdown, err := e.fees.Compute(b.Price)
		if err != nil {
			return Projection{}, fmt.Errorf("projecting booking %s: %w", b.ID, err)
		}

		p.UpcomingBookings++
		p.ProjectedGross = p.ProjectedGross.Add(breakdown.Gross)
		p.ProjectedFees = p.ProjectedFees.Add(breakdown.TotalFees())
		p.ProjectedEarnings = p.ProjectedEarnings.Add(breakdown.NetToSeller)

		if p.NextAppointment == nil || b.AppointmentDate.Before(*p.NextAppointment) {
			at := b.AppointmentDate
			p.NextAppointment = &at
		}
	}
	return p, nil
}
