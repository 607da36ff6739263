package projection

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/testutil"
)

var now = testutil.Now

func booking(id, listingID, price string, status model.BookingStatus, at time.Time) model.Booking {
	return model.Booking{
		ID:              id,
		SellerID:        testutil.SellerID,
		ListingID:       listingID,
		Price:           testutil.Money(price),
		Status:          status,
		AppointmentDate: at,
	}
}

func fixtures() []model.Booking {
	return []model.Booking{
		booking("b-1", "listing-1", "200", model.BookingConfirmed, now.Add(48*time.Hour)),
		booking("b-2", "listing-2", "100", model.BookingConfirmed, now.Add(24*time.Hour)),
		booking("b-3", "listing-1", "80", model.BookingPending, now.Add(24*time.Hour)),
		booking("b-4", "listing-1", "80", model.BookingConfirmed, now.Add(-time.Hour)),
		booking("b-5", "listing-2", "80", model.BookingCancelled, now.Add(72*time.Hour)),
		booking("b-6", "listing-2", "80", model.BookingConfirmed, now),
	}
}

func TestProjectMatchesFeeModel(t *testing.T) {
	fees := fee.NewModel(fee.DefaultSchedule())
	expected, err := fees.Compute(testutil.Money("200"))
	require.NoError(t, err)

	p, err := NewEngine(fees).Project(fixtures(), "listing-1", now)
	require.NoError(t, err)

	assert.Equal(t, 1, p.UpcomingBookings)
	assert.True(t, expected.NetToSeller.Equal(p.ProjectedEarnings), "projected %s", p.ProjectedEarnings)
	assert.True(t, testutil.Money("188.65").Equal(p.ProjectedEarnings))
	assert.Equal(t, "listing-1", p.ListingID)
}

func TestProjectAllListings(t *testing.T) {
	p, err := NewEngine(fee.NewModel(fee.DefaultSchedule())).Project(fixtures(), "", now)
	require.NoError(t, err)

	assert.Equal(t, 2, p.UpcomingBookings)
	assert.True(t, testutil.Money("300").Equal(p.ProjectedGross))
	assert.True(t, testutil.Money("17.30").Equal(p.ProjectedFees), "fees %s", p.ProjectedFees)
	assert.True(t, testutil.Money("282.70").Equal(p.ProjectedEarnings))
	require.NotNil(t, p.NextAppointment)
	assert.Equal(t, now.Add(24*time.Hour), *p.NextAppointment)
}

func TestProjectNothingUpcoming(t *testing.T) {
	p, err := NewEngine(fee.NewModel(fee.DefaultSchedule())).Project(nil, "", now)
	require.NoError(t, err)

	assert.Zero(t, p.UpcomingBookings)
	assert.True(t, p.ProjectedEarnings.IsZero())
	assert.Nil(t, p.NextAppointment)
}

func TestProjectPropagatesFeeErrors(t *testing.T) {
	engine := NewEngine(fee.NewModel(fee.DefaultSchedule()))

	_, err := engine.Project([]model.Booking{
		booking("tiny", "listing-1", "0.10", model.BookingConfirmed, now.Add(time.Hour)),
	}, "", now)
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Contains(t, err.Error(), "tiny")

	_, err = engine.Project([]model.Booking{
		booking("negative", "listing-1", "-5", model.BookingConfirmed, now.Add(time.Hour)),
	}, "", now)
	var invErr *model.DataInvariantError
	assert.True(t, errors.As(err, &invErr))
}
