// Package dashboard serves the seller-facing read models: the financial
// summary, the earnings projection and the listing ranking. Everything is
// computed from one ledger snapshot per request.
package dashboard

import (
	"context"
	"time"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/projection"
	"github.com/Niiaks/Ledgerly/internal/ranking"
	"github.com/Niiaks/Ledgerly/internal/summary"
)

type Ledger interface {
	Snapshot() *ledger.Snapshot
}

type Listings interface {
	Owners(ctx context.Context, sellerID string, listingIDs []string) (ranking.OwnershipMap, error)
}

type Bookings interface {
	Upcoming(ctx context.Context, sellerID string, after time.Time) ([]model.Booking, error)
}

type DashboardService struct {
	ledger     Ledger
	listings   Listings
	bookings   Bookings
	calculator *summary.Calculator
	projector  *projection.Engine
	clock      clock.Clock
}

func NewDashboardService(l Ledger, listings Listings, bookings Bookings, calc *summary.Calculator, projector *projection.Engine, c clock.Clock) *DashboardService {
	return &DashboardService{
		ledger:     l,
		listings:   listings,
		bookings:   bookings,
		calculator: calc,
		projector:  projector,
		clock:      c,
	}
}

func (ds *DashboardService) Summary(ctx context.Context, sellerID string, filter summary.TimeFilter) model.FinancialSummary {
	return ds.calculator.Summarize(ds.ledger.Snapshot().ForSeller(sellerID), filter)
}

func (ds *DashboardService) Projection(ctx context.Context, sellerID, listingID string) (projection.Projection, error) {
	now := ds.clock.Now()
	bookings, err := ds.bookings.Upcoming(ctx, sellerID, now)
	if err != nil {
		return projection.Projection{}, err
	}
	return ds.projector.Project(bookings, listingID, now)
}

// TopListings ranks by current listing ownership, so a listing that changed
// hands counts for its new owner.
func (ds *DashboardService) TopListings(ctx context.Context, sellerID string, limit int) ([]model.ListingPerformance, error) {
	all := ds.ledger.Snapshot().All()

	seen := make(map[string]struct{})
	var listingIDs []string
	for _, tx := range all {
		if _, ok := seen[tx.ListingID]; ok || tx.SellerID != sellerID {
			continue
		}
		seen[tx.ListingID] = struct{}{}
		listingIDs = append(listingIDs, tx.ListingID)
	}

	owners, err := ds.listings.Owners(ctx, sellerID, listingIDs)
	if err != nil {
		return nil, err
	}

	var candidates []model.Transaction
	for _, tx := range all {
		if tx.SellerID == sellerID || owners[tx.ListingID] == sellerID {
			candidates = append(candidates, tx)
		}
	}
	return ranking.Top(ranking.Rank(candidates, sellerID, owners), limit), nil
}
