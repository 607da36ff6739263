package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/model"
)

// Ownership resolves which seller owns a listing.
type Ownership interface {
	OwnerOf(listingID string) (sellerID string, ok bool)
}

// OwnershipMap maps listing IDs to seller IDs.
type OwnershipMap map[string]string

func (m OwnershipMap) OwnerOf(listingID string) (string, bool) {
	sellerID, ok := m[listingID]
	return sellerID, ok
}

// Rank groups the seller's transactions by listing and orders the listings by
// total net earnings, then transaction count, then listing ID. Failed
// transactions are skipped. A listing the resolver does not know is
// attributed to the seller recorded on the transaction; a nil resolver
// always does that.
func Rank(txs []model.Transaction, sellerID string, owners Ownership) []model.ListingPerformance {
	byListing := make(map[string]*model.ListingPerformance)

	for i := range txs {
		tx := &txs[i]
		if tx.Status == model.StatusFailed || !ownedBy(tx, sellerID, owners) {
			continue
		}

		perf, ok := byListing[tx.ListingID]
		if !ok {
			perf = &model.ListingPerformance{ListingID: tx.ListingID, TotalEarnings: decimal.Zero}
			byListing[tx.ListingID] = perf
		}
		if perf.ListingName == "" {
			perf.ListingName = tx.ListingName
		}
		perf.TransactionCount++
		perf.TotalEarnings = perf.TotalEarnings.Add(tx.NetToSeller)
	}

	out := make([]model.ListingPerformance, 0, len(byListing))
	for _, perf := range byListing {
		perf.AverageTransaction = decimal.Zero
		if perf.TransactionCount > 0 {
			perf.AverageTransaction = fee.Round2(perf.TotalEarnings.Div(decimal.NewFromInt(int64(perf.TransactionCount))))
		}
		out = append(out, *perf)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.TotalEarnings.Cmp(b.TotalEarnings); c != 0 {
			return c > 0
		}
		if a.TransactionCount != b.TransactionCount {
			return a.TransactionCount > b.TransactionCount
		}
		return a.ListingID < b.ListingID
	})
	return out
}

// Top returns at most n entries of a ranking. n <= 0 returns all of them.
func Top(ranked []model.ListingPerformance, n int) []model.ListingPerformance {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

func ownedBy(tx *model.Transaction, sellerID string, owners Ownership) bool {
	if owners != nil {
		if owner, ok := owners.OwnerOf(tx.ListingID); ok {
			return owner == sellerID
		}
	}
	return tx.SellerID == sellerID
}
