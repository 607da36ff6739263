package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/testutil"
)

func TestRank(t *testing.T) {
	txs := []model.Transaction{
		testutil.NewTransaction("a-1", "100", testutil.WithListing("listing-a", "Harbour View Loft")),
		testutil.NewTransaction("a-2", "50", testutil.WithListing("listing-a", "Harbour View Loft")),
		testutil.NewTransaction("b-1", "200", testutil.WithListing("listing-b", "Pine Cabin")),
		testutil.NewTransaction("d-1", "100", testutil.WithListing("listing-d", "Studio")),
		testutil.NewTransaction("c-1", "100", testutil.WithListing("listing-c", "Garden Flat")),
		testutil.NewTransaction("c-2", "500", testutil.WithListing("listing-c", "Garden Flat"), testutil.WithStatus(model.StatusFailed)),
		testutil.NewTransaction("e-1", "900", testutil.WithListing("listing-e", "Elsewhere"), testutil.WithSeller("seller-2")),
		testutil.NewTransaction("x-1", "900", testutil.WithListing("listing-x", "Sold On")),
	}
	owners := OwnershipMap{"listing-x": "seller-2"}

	ranked := Rank(txs, testutil.SellerID, owners)

	require.Len(t, ranked, 4)
	ids := make([]string, len(ranked))
	for i, p := range ranked {
		ids[i] = p.ListingID
	}
	assert.Equal(t, []string{"listing-b", "listing-a", "listing-c", "listing-d"}, ids)

	a := ranked[1]
	assert.Equal(t, "Harbour View Loft", a.ListingName)
	assert.Equal(t, 2, a.TransactionCount)
	assert.True(t, testutil.Money("140.80").Equal(a.TotalEarnings))
	assert.True(t, testutil.Money("70.40").Equal(a.AverageTransaction))

	c := ranked[2]
	assert.Equal(t, 1, c.TransactionCount, "failed transactions are not ranked")
}

func TestRankTieBreaks(t *testing.T) {
	withNet := func(id, listing, net string) model.Transaction {
		tx := testutil.NewTransaction(id, "100", testutil.WithListing(listing, listing))
		tx.NetToSeller = testutil.Money(net)
		return tx
	}
	txs := []model.Transaction{
		withNet("1", "listing-z", "60"),
		withNet("2", "listing-y", "30"),
		withNet("3", "listing-y", "30"),
		withNet("4", "listing-x", "60"),
	}

	ranked := Rank(txs, testutil.SellerID, nil)

	require.Len(t, ranked, 3)
	assert.Equal(t, "listing-y", ranked[0].ListingID, "more transactions wins an earnings tie")
	assert.Equal(t, "listing-x", ranked[1].ListingID)
	assert.Equal(t, "listing-z", ranked[2].ListingID)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, testutil.SellerID, nil))
}

func TestTop(t *testing.T) {
	ranked := []model.ListingPerformance{{ListingID: "a"}, {ListingID: "b"}, {ListingID: "c"}}

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 10), 3)
	assert.Len(t, Top(ranked, 0), 3)
}
