package listing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Niiaks/Ledgerly/internal/ranking"
)

type ListingRepository interface {
	Owners(ctx context.Context, sellerID string, listingIDs []string) (ranking.OwnershipMap, error)
}

type ListingRepo struct {
	db *pgxpool.Pool
}

func NewListingRepository(db *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{db: db}
}

// Owners returns the current owner of every listing sellerID owns, plus of
// each listing in listingIDs.
func (lr *ListingRepo) Owners(ctx context.Context, sellerID string, listingIDs []string) (ranking.OwnershipMap, error) {
	rows, err := lr.db.Query(ctx, `
		SELECT id, seller_id FROM listings
		WHERE seller_id = $1 OR id = ANY($2)`, sellerID, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("listing owners for %s: %w", sellerID, err)
	}
	defer rows.Close()

	owners := ranking.OwnershipMap{}
	for rows.Next() {
		var id, owner string
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, err
		}
		owners[id] = owner
	}
	return owners, rows.Err()
}
