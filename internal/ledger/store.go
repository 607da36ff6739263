package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Niiaks/Ledgerly/internal/model"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotEligible          = errors.New("transaction not eligible for payout")
)

// Journal persists ledger changes. The store calls it inside its writer
// critical section and publishes the new snapshot only when it succeeds.
type Journal interface {
	Append(ctx context.Context, tx model.Transaction) error
	UpdateStatus(ctx context.Context, id string, from, to model.TransactionStatus, at time.Time) error
	AssignPayouts(ctx context.Context, payouts []model.PayoutRecord) error
}

// Snapshot is an immutable view of the ledger at one version.
type Snapshot struct {
	version uint64
	txs     []model.Transaction
	index   map[string]int
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) Len() int {
	return len(s.txs)
}

func (s *Snapshot) Get(id string) (model.Transaction, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return s.txs[i], true
}

// All returns a copy of every transaction in arrival order.
func (s *Snapshot) All() []model.Transaction {
	out := make([]model.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Snapshot) ForSeller(sellerID string) []model.Transaction {
	var out []model.Transaction
	for _, tx := range s.txs {
		if tx.SellerID == sellerID {
			out = append(out, tx)
		}
	}
	return out
}

// Eligible returns the seller's transactions that can be paid out at now,
// in arrival order.
func (s *Snapshot) Eligible(sellerID string, now time.Time) []model.Transaction {
	var out []model.Transaction
	for _, tx := range s.txs {
		if tx.SellerID == sellerID && tx.EligibleForPayout(now) {
			out = append(out, tx)
		}
	}
	return out
}

// SellersWithEligible lists, in first-seen order, the sellers that have at
// least one transaction payable at now.
func (s *Snapshot) SellersWithEligible(now time.Time) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range s.txs {
		if _, ok := seen[tx.SellerID]; ok || !tx.EligibleForPayout(now) {
			continue
		}
		seen[tx.SellerID] = struct{}{}
		out = append(out, tx.SellerID)
	}
	return out
}

func (s *Snapshot) clone(extra int) *Snapshot {
	next := &Snapshot{
		version: s.version + 1,
		txs:     make([]model.Transaction, len(s.txs), len(s.txs)+extra),
		index:   make(map[string]int, len(s.index)+extra),
	}
	copy(next.txs, s.txs)
	for k, v := range s.index {
		next.index[k] = v
	}
	return next
}

// Store is the append-only transaction ledger. Writers are serialised;
// readers take a Snapshot and never block.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	journal Journal
}

// NewStore returns an empty ledger. A nil journal keeps it in memory only.
func NewStore(journal Journal) *Store {
	s := &Store{journal: journal}
	s.current.Store(&Snapshot{index: map[string]int{}})
	return s
}

// Restore rebuilds a ledger from already persisted transactions. Every row is
// validated again.
func Restore(txs []model.Transaction, journal Journal) (*Store, error) {
	snap, err := buildSnapshot(txs, 1)
	if err != nil {
		return nil, err
	}

	s := &Store{journal: journal}
	s.current.Store(snap)
	return s, nil
}

// Reload replaces the ledger contents with txs, typically a fresh read of the
// journal made by another process. Readers holding older snapshots keep them.
func (s *Store) Reload(txs []model.Transaction) (*Snapshot, error) {
	return s.Refresh(context.Background(), func(context.Context) ([]model.Transaction, error) {
		return txs, nil
	})
}

// Refresh reloads the ledger from load while holding the writer lock, so no
// local write can land between the read and the swap.
func (s *Store) Refresh(ctx context.Context, load func(context.Context) ([]model.Transaction, error)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := buildSnapshot(txs, s.current.Load().version+1)
	if err != nil {
		return nil, err
	}
	s.current.Store(next)
	return next, nil
}

func buildSnapshot(txs []model.Transaction, version uint64) (*Snapshot, error) {
	snap := &Snapshot{
		version: version,
		txs:     make([]model.Transaction, 0, len(txs)),
		index:   make(map[string]int, len(txs)),
	}
	for i := range txs {
		tx := txs[i]
		if err := Validate(&tx); err != nil {
			return nil, err
		}
		if _, dup := snap.index[tx.ID]; dup {
			return nil, pkgerrors.Wrapf(ErrDuplicateTransaction, "restore %s", tx.ID)
		}
		snap.index[tx.ID] = len(snap.txs)
		snap.txs = append(snap.txs, tx)
	}
	return snap, nil
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Append records a new transaction. Its payout ID must be empty.
func (s *Store) Append(ctx context.Context, tx model.Transaction) (*Snapshot, error) {
	if err := Validate(&tx); err != nil {
		return nil, err
	}
	if tx.PayoutID != "" {
		return nil, pkgerrors.WithStack(&model.DataInvariantError{TransactionID: tx.ID, Reason: "new transaction already carries a payout"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if _, exists := cur.index[tx.ID]; exists {
		return nil, pkgerrors.Wrapf(ErrDuplicateTransaction, "append %s", tx.ID)
	}

	next := cur.clone(1)
	next.index[tx.ID] = len(next.txs)
	next.txs = append(next.txs, tx)

	if s.journal != nil {
		if err := s.journal.Append(ctx, tx); err != nil {
			return nil, fmt.Errorf("journal append %s: %w", tx.ID, err)
		}
	}
	s.current.Store(next)
	return next, nil
}

// Advance moves a transaction's status forward. Repeating the current status
// is a no-op so redelivered fulfillment events are harmless.
func (s *Store) Advance(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	i, ok := cur.index[id]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrTransactionNotFound, "advance %s", id)
	}
	from := cur.txs[i].Status
	if from == status {
		return cur, nil
	}
	if !from.CanTransitionTo(status) {
		return nil, pkgerrors.Wrapf(ErrInvalidTransition, "%s: %s -> %s", id, from, status)
	}

	next := cur.clone(0)
	next.txs[i].Status = status
	next.txs[i].UpdatedAt = at

	if s.journal != nil {
		if err := s.journal.UpdateStatus(ctx, id, from, status, at); err != nil {
			return nil, fmt.Errorf("journal status %s: %w", id, err)
		}
	}
	s.current.Store(next)
	return next, nil
}

// AssignPayouts stamps every transaction of every payout with its payout ID.
// The whole set is checked first: a transaction that is unknown, not
// completed, already paid, or claimed twice aborts the call and nothing is
// committed.
func (s *Store) AssignPayouts(ctx context.Context, payouts []model.PayoutRecord) (*Snapshot, error) {
	if len(payouts) == 0 {
		return s.Snapshot(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	claimed := make(map[string]string)
	for _, p := range payouts {
		for _, id := range p.TransactionIDs {
			i, ok := cur.index[id]
			if !ok {
				return nil, pkgerrors.Wrapf(ErrTransactionNotFound, "payout %s", p.ID)
			}
			tx := cur.txs[i]
			if tx.PayoutID != "" {
				return nil, pkgerrors.WithStack(&model.DoubleAssignmentError{TransactionID: id, ExistingPayoutID: tx.PayoutID, AttemptedPayoutID: p.ID})
			}
			if other, dup := claimed[id]; dup {
				return nil, pkgerrors.WithStack(&model.DoubleAssignmentError{TransactionID: id, ExistingPayoutID: other, AttemptedPayoutID: p.ID})
			}
			if tx.Status != model.StatusCompleted {
				return nil, pkgerrors.Wrapf(ErrNotEligible, "%s has status %s", id, tx.Status)
			}
			claimed[id] = p.ID
		}
	}

	next := cur.clone(0)
	for id, payoutID := range claimed {
		next.txs[next.index[id]].PayoutID = payoutID
	}

	if s.journal != nil {
		if err := s.journal.AssignPayouts(ctx, payouts); err != nil {
			return nil, fmt.Errorf("journal payouts: %w", err)
		}
	}
	s.current.Store(next)
	return next, nil
}
