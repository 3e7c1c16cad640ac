package ledger

import (
	"context"
	"time"
)

// Store is the transaction-scoped contract for balance-carrying posting.
// Implementations must guarantee that LockAccount serialises concurrent
// postings against the same account for the lifetime of the transaction.
type Store interface {
	LockAccount(ctx context.Context, kind AccountKind, accountID int64) (AccountState, error)
	NextSeq(ctx context.Context, kind AccountKind, accountID int64) (int64, error)
	InsertEntry(ctx context.Context, entry Entry) (int64, error)
	UpdateAccountBalance(ctx context.Context, kind AccountKind, accountID int64, state AccountState, fromVersion int64) error
	LatestEntry(ctx context.Context, kind AccountKind, accountID int64) (Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
}

// PostEntry posts one entry inside the caller's transaction: it locks the
// account, snapshots the previous balance, computes the new balance, assigns
// the next sequence number, and persists both the entry and the account row.
func PostEntry(ctx context.Context, store Store, input PostInput) (Entry, error) {
	if !input.Kind.Valid() {
		return Entry{}, ErrUnknownKind
	}
	if !input.Direction.Valid() {
		return Entry{}, ErrInvalidDirection
	}
	if input.Amount.IsNegative() {
		return Entry{}, ErrInvalidAmount
	}
	if input.Discount.IsNegative() {
		return Entry{}, ErrInvalidDiscount
	}
	if input.Amount.Add(input.Discount).IsZero() {
		return Entry{}, ErrInvalidAmount
	}

	state, err := store.LockAccount(ctx, input.Kind, input.AccountID)
	if err != nil {
		return Entry{}, err
	}
	seq, err := store.NextSeq(ctx, input.Kind, input.AccountID)
	if err != nil {
		return Entry{}, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	entry := Entry{
		AccountKind:     input.Kind,
		AccountID:       input.AccountID,
		Seq:             seq,
		Date:            date,
		Direction:       input.Direction,
		Amount:          input.Amount.Round(2),
		Discount:        input.Discount.Round(2),
		PreviousBalance: state.Balance,
		Balance:         Apply(state.Balance, input.Amount, input.Discount, input.Direction),
		RefModule:       input.RefModule,
		RefID:           input.RefID,
		Narration:       input.Narration,
		CreatedBy:       input.CreatedBy,
	}

	id, err := store.InsertEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = id

	next := AccountState{Balance: entry.Balance, Version: state.Version + 1}
	if err := store.UpdateAccountBalance(ctx, input.Kind, input.AccountID, next, state.Version); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ReverseEntry removes the entry and restores the balance snapshot it carried.
// Only the most recent entry of an account can be reversed: removing anything
// older would invalidate every later PreviousBalance snapshot.
func ReverseEntry(ctx context.Context, store Store, kind AccountKind, accountID, entryID int64) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, ErrUnknownKind
	}
	state, err := store.LockAccount(ctx, kind, accountID)
	if err != nil {
		return Entry{}, err
	}
	latest, err := store.LatestEntry(ctx, kind, accountID)
	if err != nil {
		return Entry{}, err
	}
	if latest.ID != entryID {
		return Entry{}, ErrNotLatestEntry
	}
	if err := store.DeleteEntry(ctx, latest.ID); err != nil {
		return Entry{}, err
	}
	next := AccountState{Balance: latest.PreviousBalance, Version: state.Version + 1}
	if err := store.UpdateAccountBalance(ctx, kind, accountID, next, state.Version); err != nil {
		return Entry{}, err
	}
	return latest, nil
}
