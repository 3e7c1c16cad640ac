package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
	AccountSnapshot(ctx context.Context, kind AccountKind, accountID int64) (AccountSnapshot, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	SignedSum(ctx context.Context, kind AccountKind, accountID int64, before time.Time) (decimal.Decimal, error)
	CountEntries(ctx context.Context, kind AccountKind, accountID int64) (int, error)
	ListAccountIDs(ctx context.Context, kind AccountKind) ([]int64, error)
}

// Service coordinates balance-carrying posting and statement reconstruction.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Post records one entry in its own transaction.
func (s *Service) Post(ctx context.Context, input PostInput) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, store Store) error {
		var err error
		entry, err = PostEntry(ctx, store, input)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ReverseLast reverses the given entry if it is the account's most recent one.
func (s *Service) ReverseLast(ctx context.Context, kind AccountKind, accountID, entryID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, store Store) error {
		var err error
		entry, err = ReverseEntry(ctx, store, kind, accountID, entryID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Statement reconstructs the running ledger for one account over a date range.
// The opening balance is always replayed from stored entries rather than taken
// from the cached account balance, so the report cannot inherit drift.
func (s *Service) Statement(ctx context.Context, filter EntryFilter) (Statement, error) {
	if !filter.Kind.Valid() {
		return Statement{}, ErrUnknownKind
	}
	if filter.AccountID == 0 {
		return Statement{}, errors.New("ledger: account id required")
	}
	snap, err := s.repo.AccountSnapshot(ctx, filter.Kind, filter.AccountID)
	if err != nil {
		return Statement{}, err
	}

	opening := snap.OpeningBalance
	if !filter.From.IsZero() {
		prior, err := s.repo.SignedSum(ctx, filter.Kind, filter.AccountID, filter.From)
		if err != nil {
			return Statement{}, err
		}
		opening = opening.Add(prior).Round(2)
	}

	entries, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return Statement{}, err
	}

	stmt := Statement{
		Kind:    filter.Kind,
		Account: filter.AccountID,
		From:    filter.From,
		To:      filter.To,
		Opening: opening,
		Rows:    make([]StatementRow, 0, len(entries)),
	}
	running := opening
	for _, entry := range entries {
		row := StatementRow{Entry: entry, Debit: decimal.Zero, Credit: decimal.Zero}
		total := entry.Amount.Add(entry.Discount)
		if entry.Direction == DirectionIncrease {
			row.Debit = total
		} else {
			row.Credit = total
		}
		running = Apply(running, entry.Amount, entry.Discount, entry.Direction)
		row.Running = running
		stmt.Rows = append(stmt.Rows, row)
	}
	stmt.Closing = running
	return stmt, nil
}

// VerifyAccount replays the full entry history of an account and compares the
// result with the stored balance. Any drift means a posting bypassed the ledger.
func (s *Service) VerifyAccount(ctx context.Context, kind AccountKind, accountID int64) (VerifyReport, error) {
	snap, err := s.repo.AccountSnapshot(ctx, kind, accountID)
	if err != nil {
		return VerifyReport{}, err
	}
	sum, err := s.repo.SignedSum(ctx, kind, accountID, time.Time{})
	if err != nil {
		return VerifyReport{}, err
	}
	count, err := s.repo.CountEntries(ctx, kind, accountID)
	if err != nil {
		return VerifyReport{}, err
	}
	replayed := snap.OpeningBalance.Add(sum).Round(2)
	return VerifyReport{
		Kind:      kind,
		AccountID: accountID,
		Stored:    snap.Balance,
		Replayed:  replayed,
		Drift:     snap.Balance.Sub(replayed),
		Entries:   count,
	}, nil
}

// VerifyAll sweeps every account of the kind and returns reports with drift.
func (s *Service) VerifyAll(ctx context.Context, kind AccountKind) ([]VerifyReport, error) {
	ids, err := s.repo.ListAccountIDs(ctx, kind)
	if err != nil {
		return nil, err
	}
	var dirty []VerifyReport
	for _, id := range ids {
		report, err := s.VerifyAccount(ctx, kind, id)
		if err != nil {
			return dirty, err
		}
		if !report.Clean() {
			dirty = append(dirty, report)
		}
	}
	return dirty, nil
}
