package bank

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradepost-erp/tradepost/internal/ledger"
)

type memRepo struct {
	banks    map[int64]Bank
	accounts map[int64]ledger.AccountState
	entries  []ledger.Entry
	entryID  int64
	nextID   int64
	locked   []int64
}

func newMemRepo() *memRepo {
	return &memRepo{banks: map[int64]Bank{}, accounts: map[int64]ledger.AccountState{}}
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Bank, int, error) {
	var out []Bank
	for _, b := range r.banks {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Bank, error) {
	b, ok := r.banks[id]
	if !ok {
		return Bank{}, ErrNotFound
	}
	return b, nil
}

func (r *memRepo) Create(ctx context.Context, b Bank) (Bank, error) {
	for _, existing := range r.banks {
		if existing.AccountNo == b.AccountNo {
			return Bank{}, ErrDuplicate
		}
	}
	r.nextID++
	b.ID = r.nextID
	b.Balance = b.OpeningBalance
	b.IsActive = true
	r.banks[b.ID] = b
	r.accounts[b.ID] = ledger.AccountState{Balance: b.OpeningBalance}
	return b, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, b Bank) error {
	if _, ok := r.banks[id]; !ok {
		return ErrNotFound
	}
	b.ID = id
	r.banks[id] = b
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.banks[id]; !ok {
		return ErrNotFound
	}
	delete(r.banks, id)
	return nil
}

func (r *memRepo) CountLedgerEntries(ctx context.Context, id int64) (int, error) {
	count := 0
	for _, e := range r.entries {
		if e.AccountID == id {
			count++
		}
	}
	return count, nil
}

// WithTx simulates rollback by restoring account state when fn fails.
func (r *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error {
	accounts := make(map[int64]ledger.AccountState, len(r.accounts))
	for k, v := range r.accounts {
		accounts[k] = v
	}
	entries := append([]ledger.Entry(nil), r.entries...)

	if err := fn(ctx, (*memStore)(r)); err != nil {
		r.accounts = accounts
		r.entries = entries
		return err
	}
	return nil
}

type memStore memRepo

func (s *memStore) LockAccount(ctx context.Context, kind ledger.AccountKind, accountID int64) (ledger.AccountState, error) {
	state, ok := s.accounts[accountID]
	if !ok {
		return ledger.AccountState{}, ledger.ErrAccountNotFound
	}
	s.locked = append(s.locked, accountID)
	return state, nil
}

func (s *memStore) NextSeq(ctx context.Context, kind ledger.AccountKind, accountID int64) (int64, error) {
	var max int64
	for _, e := range s.entries {
		if e.AccountID == accountID && e.Seq > max {
			max = e.Seq
		}
	}
	return max + 1, nil
}

func (s *memStore) InsertEntry(ctx context.Context, entry ledger.Entry) (int64, error) {
	s.entryID++
	entry.ID = s.entryID
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *memStore) UpdateAccountBalance(ctx context.Context, kind ledger.AccountKind, accountID int64, state ledger.AccountState, fromVersion int64) error {
	current := s.accounts[accountID]
	if current.Version != fromVersion {
		return ledger.ErrVersionConflict
	}
	s.accounts[accountID] = state
	return nil
}

func (s *memStore) LatestEntry(ctx context.Context, kind ledger.AccountKind, accountID int64) (ledger.Entry, error) {
	var latest *ledger.Entry
	for i := range s.entries {
		if s.entries[i].AccountID != accountID {
			continue
		}
		if latest == nil || s.entries[i].Seq > latest.Seq {
			latest = &s.entries[i]
		}
	}
	if latest == nil {
		return ledger.Entry{}, ledger.ErrNoEntries
	}
	return *latest, nil
}

func (s *memStore) DeleteEntry(ctx context.Context, entryID int64) error {
	for i, e := range s.entries {
		if e.ID == entryID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNoEntries
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedBank(t *testing.T, svc *Service, opening string) Bank {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateBankRequest{
		Name: "HBL", AccountNo: "PK-001", OpeningBalance: opening,
	})
	require.NoError(t, err)
	return b
}

func TestDepositIncreasesBalance(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	b := seedBank(t, svc, "100")

	entry, err := svc.Deposit(context.Background(), b.ID, 1, MoveRequest{Amount: "250.50"})
	require.NoError(t, err)
	require.Equal(t, ledger.DirectionIncrease, entry.Direction)
	require.True(t, repo.accounts[b.ID].Balance.Equal(dec("350.50")))
}

func TestWithdrawRejectsInsufficientFunds(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	b := seedBank(t, svc, "100")
	ctx := context.Background()

	_, err := svc.Withdraw(ctx, b.ID, 1, MoveRequest{Amount: "150"})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.True(t, repo.accounts[b.ID].Balance.Equal(dec("100")))
	require.Empty(t, repo.entries)

	entry, err := svc.Withdraw(ctx, b.ID, 1, MoveRequest{Amount: "60"})
	require.NoError(t, err)
	require.True(t, entry.Balance.Equal(dec("40")))
}

func TestTransferMovesBothAccounts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	src := seedBank(t, svc, "500")
	dst, err := svc.Create(ctx, CreateBankRequest{Name: "UBL", AccountNo: "PK-002"})
	require.NoError(t, err)

	entries, err := svc.Transfer(ctx, 1, TransferRequest{
		FromBankID: src.ID, ToBankID: dst.ID, Amount: "200",
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entries[0].RefID, entries[1].RefID)
	require.True(t, repo.accounts[src.ID].Balance.Equal(dec("300")))
	require.True(t, repo.accounts[dst.ID].Balance.Equal(dec("200")))
}

func TestTransferRollsBackOnFailure(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	src := seedBank(t, svc, "500")

	// destination does not exist; the withdrawal must not survive
	_, err := svc.Transfer(context.Background(), 1, TransferRequest{
		FromBankID: src.ID, ToBankID: 999, Amount: "200",
	})
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	require.True(t, repo.accounts[src.ID].Balance.Equal(dec("500")))
	require.Empty(t, repo.entries)
}

func TestTransferLocksAccountsInAscendingOrder(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	first := seedBank(t, svc, "500")
	second, err := svc.Create(ctx, CreateBankRequest{Name: "UBL", AccountNo: "PK-002", OpeningBalance: "500"})
	require.NoError(t, err)

	// Move from the higher id to the lower one; the lower id must still be
	// locked first so opposite transfers cannot deadlock.
	repo.locked = nil
	_, err = svc.Transfer(ctx, 1, TransferRequest{
		FromBankID: second.ID, ToBankID: first.ID, Amount: "100",
	})
	require.NoError(t, err)
	require.NotEmpty(t, repo.locked)
	require.Equal(t, first.ID, repo.locked[0])
	require.Equal(t, second.ID, repo.locked[1])
}

func TestTransferRejectsSameAccount(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Transfer(context.Background(), 1, TransferRequest{FromBankID: 1, ToBankID: 1, Amount: "10"})
	require.ErrorIs(t, err, ErrSameAccount)
}

func TestDeleteBlockedByLedgerHistory(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	b := seedBank(t, svc, "100")
	ctx := context.Background()

	_, err := svc.Deposit(ctx, b.ID, 1, MoveRequest{Amount: "10"})
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(ctx, b.ID), ErrHasEntries)
}
