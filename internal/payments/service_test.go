package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/party"
)

type memRepo struct {
	parties  map[int64]PartyRef
	payments map[int64]Payment
	nextID   int64

	accounts map[int64]ledger.AccountState
	entries  []ledger.Entry
	entryID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		parties:  map[int64]PartyRef{},
		payments: map[int64]Payment{},
		accounts: map[int64]ledger.AccountState{},
	}
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.payments {
		if filters.Kind != "" && p.Kind != filters.Kind {
			continue
		}
		if filters.PartyID > 0 && p.PartyID != filters.PartyID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, p Payment) error {
	if _, ok := r.payments[id]; !ok {
		return ErrNotFound
	}
	p.ID = id
	r.payments[id] = p
	return nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository, ledger.Store) error) error {
	return fn(ctx, r, (*memStore)(r))
}

func (r *memRepo) PartyRef(ctx context.Context, id int64) (PartyRef, error) {
	ref, ok := r.parties[id]
	if !ok {
		return PartyRef{}, party.ErrNotFound
	}
	return ref, nil
}

func (r *memRepo) NextNumber(ctx context.Context, kind Kind) (string, error) {
	last := 0
	for _, p := range r.payments {
		if p.Kind != kind {
			continue
		}
		var n int
		fmt.Sscanf(p.Number, kind.NumberPrefix()+"-%d", &n)
		if n > last {
			last = n
		}
	}
	return kind.NumberPrefix() + "-" + pad5(last+1), nil
}

func (r *memRepo) Insert(ctx context.Context, p Payment) (Payment, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	r.payments[p.ID] = p
	return p, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.payments[id]; !ok {
		return ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

type memStore memRepo

func (s *memStore) LockAccount(ctx context.Context, kind ledger.AccountKind, accountID int64) (ledger.AccountState, error) {
	state, ok := s.accounts[accountID]
	if !ok {
		return ledger.AccountState{}, ledger.ErrAccountNotFound
	}
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
		e := s.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if latest == nil || e.Seq > latest.Seq {
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

func pad5(n int) string {
	return fmt.Sprintf("%05d", n)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedParty(r *memRepo, id int64, t party.Type, balance string) {
	r.parties[id] = PartyRef{ID: id, Name: "Acme", Type: t}
	r.accounts[id] = ledger.AccountState{Balance: dec(balance)}
}

func TestCreateSettlesWithDiscount(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeSupplier, "1000")
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), KindSupplier, 7, CreatePaymentRequest{
		PartyID: 1, Amount: "500", DiscountPercent: "10", Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, "SP-00001", p.Number)
	require.True(t, p.DiscountAmount.Equal(dec("50")))
	require.True(t, p.PreviousBalance.Equal(dec("1000")))
	require.True(t, p.Balance.Equal(dec("450")))
	require.True(t, repo.accounts[1].Balance.Equal(dec("450")))
	require.Len(t, repo.entries, 1)
	require.Equal(t, ledger.DirectionDecrease, repo.entries[0].Direction)
	require.Equal(t, int64(7), repo.entries[0].CreatedBy)
}

func TestCreateAfterDeleteIssuesFreshNumber(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeSupplier, "1000")
	seedParty(repo, 2, party.TypeSupplier, "1000")
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{
		PartyID: 1, Amount: "100", Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, "SP-00001", first.Number)

	second, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{
		PartyID: 2, Amount: "100", Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, "SP-00002", second.Number)

	// First voucher is still its party's latest entry, so it can go.
	require.NoError(t, svc.Delete(ctx, KindSupplier, first.ID))

	third, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{
		PartyID: 1, Amount: "100", Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, "SP-00003", third.Number)
}

func TestCreateRejectsPartyMismatch(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeCustomer, "100")
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), KindSupplier, 0, CreatePaymentRequest{
		PartyID: 1, Amount: "50", Mode: "cash",
	})
	require.ErrorIs(t, err, ErrPartyMismatch)
	require.Empty(t, repo.payments)
	require.Empty(t, repo.entries)
}

func TestCreateRejectsBadDiscount(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeBoth, "100")
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), KindCustomer, 0, CreatePaymentRequest{
		PartyID: 1, Amount: "50", DiscountPercent: "120", Mode: "cash",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestDeleteRestoresBalance(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeSupplier, "1000")
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{
		PartyID: 1, Amount: "500", DiscountPercent: "10", Mode: "cash",
	})
	require.NoError(t, err)
	require.True(t, repo.accounts[1].Balance.Equal(dec("450")))

	require.NoError(t, svc.Delete(ctx, KindSupplier, p.ID))
	require.True(t, repo.accounts[1].Balance.Equal(dec("1000")))
	require.Empty(t, repo.payments)
	require.Empty(t, repo.entries)
}

func TestDeleteRejectsNonLatestEntry(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeSupplier, "1000")
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{PartyID: 1, Amount: "100", Mode: "cash"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{PartyID: 1, Amount: "200", Mode: "bank", BankName: "HBL"})
	require.NoError(t, err)

	err = svc.Delete(ctx, KindSupplier, first.ID)
	require.ErrorIs(t, err, ledger.ErrNotLatestEntry)
	require.Len(t, repo.payments, 2)
}

func TestUpdateKeepsMonetaryFieldsFrozen(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeCustomer, "300")
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, KindCustomer, 0, CreatePaymentRequest{PartyID: 1, Amount: "100", Mode: "cash"})
	require.NoError(t, err)

	mode := "cheque"
	chequeNo := "CH-991"
	updated, err := svc.Update(ctx, KindCustomer, p.ID, UpdatePaymentRequest{Mode: &mode, ChequeNo: &chequeNo})
	require.NoError(t, err)
	require.Equal(t, ModeCheque, updated.Mode)
	require.Equal(t, "CH-991", updated.ChequeNo)
	require.True(t, updated.Amount.Equal(dec("100")))
	require.True(t, updated.Balance.Equal(dec("200")))

	amount := "999"
	_, err = svc.Update(ctx, KindCustomer, p.ID, UpdatePaymentRequest{Amount: &amount})
	require.ErrorIs(t, err, ErrMonetaryEdit)

	discount := "5"
	_, err = svc.Update(ctx, KindCustomer, p.ID, UpdatePaymentRequest{Discount: &discount})
	require.ErrorIs(t, err, ErrMonetaryEdit)
}

func TestGetFiltersByKind(t *testing.T) {
	repo := newMemRepo()
	seedParty(repo, 1, party.TypeBoth, "500")
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, KindSupplier, 0, CreatePaymentRequest{PartyID: 1, Amount: "50", Mode: "cash"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, KindCustomer, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
