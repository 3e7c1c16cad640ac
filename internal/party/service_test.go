package party

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	parties map[int64]Party
	entries map[int64]int
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{parties: map[int64]Party{}, entries: map[int64]int{}}
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Party, int, error) {
	var out []Party
	for _, p := range r.parties {
		if filters.Type != "" && p.Type != filters.Type && p.Type != TypeBoth {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Party, error) {
	p, ok := r.parties[id]
	if !ok {
		return Party{}, ErrNotFound
	}
	return p, nil
}

func (r *memRepo) Create(ctx context.Context, p Party) (Party, error) {
	for _, existing := range r.parties {
		if existing.Code == p.Code || existing.Name == p.Name {
			return Party{}, ErrDuplicate
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.Balance = p.OpeningBalance
	p.IsActive = true
	r.parties[p.ID] = p
	return p, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, p Party) error {
	if _, ok := r.parties[id]; !ok {
		return ErrNotFound
	}
	p.ID = id
	r.parties[id] = p
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.parties[id]; !ok {
		return ErrNotFound
	}
	delete(r.parties, id)
	return nil
}

func (r *memRepo) CountLedgerEntries(ctx context.Context, id int64) (int, error) {
	return r.entries[id], nil
}

func (r *memRepo) NextCode(ctx context.Context, t Type) (string, error) {
	return "PTY-00001", nil
}

func TestCreateDefaultsCodeAndBalance(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), CreatePartyRequest{Type: "supplier", Name: "Acme Traders", OpeningBalance: "1500.505"})
	require.NoError(t, err)
	require.Equal(t, "PTY-00001", p.Code)
	require.True(t, p.OpeningBalance.Equal(decimal.RequireFromString("1500.51")))
	require.True(t, p.Balance.Equal(p.OpeningBalance))
	require.True(t, p.IsActive)
}

func TestCreateRejectsBadType(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Create(context.Background(), CreatePartyRequest{Type: "vendor", Name: "X"})
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestCreateRejectsDuplicate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePartyRequest{Type: "customer", Code: "C1", Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePartyRequest{Type: "customer", Code: "C1", Name: "Acme"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestDeleteBlockedByLedgerHistory(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePartyRequest{Type: "customer", Name: "Acme"})
	require.NoError(t, err)
	repo.entries[p.ID] = 3

	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, ErrHasEntries)

	repo.entries[p.ID] = 0
	require.NoError(t, svc.Delete(ctx, p.ID))
}

func TestUpdatePatchesFields(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePartyRequest{Type: "customer", Name: "Acme", Phone: "111"})
	require.NoError(t, err)

	name := "Acme Retail"
	active := false
	updated, err := svc.Update(ctx, p.ID, UpdatePartyRequest{Name: &name, IsActive: &active})
	require.NoError(t, err)
	require.Equal(t, "Acme Retail", updated.Name)
	require.Equal(t, "111", updated.Phone)
	require.False(t, updated.IsActive)
}
