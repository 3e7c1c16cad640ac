package expense

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	heads      map[int64]Head
	expenses   map[int64]Expense
	nextHeadID int64
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{heads: map[int64]Head{}, expenses: map[int64]Expense{}}
}

func (r *memRepo) ListHeads(ctx context.Context) ([]Head, error) {
	var out []Head
	for _, h := range r.heads {
		out = append(out, h)
	}
	return out, nil
}

func (r *memRepo) GetHead(ctx context.Context, id int64) (Head, error) {
	h, ok := r.heads[id]
	if !ok {
		return Head{}, ErrHeadNotFound
	}
	return h, nil
}

func (r *memRepo) CreateHead(ctx context.Context, h Head) (Head, error) {
	for _, existing := range r.heads {
		if existing.Name == h.Name {
			return Head{}, ErrDuplicate
		}
	}
	r.nextHeadID++
	h.ID = r.nextHeadID
	r.heads[h.ID] = h
	return h, nil
}

func (r *memRepo) UpdateHead(ctx context.Context, id int64, h Head) error {
	if _, ok := r.heads[id]; !ok {
		return ErrHeadNotFound
	}
	h.ID = id
	r.heads[id] = h
	return nil
}

func (r *memRepo) DeleteHead(ctx context.Context, id int64) error {
	if _, ok := r.heads[id]; !ok {
		return ErrHeadNotFound
	}
	delete(r.heads, id)
	return nil
}

func (r *memRepo) CountByHead(ctx context.Context, headID int64) (int, error) {
	count := 0
	for _, e := range r.expenses {
		if e.HeadID == headID {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	var out []Expense
	for _, e := range r.expenses {
		if filters.HeadID > 0 && e.HeadID != filters.HeadID {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return Expense{}, ErrNotFound
	}
	return e, nil
}

func (r *memRepo) Create(ctx context.Context, e Expense) (Expense, error) {
	r.nextID++
	e.ID = r.nextID
	r.expenses[e.ID] = e
	return e, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, e Expense) error {
	if _, ok := r.expenses[id]; !ok {
		return ErrNotFound
	}
	e.ID = id
	r.expenses[id] = e
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *memRepo) NextVoucher(ctx context.Context) (string, error) {
	return fmt.Sprintf("EXP-%05d", len(r.expenses)+1), nil
}

func (r *memRepo) Summary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	totals := map[int64]*SummaryRow{}
	for _, e := range r.expenses {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		row, ok := totals[e.HeadID]
		if !ok {
			row = &SummaryRow{HeadID: e.HeadID, HeadName: e.HeadName, Total: decimal.Zero}
			totals[e.HeadID] = row
		}
		row.Count++
		row.Total = row.Total.Add(e.Amount)
	}
	var out []SummaryRow
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedHead(t *testing.T, svc *Service, name string) Head {
	t.Helper()
	h, err := svc.CreateHead(context.Background(), HeadRequest{Name: name})
	require.NoError(t, err)
	return h
}

func TestCreateExpenseAssignsVoucher(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	h := seedHead(t, svc, "Utilities")

	e, err := svc.Create(context.Background(), 2, CreateExpenseRequest{
		HeadID: h.ID, Amount: "1250.755", Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, "EXP-00001", e.VoucherNo)
	require.Equal(t, "Utilities", e.HeadName)
	require.True(t, e.Amount.Equal(dec("1250.76")))
	require.Equal(t, int64(2), e.CreatedBy)
}

func TestCreateExpenseRejectsMissingHead(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Create(context.Background(), 0, CreateExpenseRequest{HeadID: 99, Amount: "10", Mode: "cash"})
	require.ErrorIs(t, err, ErrHeadNotFound)
}

func TestCreateExpenseRejectsBadAmount(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	h := seedHead(t, svc, "Rent")

	_, err := svc.Create(context.Background(), 0, CreateExpenseRequest{HeadID: h.ID, Amount: "0", Mode: "cash"})
	require.ErrorIs(t, err, ErrBadAmount)
}

func TestDeleteHeadBlockedWhenInUse(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	h := seedHead(t, svc, "Fuel")

	e, err := svc.Create(ctx, 0, CreateExpenseRequest{HeadID: h.ID, Amount: "300", Mode: "cash"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteHead(ctx, h.ID), ErrHeadInUse)

	require.NoError(t, svc.Delete(ctx, e.ID))
	require.NoError(t, svc.DeleteHead(ctx, h.ID))
}

func TestSummaryTotalsByHead(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	fuel := seedHead(t, svc, "Fuel")
	rent := seedHead(t, svc, "Rent")

	for _, amount := range []string{"100", "150.50"} {
		_, err := svc.Create(ctx, 0, CreateExpenseRequest{HeadID: fuel.ID, Amount: amount, Mode: "cash"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, 0, CreateExpenseRequest{HeadID: rent.ID, Amount: "5000", Mode: "bank"})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, summary, 2)
	byHead := map[int64]SummaryRow{}
	for _, row := range summary {
		byHead[row.HeadID] = row
	}
	require.Equal(t, 2, byHead[fuel.ID].Count)
	require.True(t, byHead[fuel.ID].Total.Equal(dec("250.50")))
	require.True(t, byHead[rent.ID].Total.Equal(dec("5000")))
}
