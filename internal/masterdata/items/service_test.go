package items

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	items  map[int64]Item
	moves  map[int64]int
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[int64]Item{}, moves: map[int64]int{}}
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	var out []Item
	for _, it := range r.items {
		if filters.LowStock && !it.LowStock() {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (r *memRepo) Create(ctx context.Context, item Item) (Item, error) {
	for _, existing := range r.items {
		if existing.Code == item.Code {
			return Item{}, ErrDuplicate
		}
	}
	r.nextID++
	item.ID = r.nextID
	item.IsActive = true
	r.items[item.ID] = item
	return item, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, item Item) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	item.ID = id
	r.items[id] = item
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) CountStockMoves(ctx context.Context, id int64) (int, error) {
	return r.moves[id], nil
}

func (r *memRepo) NextCode(ctx context.Context) (string, error) {
	return "ITM-00001", nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateParsesPrices(t *testing.T) {
	svc := NewService(newMemRepo())

	it, err := svc.Create(context.Background(), CreateItemRequest{
		Name: "Basmati Rice 5kg", Unit: "bag", CostPrice: "900.005", SalePrice: "1050", Stock: "20", MinStock: "5",
	})
	require.NoError(t, err)
	require.Equal(t, "ITM-00001", it.Code)
	require.True(t, it.CostPrice.Equal(dec("900.01")))
	require.True(t, it.Stock.Equal(dec("20")))
	require.False(t, it.LowStock())
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Create(context.Background(), CreateItemRequest{Name: "X", Unit: "pc", CostPrice: "-5"})
	require.ErrorIs(t, err, ErrBadNumber)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateItemRequest{Code: "R-1", Name: "Rice", Unit: "bag"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateItemRequest{Code: "R-1", Name: "Rice Again", Unit: "bag"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateLeavesStockAlone(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateItemRequest{Name: "Rice", Unit: "bag", Stock: "20"})
	require.NoError(t, err)

	name := "Rice Premium"
	sale := "1200"
	updated, err := svc.Update(ctx, it.ID, UpdateItemRequest{Name: &name, SalePrice: &sale})
	require.NoError(t, err)
	require.Equal(t, "Rice Premium", updated.Name)
	require.True(t, updated.SalePrice.Equal(dec("1200")))
	require.True(t, updated.Stock.Equal(dec("20")))
}

func TestDeleteBlockedByStockHistory(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateItemRequest{Name: "Rice", Unit: "bag"})
	require.NoError(t, err)
	repo.moves[it.ID] = 1

	require.ErrorIs(t, svc.Delete(ctx, it.ID), ErrHasMoves)

	repo.moves[it.ID] = 0
	require.NoError(t, svc.Delete(ctx, it.ID))
}

func TestLowStockFilter(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateItemRequest{Name: "Rice", Unit: "bag", Stock: "2", MinStock: "5"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateItemRequest{Code: "S-1", Name: "Sugar", Unit: "kg", Stock: "50", MinStock: "5"})
	require.NoError(t, err)

	low, total, err := svc.List(ctx, ListFilters{LowStock: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Rice", low[0].Name)
}
