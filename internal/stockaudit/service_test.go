package stockaudit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memItem struct {
	name  string
	stock decimal.Decimal
}

type memRepo struct {
	audits      map[int64]Audit
	items       map[int64]memItem
	adjustments []Adjustment
	nextID      int64
	nextLineID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{audits: map[int64]Audit{}, items: map[int64]memItem{}}
}

func (r *memRepo) List(ctx context.Context, filters ListFilters) ([]Audit, int, error) {
	var out []Audit
	for _, a := range r.audits {
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Audit, error) {
	a, ok := r.audits[id]
	if !ok {
		return Audit{}, ErrNotFound
	}
	return a, nil
}

func (r *memRepo) buildLines(auditID int64, itemIDs []int64, physical map[int64]decimal.Decimal) ([]Line, error) {
	lines := make([]Line, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		it, ok := r.items[itemID]
		if !ok {
			return nil, ErrItemMissing
		}
		r.nextLineID++
		lines = append(lines, Line{
			ID:          r.nextLineID,
			AuditID:     auditID,
			ItemID:      itemID,
			ItemName:    it.name,
			SystemQty:   it.stock,
			PhysicalQty: physical[itemID],
			Difference:  physical[itemID].Sub(it.stock),
		})
	}
	return lines, nil
}

func (r *memRepo) Create(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error) {
	r.nextID++
	audit.ID = r.nextID
	audit.Status = StatusDraft
	audit.CreatedAt = time.Now()
	lines, err := r.buildLines(audit.ID, itemIDs, physical)
	if err != nil {
		return Audit{}, err
	}
	audit.Lines = lines
	r.audits[audit.ID] = audit
	return audit, nil
}

func (r *memRepo) UpdateDraft(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error) {
	current, ok := r.audits[audit.ID]
	if !ok || current.Status != StatusDraft {
		return Audit{}, ErrPosted
	}
	if itemIDs != nil {
		lines, err := r.buildLines(audit.ID, itemIDs, physical)
		if err != nil {
			return Audit{}, err
		}
		audit.Lines = lines
	}
	r.audits[audit.ID] = audit
	return audit, nil
}

func (r *memRepo) DeleteDraft(ctx context.Context, id int64) error {
	current, ok := r.audits[id]
	if !ok || current.Status != StatusDraft {
		return ErrPosted
	}
	delete(r.audits, id)
	return nil
}

func (r *memRepo) NextNumber(ctx context.Context) (string, error) {
	return fmt.Sprintf("SA-%05d", len(r.audits)+1), nil
}

func (r *memRepo) ListAdjustments(ctx context.Context, auditID int64) ([]Adjustment, error) {
	var out []Adjustment
	for _, adj := range r.adjustments {
		if adj.AuditID == auditID {
			out = append(out, adj)
		}
	}
	return out, nil
}

// WithTx simulates rollback by restoring state when fn fails.
func (r *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo TxRepository) error) error {
	audits := make(map[int64]Audit, len(r.audits))
	for k, v := range r.audits {
		audits[k] = v
	}
	items := make(map[int64]memItem, len(r.items))
	for k, v := range r.items {
		items[k] = v
	}
	adjustments := append([]Adjustment(nil), r.adjustments...)

	if err := fn(ctx, (*memTx)(r)); err != nil {
		r.audits = audits
		r.items = items
		r.adjustments = adjustments
		return err
	}
	return nil
}

type memTx memRepo

func (t *memTx) GetForUpdate(ctx context.Context, id int64) (Audit, error) {
	return (*memRepo)(t).Get(ctx, id)
}

func (t *memTx) MarkPosted(ctx context.Context, id int64) error {
	a, ok := t.audits[id]
	if !ok || a.Status != StatusDraft {
		return ErrAlreadyPosted
	}
	a.Status = StatusPosted
	t.audits[id] = a
	return nil
}

func (t *memTx) LockItem(ctx context.Context, itemID int64) (ItemSnapshot, error) {
	it, ok := t.items[itemID]
	if !ok {
		return ItemSnapshot{}, ErrItemMissing
	}
	return ItemSnapshot{ID: itemID, Name: it.name, Stock: it.stock}, nil
}

func (t *memTx) SetItemStock(ctx context.Context, itemID int64, qty decimal.Decimal) error {
	it, ok := t.items[itemID]
	if !ok {
		return ErrItemMissing
	}
	it.stock = qty
	t.items[itemID] = it
	return nil
}

func (t *memTx) InsertAdjustment(ctx context.Context, adj Adjustment) error {
	t.adjustments = append(t.adjustments, adj)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateSnapshotsSystemQty(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), 3, CreateAuditRequest{
		Lines: []LineRequest{{ItemID: 1, PhysicalQty: "15"}},
	})
	require.NoError(t, err)
	require.Equal(t, "SA-00001", a.AuditNo)
	require.Equal(t, StatusDraft, a.Status)
	require.Len(t, a.Lines, 1)
	require.True(t, a.Lines[0].SystemQty.Equal(dec("20")))
	require.True(t, a.Lines[0].Difference.Equal(dec("-5")))
}

func TestPostAppliesPhysicalQty(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, 0, CreateAuditRequest{Lines: []LineRequest{{ItemID: 1, PhysicalQty: "15"}}})
	require.NoError(t, err)

	posted, err := svc.Post(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.True(t, repo.items[1].stock.Equal(dec("15")))

	adjustments, err := svc.Adjustments(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	require.True(t, adjustments[0].OldQty.Equal(dec("20")))
	require.True(t, adjustments[0].NewQty.Equal(dec("15")))
}

func TestPostTwiceFails(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, 0, CreateAuditRequest{Lines: []LineRequest{{ItemID: 1, PhysicalQty: "15"}}})
	require.NoError(t, err)

	_, err = svc.Post(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.Post(ctx, a.ID)
	require.ErrorIs(t, err, ErrAlreadyPosted)
	require.Len(t, repo.adjustments, 1)
}

func TestPostAbortsOnMissingItem(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	repo.items[2] = memItem{name: "Sugar", stock: dec("10")}
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, 0, CreateAuditRequest{Lines: []LineRequest{
		{ItemID: 1, PhysicalQty: "15"},
		{ItemID: 2, PhysicalQty: "8"},
	}})
	require.NoError(t, err)

	delete(repo.items, 2)

	_, err = svc.Post(ctx, a.ID)
	require.ErrorIs(t, err, ErrItemMissing)
	// the aborted post leaves everything untouched
	require.True(t, repo.items[1].stock.Equal(dec("20")))
	require.Empty(t, repo.adjustments)
	require.Equal(t, StatusDraft, repo.audits[a.ID].Status)
}

func TestUpdateAndDeleteRejectPosted(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, 0, CreateAuditRequest{Lines: []LineRequest{{ItemID: 1, PhysicalQty: "15"}}})
	require.NoError(t, err)
	_, err = svc.Post(ctx, a.ID)
	require.NoError(t, err)

	remarks := "recount"
	_, err = svc.Update(ctx, a.ID, UpdateAuditRequest{Remarks: &remarks})
	require.ErrorIs(t, err, ErrPosted)
	require.ErrorIs(t, svc.Delete(ctx, a.ID), ErrPosted)
}

func TestCreateRejectsBadQty(t *testing.T) {
	repo := newMemRepo()
	repo.items[1] = memItem{name: "Rice", stock: dec("20")}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), 0, CreateAuditRequest{
		Lines: []LineRequest{{ItemID: 1, PhysicalQty: "-3"}},
	})
	require.ErrorIs(t, err, ErrBadQty)
}
