package stockaudit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradepost-erp/tradepost/internal/platform/db"
)

// ItemSnapshot is the slice of an item row a draft line needs.
type ItemSnapshot struct {
	ID    int64
	Name  string
	Stock decimal.Decimal
}

// TxRepository is the transaction-scoped contract used while posting. The
// status CAS and every stock write commit or roll back together.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Audit, error)
	MarkPosted(ctx context.Context, id int64) error
	LockItem(ctx context.Context, itemID int64) (ItemSnapshot, error)
	SetItemStock(ctx context.Context, itemID int64, qty decimal.Decimal) error
	InsertAdjustment(ctx context.Context, adj Adjustment) error
}

// Repository is the stock audit persistence contract.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Audit, int, error)
	Get(ctx context.Context, id int64) (Audit, error)
	Create(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error)
	UpdateDraft(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error)
	DeleteDraft(ctx context.Context, id int64) error
	NextNumber(ctx context.Context) (string, error)
	ListAdjustments(ctx context.Context, auditID int64) ([]Adjustment, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, repo TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const auditColumns = `id, audit_no, audit_date, status, COALESCE(remarks, ''),
	COALESCE(created_by, 0), created_at, updated_at`

func scanAudit(row pgx.Row) (Audit, error) {
	var a Audit
	err := row.Scan(&a.ID, &a.AuditNo, &a.Date, &a.Status, &a.Remarks,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Audit{}, ErrNotFound
		}
		return Audit{}, fmt.Errorf("stockaudit: scan audit: %w", err)
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Audit, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.Status != "" {
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		where += ` AND audit_date >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		where += ` AND audit_date <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_audits`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("stockaudit: count: %w", err)
	}

	query := `SELECT ` + auditColumns + ` FROM stock_audits` + where +
		` ORDER BY audit_date DESC, id DESC LIMIT $` + strconv.Itoa(argCount) +
		` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("stockaudit: list: %w", err)
	}
	defer rows.Close()

	audits := make([]Audit, 0)
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, 0, err
		}
		audits = append(audits, a)
	}
	return audits, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Audit, error) {
	a, err := scanAudit(r.pool.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM stock_audits WHERE id = $1`, id))
	if err != nil {
		return Audit{}, err
	}
	a.Lines, err = r.lines(ctx, r.pool, id)
	return a, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) lines(ctx context.Context, q querier, auditID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, audit_id, item_id, item_name,
			system_qty, physical_qty, difference
		FROM stock_audit_lines WHERE audit_id = $1 ORDER BY id`, auditID)
	if err != nil {
		return nil, fmt.Errorf("stockaudit: lines: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.AuditID, &l.ItemID, &l.ItemName,
			&l.SystemQty, &l.PhysicalQty, &l.Difference); err != nil {
			return nil, fmt.Errorf("stockaudit: scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Create writes the draft header plus one line per item. System quantities
// are snapshotted from the item rows inside the same transaction, so the
// draft reflects one consistent view of the stock.
func (r *repository) Create(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return Audit{}, fmt.Errorf("stockaudit: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO stock_audits
			(audit_no, audit_date, status, remarks, created_by, created_at, updated_at)
		VALUES ($1, $2, 'draft', NULLIF($3, ''), $4, NOW(), NOW())
		RETURNING id, status, created_at, updated_at`,
		audit.AuditNo, audit.Date, audit.Remarks, nullInt(audit.CreatedBy)).
		Scan(&audit.ID, &audit.Status, &audit.CreatedAt, &audit.UpdatedAt)
	if err != nil {
		return Audit{}, fmt.Errorf("stockaudit: insert audit: %w", err)
	}

	audit.Lines, err = r.insertLines(ctx, tx, audit.ID, itemIDs, physical)
	if err != nil {
		return Audit{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Audit{}, fmt.Errorf("stockaudit: commit: %w", err)
	}
	return audit, nil
}

// UpdateDraft replaces the remarks and lines of a draft. The status guard is
// in the WHERE clause so a concurrently posted audit cannot be rewritten.
func (r *repository) UpdateDraft(ctx context.Context, audit Audit, itemIDs []int64, physical map[int64]decimal.Decimal) (Audit, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return Audit{}, fmt.Errorf("stockaudit: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE stock_audits
		SET remarks = NULLIF($1, ''), updated_at = NOW()
		WHERE id = $2 AND status = 'draft'`, audit.Remarks, audit.ID)
	if err != nil {
		return Audit{}, fmt.Errorf("stockaudit: update audit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Audit{}, ErrPosted
	}

	if itemIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM stock_audit_lines WHERE audit_id = $1`, audit.ID); err != nil {
			return Audit{}, fmt.Errorf("stockaudit: clear lines: %w", err)
		}
		audit.Lines, err = r.insertLines(ctx, tx, audit.ID, itemIDs, physical)
		if err != nil {
			return Audit{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Audit{}, fmt.Errorf("stockaudit: commit: %w", err)
	}
	return audit, nil
}

func (r *repository) insertLines(ctx context.Context, tx pgx.Tx, auditID int64, itemIDs []int64, physical map[int64]decimal.Decimal) ([]Line, error) {
	lines := make([]Line, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		var snap ItemSnapshot
		err := tx.QueryRow(ctx, `SELECT id, name, stock FROM items WHERE id = $1`, itemID).
			Scan(&snap.ID, &snap.Name, &snap.Stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrItemMissing
			}
			return nil, fmt.Errorf("stockaudit: snapshot item: %w", err)
		}
		line := Line{
			AuditID:     auditID,
			ItemID:      snap.ID,
			ItemName:    snap.Name,
			SystemQty:   snap.Stock,
			PhysicalQty: physical[itemID],
			Difference:  physical[itemID].Sub(snap.Stock),
		}
		err = tx.QueryRow(ctx, `INSERT INTO stock_audit_lines
				(audit_id, item_id, item_name, system_qty, physical_qty, difference)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			line.AuditID, line.ItemID, line.ItemName, line.SystemQty,
			line.PhysicalQty, line.Difference).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("stockaudit: insert line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *repository) DeleteDraft(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM stock_audits WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("stockaudit: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPosted
	}
	return nil
}

// NextNumber continues from the highest issued audit number; deleted drafts
// never free a number for reuse.
func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var last int
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(audit_no FROM '\d+$')::int), 0)
		FROM stock_audits`).Scan(&last); err != nil {
		return "", fmt.Errorf("stockaudit: next number: %w", err)
	}
	return fmt.Sprintf("SA-%05d", last+1), nil
}

func (r *repository) ListAdjustments(ctx context.Context, auditID int64) ([]Adjustment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, audit_id, item_id, old_qty, new_qty,
			COALESCE(reason, ''), created_at
		FROM stock_adjustments WHERE audit_id = $1 ORDER BY id`, auditID)
	if err != nil {
		return nil, fmt.Errorf("stockaudit: adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := make([]Adjustment, 0)
	for rows.Next() {
		var adj Adjustment
		if err := rows.Scan(&adj.ID, &adj.AuditID, &adj.ItemID, &adj.OldQty,
			&adj.NewQty, &adj.Reason, &adj.CreatedAt); err != nil {
			return nil, fmt.Errorf("stockaudit: scan adjustment: %w", err)
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

// WithTx runs fn inside one repeatable-read transaction for posting.
func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{parent: r, tx: tx})
	})
}

type txRepository struct {
	parent *repository
	tx     pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Audit, error) {
	a, err := scanAudit(r.tx.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM stock_audits WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Audit{}, err
	}
	a.Lines, err = r.parent.lines(ctx, r.tx, id)
	return a, err
}

// MarkPosted flips the status with a compare-and-set: a second concurrent
// post finds zero affected rows and fails instead of applying stock twice.
func (r *txRepository) MarkPosted(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE stock_audits
		SET status = 'posted', updated_at = NOW()
		WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("stockaudit: mark posted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyPosted
	}
	return nil
}

func (r *txRepository) LockItem(ctx context.Context, itemID int64) (ItemSnapshot, error) {
	var snap ItemSnapshot
	err := r.tx.QueryRow(ctx, `SELECT id, name, stock FROM items WHERE id = $1 FOR UPDATE`, itemID).
		Scan(&snap.ID, &snap.Name, &snap.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemSnapshot{}, ErrItemMissing
		}
		return ItemSnapshot{}, fmt.Errorf("stockaudit: lock item: %w", err)
	}
	return snap, nil
}

func (r *txRepository) SetItemStock(ctx context.Context, itemID int64, qty decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE items SET stock = $1, updated_at = NOW() WHERE id = $2`, qty, itemID)
	if err != nil {
		return fmt.Errorf("stockaudit: set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemMissing
	}
	return nil
}

func (r *txRepository) InsertAdjustment(ctx context.Context, adj Adjustment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_adjustments
			(audit_id, item_id, old_qty, new_qty, reason, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())`,
		adj.AuditID, adj.ItemID, adj.OldQty, adj.NewQty, adj.Reason)
	if err != nil {
		return fmt.Errorf("stockaudit: insert adjustment: %w", err)
	}
	return nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
