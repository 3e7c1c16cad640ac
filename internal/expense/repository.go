package expense

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the expense persistence contract.
type Repository interface {
	ListHeads(ctx context.Context) ([]Head, error)
	GetHead(ctx context.Context, id int64) (Head, error)
	CreateHead(ctx context.Context, h Head) (Head, error)
	UpdateHead(ctx context.Context, id int64, h Head) error
	DeleteHead(ctx context.Context, id int64) error
	CountByHead(ctx context.Context, headID int64) (int, error)

	List(ctx context.Context, filters ListFilters) ([]Expense, int, error)
	Get(ctx context.Context, id int64) (Expense, error)
	Create(ctx context.Context, e Expense) (Expense, error)
	Update(ctx context.Context, id int64, e Expense) error
	Delete(ctx context.Context, id int64) error
	NextVoucher(ctx context.Context) (string, error)
	Summary(ctx context.Context, from, to time.Time) ([]SummaryRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListHeads(ctx context.Context) ([]Head, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description, ''),
			created_at, updated_at
		FROM expense_heads ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("expense: list heads: %w", err)
	}
	defer rows.Close()

	heads := make([]Head, 0)
	for rows.Next() {
		var h Head
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("expense: scan head: %w", err)
		}
		heads = append(heads, h)
	}
	return heads, rows.Err()
}

func (r *repository) GetHead(ctx context.Context, id int64) (Head, error) {
	var h Head
	err := r.pool.QueryRow(ctx, `SELECT id, name, COALESCE(description, ''),
			created_at, updated_at
		FROM expense_heads WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Head{}, ErrHeadNotFound
		}
		return Head{}, fmt.Errorf("expense: get head: %w", err)
	}
	return h, nil
}

func (r *repository) CreateHead(ctx context.Context, h Head) (Head, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO expense_heads
			(name, description, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		h.Name, h.Description).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Head{}, ErrDuplicate
		}
		return Head{}, fmt.Errorf("expense: create head: %w", err)
	}
	return h, nil
}

func (r *repository) UpdateHead(ctx context.Context, id int64, h Head) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expense_heads SET
			name = $1, description = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3`, h.Name, h.Description, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("expense: update head: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHeadNotFound
	}
	return nil
}

func (r *repository) DeleteHead(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expense_heads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("expense: delete head: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHeadNotFound
	}
	return nil
}

func (r *repository) CountByHead(ctx context.Context, headID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE head_id = $1`, headID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("expense: count by head: %w", err)
	}
	return count, nil
}

const expenseColumns = `e.id, e.voucher_no, e.expense_date, e.head_id,
	COALESCE(h.name, ''), e.amount, e.payment_mode, COALESCE(e.remarks, ''),
	COALESCE(e.created_by, 0), e.created_at, e.updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.VoucherNo, &e.Date, &e.HeadID, &e.HeadName,
		&e.Amount, &e.Mode, &e.Remarks, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrNotFound
		}
		return Expense{}, fmt.Errorf("expense: scan expense: %w", err)
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.HeadID > 0 {
		where += ` AND e.head_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.HeadID)
		argCount++
	}
	if !filters.From.IsZero() {
		where += ` AND e.expense_date >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		where += ` AND e.expense_date <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses e`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("expense: count: %w", err)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses e
		LEFT JOIN expense_heads h ON h.id = e.head_id` + where +
		` ORDER BY e.expense_date DESC, e.id DESC
		 LIMIT $` + strconv.Itoa(argCount) + ` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("expense: list: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, e)
	}
	return expenses, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses e
		LEFT JOIN expense_heads h ON h.id = e.head_id WHERE e.id = $1`, id))
}

func (r *repository) Create(ctx context.Context, e Expense) (Expense, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO expenses
			(voucher_no, expense_date, head_id, amount, payment_mode, remarks, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		e.VoucherNo, e.Date, e.HeadID, e.Amount, e.Mode, e.Remarks, nullInt(e.CreatedBy)).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Expense{}, ErrHeadNotFound
		}
		return Expense{}, fmt.Errorf("expense: create: %w", err)
	}
	return e, nil
}

func (r *repository) Update(ctx context.Context, id int64, e Expense) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expenses SET
			expense_date = $1, head_id = $2, amount = $3, payment_mode = $4,
			remarks = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $6`,
		e.Date, e.HeadID, e.Amount, e.Mode, e.Remarks, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrHeadNotFound
		}
		return fmt.Errorf("expense: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("expense: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextVoucher continues from the highest issued voucher number; deletions
// never free a number for reuse.
func (r *repository) NextVoucher(ctx context.Context) (string, error) {
	var last int
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(voucher_no FROM '\d+$')::int), 0)
		FROM expenses`).Scan(&last); err != nil {
		return "", fmt.Errorf("expense: next voucher: %w", err)
	}
	return fmt.Sprintf("EXP-%05d", last+1), nil
}

func (r *repository) Summary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if !from.IsZero() {
		where += ` AND e.expense_date >= $` + strconv.Itoa(argCount)
		args = append(args, from)
		argCount++
	}
	if !to.IsZero() {
		where += ` AND e.expense_date <= $` + strconv.Itoa(argCount)
		args = append(args, to)
		argCount++
	}
	rows, err := r.pool.Query(ctx, `SELECT e.head_id, COALESCE(h.name, ''),
			COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		LEFT JOIN expense_heads h ON h.id = e.head_id`+where+`
		GROUP BY e.head_id, h.name
		ORDER BY SUM(e.amount) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("expense: summary: %w", err)
	}
	defer rows.Close()

	summary := make([]SummaryRow, 0)
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.HeadID, &row.HeadName, &row.Count, &row.Total); err != nil {
			return nil, fmt.Errorf("expense: scan summary: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
