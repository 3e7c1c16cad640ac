package bank

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/platform/db"
)

// Repository is the bank persistence contract. Money movements run through
// WithTx so the ledger entry and the cached balance commit together.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Bank, int, error)
	Get(ctx context.Context, id int64) (Bank, error)
	Create(ctx context.Context, b Bank) (Bank, error)
	Update(ctx context.Context, id int64, b Bank) error
	Delete(ctx context.Context, id int64) error
	CountLedgerEntries(ctx context.Context, id int64) (int, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const bankColumns = `id, bank_name, account_no, COALESCE(account_title, ''),
	opening_balance, balance, version, is_active, created_at, updated_at`

func scanBank(row pgx.Row) (Bank, error) {
	var b Bank
	err := row.Scan(&b.ID, &b.Name, &b.AccountNo, &b.AccountTitle,
		&b.OpeningBalance, &b.Balance, &b.Version, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bank{}, ErrNotFound
		}
		return Bank{}, fmt.Errorf("bank: scan bank: %w", err)
	}
	return b, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Bank, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.Search != "" {
		where += ` AND (bank_name ILIKE $` + strconv.Itoa(argCount) +
			` OR account_no ILIKE $` + strconv.Itoa(argCount) +
			` OR account_title ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM banks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bank: count: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}
	query := `SELECT ` + bankColumns + ` FROM banks` + where +
		` ORDER BY bank_name ASC LIMIT $` + strconv.Itoa(argCount) + ` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("bank: list: %w", err)
	}
	defer rows.Close()

	banks := make([]Bank, 0)
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, 0, err
		}
		banks = append(banks, b)
	}
	return banks, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Bank, error) {
	return scanBank(r.pool.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, b Bank) (Bank, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO banks
			(bank_name, account_no, account_title, opening_balance, balance, version, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $4, 0, TRUE, NOW(), NOW())
		RETURNING id, balance, version, is_active, created_at, updated_at`,
		b.Name, b.AccountNo, b.AccountTitle, b.OpeningBalance).
		Scan(&b.ID, &b.Balance, &b.Version, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Bank{}, ErrDuplicate
		}
		return Bank{}, fmt.Errorf("bank: create: %w", err)
	}
	return b, nil
}

func (r *repository) Update(ctx context.Context, id int64, b Bank) error {
	tag, err := r.pool.Exec(ctx, `UPDATE banks SET
			bank_name = $1, account_no = $2, account_title = NULLIF($3, ''),
			is_active = $4, updated_at = NOW()
		WHERE id = $5`,
		b.Name, b.AccountNo, b.AccountTitle, b.IsActive, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("bank: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bank: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountLedgerEntries(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries
		WHERE account_kind = 'bank' AND account_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("bank: count entries: %w", err)
	}
	return count, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, ledger.NewTxStore(tx))
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
