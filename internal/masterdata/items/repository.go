package items

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the item persistence contract.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Item, int, error)
	Get(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id int64, item Item) error
	Delete(ctx context.Context, id int64) error
	CountStockMoves(ctx context.Context, id int64) (int, error)
	NextCode(ctx context.Context) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, code, name, COALESCE(category, ''), unit, cost_price,
	sale_price, stock, min_stock, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Code, &it.Name, &it.Category, &it.Unit,
		&it.CostPrice, &it.SalePrice, &it.Stock, &it.MinStock, &it.IsActive,
		&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("items: scan item: %w", err)
	}
	return it, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.Search != "" {
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if filters.Category != "" {
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filters.Category)
		argCount++
	}
	if filters.LowStock {
		where += ` AND stock <= min_stock`
	}
	if filters.IsActive != nil {
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("items: count: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}
	query := `SELECT ` + itemColumns + ` FROM items` + where +
		` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount) + ` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("items: list: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO items
			(code, name, category, unit, cost_price, sale_price, stock, min_stock, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
		RETURNING id, is_active, created_at, updated_at`,
		item.Code, item.Name, item.Category, item.Unit, item.CostPrice,
		item.SalePrice, item.Stock, item.MinStock).
		Scan(&item.ID, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Item{}, ErrDuplicate
		}
		return Item{}, fmt.Errorf("items: create: %w", err)
	}
	return item, nil
}

func (r *repository) Update(ctx context.Context, id int64, item Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE items SET
			name = $1, category = NULLIF($2, ''), unit = $3, cost_price = $4,
			sale_price = $5, min_stock = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8`,
		item.Name, item.Category, item.Unit, item.CostPrice, item.SalePrice,
		item.MinStock, item.IsActive, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("items: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("items: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountStockMoves(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_adjustments WHERE item_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("items: count stock moves: %w", err)
	}
	return count, nil
}

// NextCode continues from the highest issued code; deleted items never free a
// code for reuse.
func (r *repository) NextCode(ctx context.Context) (string, error) {
	var last int
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(code FROM '\d+$')::int), 0)
		FROM items`).Scan(&last); err != nil {
		return "", fmt.Errorf("items: next code: %w", err)
	}
	return fmt.Sprintf("ITM-%05d", last+1), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
