package party

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines party data access.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Party, int, error)
	Get(ctx context.Context, id int64) (Party, error)
	Create(ctx context.Context, p Party) (Party, error)
	Update(ctx context.Context, id int64, p Party) error
	Delete(ctx context.Context, id int64) error
	CountLedgerEntries(ctx context.Context, id int64) (int, error)
	NextCode(ctx context.Context, t Type) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const partyColumns = `id, party_type, code, name, company_name, phone, email, address, opening_balance, balance, version, is_active, created_at, updated_at`

func scanParty(row pgx.Row) (Party, error) {
	var p Party
	err := row.Scan(&p.ID, &p.Type, &p.Code, &p.Name, &p.CompanyName, &p.Phone, &p.Email, &p.Address,
		&p.OpeningBalance, &p.Balance, &p.Version, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Party, int, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM parties WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Type != "" {
		argCount++
		cond := ` AND (party_type = $` + strconv.Itoa(argCount) + ` OR party_type = 'both')`
		query += cond
		countQuery += cond
		args = append(args, string(filters.Type))
	}
	if filters.Search != "" {
		argCount++
		cond := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + ` OR company_name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		parties = append(parties, p)
	}
	return parties, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Party, error) {
	p, err := scanParty(r.db.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Party{}, ErrNotFound
		}
		return Party{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Party) (Party, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO parties (party_type, code, name, company_name, phone, email, address, opening_balance, balance, version, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8,0,TRUE,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		string(p.Type), p.Code, p.Name, p.CompanyName, p.Phone, p.Email, p.Address, p.OpeningBalance).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Party{}, ErrDuplicate
		}
		return Party{}, err
	}
	p.Balance = p.OpeningBalance
	p.IsActive = true
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Party) error {
	tag, err := r.db.Exec(ctx, `UPDATE parties SET name=$1, company_name=$2, phone=$3, email=$4, address=$5, is_active=$6, updated_at=NOW() WHERE id=$7`,
		p.Name, p.CompanyName, p.Phone, p.Email, p.Address, p.IsActive, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parties WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountLedgerEntries(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_kind='party' AND account_id=$1`, id).Scan(&count)
	return count, err
}

// NextCode generates the next party code (CUS-00001 / SUP-00001).
func (r *repository) NextCode(ctx context.Context, t Type) (string, error) {
	prefix := "CUS"
	if t == TypeSupplier {
		prefix = "SUP"
	} else if t == TypeBoth {
		prefix = "PTY"
	}
	var last int
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(code FROM '\d+$')::int), 0)
		FROM parties WHERE code LIKE $1`, prefix+"-%").Scan(&last); err != nil {
		return "", err
	}
	return prefix + "-" + pad5(last+1), nil
}

func pad5(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
