package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/platform/db"
	"github.com/tradepost-erp/tradepost/internal/party"
)

// PartyRef is the slice of a party row a posting needs.
type PartyRef struct {
	ID   int64
	Name string
	Type party.Type
}

// TxRepository is the transaction-scoped write contract. It lives and dies
// with the ledger.Store handed out by WithTx so that the voucher row and its
// ledger entry commit or roll back together.
type TxRepository interface {
	PartyRef(ctx context.Context, id int64) (PartyRef, error)
	NextNumber(ctx context.Context, kind Kind) (string, error)
	Insert(ctx context.Context, p Payment) (Payment, error)
	Get(ctx context.Context, id int64) (Payment, error)
	Delete(ctx context.Context, id int64) error
}

// Repository is the payments persistence contract.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Payment, int, error)
	Get(ctx context.Context, id int64) (Payment, error)
	Update(ctx context.Context, id int64, p Payment) error
	WithTx(ctx context.Context, fn func(ctx context.Context, repo TxRepository, store ledger.Store) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const paymentColumns = `p.id, p.payment_no, p.kind, p.payment_date, p.party_id,
	COALESCE(pt.name, ''), p.entry_id, p.previous_balance, p.amount,
	p.discount_percent, p.discount_amount, p.balance, p.payment_mode,
	COALESCE(p.bank_name, ''), COALESCE(p.cheque_no, ''), p.cheque_date,
	COALESCE(p.remarks, ''), COALESCE(p.created_by, 0), p.created_at, p.updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Number, &p.Kind, &p.Date, &p.PartyID, &p.PartyName,
		&p.EntryID, &p.PreviousBalance, &p.Amount, &p.DiscountPercent,
		&p.DiscountAmount, &p.Balance, &p.Mode, &p.BankName, &p.ChequeNo,
		&p.ChequeDate, &p.Remarks, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("payments: scan payment: %w", err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.Kind != "" {
		where += ` AND p.kind = $` + strconv.Itoa(argCount)
		args = append(args, filters.Kind)
		argCount++
	}
	if filters.PartyID > 0 {
		where += ` AND p.party_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.PartyID)
		argCount++
	}
	if filters.Mode != "" {
		where += ` AND p.payment_mode = $` + strconv.Itoa(argCount)
		args = append(args, filters.Mode)
		argCount++
	}
	if !filters.From.IsZero() {
		where += ` AND p.payment_date >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		where += ` AND p.payment_date <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
		argCount++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM payments p` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payments: count: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments p
		LEFT JOIN parties pt ON pt.id = p.party_id` + where +
		` ORDER BY p.payment_date DESC, p.id DESC
		 LIMIT $` + strconv.Itoa(argCount) + ` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("payments: list: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments p
		LEFT JOIN parties pt ON pt.id = p.party_id WHERE p.id = $1`, id)
	return scanPayment(row)
}

func (r *repository) Update(ctx context.Context, id int64, p Payment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET
			payment_mode = $1, bank_name = NULLIF($2, ''), cheque_no = NULLIF($3, ''),
			cheque_date = $4, remarks = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $6`,
		p.Mode, p.BankName, p.ChequeNo, p.ChequeDate, p.Remarks, id)
	if err != nil {
		return fmt.Errorf("payments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithTx runs fn inside one repeatable-read transaction, giving it a
// transaction-scoped payments repo and a ledger store over the same tx.
func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo TxRepository, store ledger.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx}, ledger.NewTxStore(tx))
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) PartyRef(ctx context.Context, id int64) (PartyRef, error) {
	var ref PartyRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, party_type FROM parties WHERE id = $1 AND is_active`, id).
		Scan(&ref.ID, &ref.Name, &ref.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartyRef{}, party.ErrNotFound
		}
		return PartyRef{}, fmt.Errorf("payments: party ref: %w", err)
	}
	return ref, nil
}

// NextNumber continues from the highest issued number so a deleted voucher's
// number is never reused against the unique constraint.
func (r *txRepository) NextNumber(ctx context.Context, kind Kind) (string, error) {
	var last int
	if err := r.tx.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(payment_no FROM '\d+$')::int), 0)
		FROM payments WHERE kind = $1`, kind).Scan(&last); err != nil {
		return "", fmt.Errorf("payments: next number: %w", err)
	}
	return fmt.Sprintf("%s-%05d", kind.NumberPrefix(), last+1), nil
}

func (r *txRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO payments
			(payment_no, kind, payment_date, party_id, entry_id, previous_balance,
			 amount, discount_percent, discount_amount, balance, payment_mode,
			 bank_name, cheque_no, cheque_date, remarks, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,''),NULLIF($13,''),$14,NULLIF($15,''),$16,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		p.Number, p.Kind, p.Date, p.PartyID, p.EntryID, p.PreviousBalance,
		p.Amount, p.DiscountPercent, p.DiscountAmount, p.Balance, p.Mode,
		p.BankName, p.ChequeNo, p.ChequeDate, p.Remarks, nullInt(p.CreatedBy)).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, fmt.Errorf("payments: insert: %w", err)
	}
	return p, nil
}

func (r *txRepository) Get(ctx context.Context, id int64) (Payment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments p
		LEFT JOIN parties pt ON pt.id = p.party_id WHERE p.id = $1 FOR UPDATE OF p`, id)
	return scanPayment(row)
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("payments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
