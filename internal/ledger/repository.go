package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradepost-erp/tradepost/internal/platform/db"
)

// Repository persists ledger entries and account balances in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func accountTable(kind AccountKind) (string, error) {
	switch kind {
	case KindParty:
		return "parties", nil
	case KindBank:
		return "banks", nil
	default:
		return "", ErrUnknownKind
	}
}

// WithTx executes the callback inside a repeatable-read transaction, handing it
// a transaction-scoped Store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgStore{tx: tx})
	})
}

// AccountSnapshot returns the read-side view of an account row.
func (r *Repository) AccountSnapshot(ctx context.Context, kind AccountKind, accountID int64) (AccountSnapshot, error) {
	table, err := accountTable(kind)
	if err != nil {
		return AccountSnapshot{}, err
	}
	var snap AccountSnapshot
	err = r.pool.QueryRow(ctx, `SELECT opening_balance, balance, version FROM `+table+` WHERE id=$1`, accountID).
		Scan(&snap.OpeningBalance, &snap.Balance, &snap.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountSnapshot{}, ErrAccountNotFound
		}
		return AccountSnapshot{}, err
	}
	return snap, nil
}

// ListEntries returns entries matching the filter ordered by (date, seq).
// A zero Limit replays the whole range: statement closing balances depend on
// every row, so truncation is strictly opt-in.
func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	query := `SELECT id, account_kind, account_id, seq, entry_date, direction, amount, discount, previous_balance, balance, ref_module, COALESCE(ref_id::text,''), narration, COALESCE(created_by, 0), created_at
FROM ledger_entries
WHERE account_kind=$1 AND account_id=$2
  AND entry_date >= COALESCE($3, '-infinity'::timestamptz)
  AND entry_date <= COALESCE($4, 'infinity'::timestamptz)
  AND ($5 = '' OR ref_module = $5)
ORDER BY entry_date ASC, seq ASC`
	args := []any{string(filter.Kind), filter.AccountID, nullTime(filter.From), nullTime(filter.To), filter.RefModule}
	if filter.Limit > 0 {
		query += ` LIMIT $6`
		args = append(args, filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AccountKind, &e.AccountID, &e.Seq, &e.Date, &e.Direction, &e.Amount, &e.Discount, &e.PreviousBalance, &e.Balance, &e.RefModule, &e.RefID, &e.Narration, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SignedSum replays the signed effect of all entries dated before the cutoff.
// A zero cutoff sums the full history.
func (r *Repository) SignedSum(ctx context.Context, kind AccountKind, accountID int64, before time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN direction='increase' THEN amount + discount ELSE -(amount + discount) END), 0)
FROM ledger_entries
WHERE account_kind=$1 AND account_id=$2 AND entry_date < COALESCE($3, 'infinity'::timestamptz)`,
		string(kind), accountID, nullTime(before)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// CountEntries returns the number of entries for an account.
func (r *Repository) CountEntries(ctx context.Context, kind AccountKind, accountID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_kind=$1 AND account_id=$2`, string(kind), accountID).Scan(&count)
	return count, err
}

// ListAccountIDs returns every account id of the given kind, for sweeps.
func (r *Repository) ListAccountIDs(ctx context.Context, kind AccountKind) ([]int64, error) {
	table, err := accountTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NewTxStore wraps an existing transaction in a Store so that callers can
// post ledger entries atomically alongside their own writes.
func NewTxStore(tx pgx.Tx) Store {
	return &pgStore{tx: tx}
}

type pgStore struct {
	tx pgx.Tx
}

var _ Store = (*pgStore)(nil)

func (s *pgStore) LockAccount(ctx context.Context, kind AccountKind, accountID int64) (AccountState, error) {
	table, err := accountTable(kind)
	if err != nil {
		return AccountState{}, err
	}
	var state AccountState
	err = s.tx.QueryRow(ctx, `SELECT balance, version FROM `+table+` WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&state.Balance, &state.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountState{}, ErrAccountNotFound
		}
		return AccountState{}, err
	}
	return state, nil
}

func (s *pgStore) NextSeq(ctx context.Context, kind AccountKind, accountID int64) (int64, error) {
	// Safe without a separate counter: the caller holds the account row lock.
	var seq int64
	err := s.tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_entries WHERE account_kind=$1 AND account_id=$2`,
		string(kind), accountID).Scan(&seq)
	return seq, err
}

func (s *pgStore) InsertEntry(ctx context.Context, entry Entry) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO ledger_entries (account_kind, account_id, seq, entry_date, direction, amount, discount, previous_balance, balance, ref_module, ref_id, narration, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW()) RETURNING id`,
		string(entry.AccountKind), entry.AccountID, entry.Seq, entry.Date, string(entry.Direction),
		entry.Amount, entry.Discount, entry.PreviousBalance, entry.Balance,
		entry.RefModule, nullUUID(entry.RefID), entry.Narration, nullInt(entry.CreatedBy)).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateAccountBalance(ctx context.Context, kind AccountKind, accountID int64, state AccountState, fromVersion int64) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}
	tag, err := s.tx.Exec(ctx, `UPDATE `+table+` SET balance=$1, version=$2, updated_at=NOW() WHERE id=$3 AND version=$4`,
		state.Balance, state.Version, accountID, fromVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *pgStore) LatestEntry(ctx context.Context, kind AccountKind, accountID int64) (Entry, error) {
	var e Entry
	err := s.tx.QueryRow(ctx, `SELECT id, account_kind, account_id, seq, entry_date, direction, amount, discount, previous_balance, balance, ref_module, COALESCE(ref_id::text,''), narration, COALESCE(created_by, 0), created_at
FROM ledger_entries WHERE account_kind=$1 AND account_id=$2 ORDER BY seq DESC LIMIT 1`,
		string(kind), accountID).
		Scan(&e.ID, &e.AccountKind, &e.AccountID, &e.Seq, &e.Date, &e.Direction, &e.Amount, &e.Discount, &e.PreviousBalance, &e.Balance, &e.RefModule, &e.RefID, &e.Narration, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNoEntries
		}
		return Entry{}, err
	}
	return e, nil
}

func (s *pgStore) DeleteEntry(ctx context.Context, entryID int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM ledger_entries WHERE id=$1`, entryID)
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullUUID(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
