package syslog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Log levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Entry is one append-only system log record. Entries are never updated or
// edited; retention cleanup is the only delete path.
type Entry struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Level  string
	Type   string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Store persists system log entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Record appends one entry. A nil store is a no-op so callers can log
// unconditionally.
func (s *Store) Record(ctx context.Context, level, logType, message string, meta map[string]any) error {
	if s == nil || s.pool == nil {
		return nil
	}
	if logType == "" || message == "" {
		return errors.New("syslog: type and message required")
	}
	if level == "" {
		level = LevelInfo
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("syslog: marshal meta: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO system_logs (level, log_type, message, meta, created_at)
		VALUES ($1, $2, $3, $4, NOW())`, level, logType, message, metaJSON)
	if err != nil {
		return fmt.Errorf("syslog: record: %w", err)
	}
	return nil
}

// List returns entries matching the filters, newest first.
func (s *Store) List(ctx context.Context, filters ListFilters) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 1
	if filters.Level != "" {
		where += ` AND level = $` + strconv.Itoa(argCount)
		args = append(args, filters.Level)
		argCount++
	}
	if filters.Type != "" {
		where += ` AND log_type = $` + strconv.Itoa(argCount)
		args = append(args, filters.Type)
		argCount++
	}
	if !filters.From.IsZero() {
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		where += ` AND created_at <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
		argCount++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM system_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("syslog: count: %w", err)
	}

	query := `SELECT id, level, log_type, message, meta, created_at FROM system_logs` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount) +
		` OFFSET $` + strconv.Itoa(argCount+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("syslog: list: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Level, &e.Type, &e.Message, &metaJSON, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("syslog: scan: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// Cleanup removes entries older than the retention window and reports how
// many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM system_logs WHERE created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("syslog: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
