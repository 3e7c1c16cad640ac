package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/tradepost-erp/tradepost/internal/expense"
	"github.com/tradepost-erp/tradepost/internal/ledger"
)

// StatementSource replays an account's ledger into a statement.
type StatementSource interface {
	Statement(ctx context.Context, filter ledger.EntryFilter) (ledger.Statement, error)
}

// AccountNamer resolves display names for report headers.
type AccountNamer interface {
	AccountName(ctx context.Context, kind ledger.AccountKind, id int64) (string, error)
}

// ExpenseSource totals expenses by head.
type ExpenseSource interface {
	Summary(ctx context.Context, from, to time.Time) ([]expense.SummaryRow, error)
}

// Service builds the reporting views. Every report is a full replay of the
// underlying records; Redis caching keeps repeated requests cheap and the
// singleflight group collapses concurrent recomputations of the same key.
type Service struct {
	statements StatementSource
	expenses   ExpenseSource
	namer      AccountNamer
	cache      *Cache
	group      singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(statements StatementSource, expenses ExpenseSource, namer AccountNamer, cache *Cache) *Service {
	return &Service{statements: statements, expenses: expenses, namer: namer, cache: cache}
}

// BankLedger reconstructs the running ledger of one bank account.
func (s *Service) BankLedger(ctx context.Context, bankID int64, from, to time.Time) (LedgerReport, error) {
	return s.accountLedger(ctx, ledger.KindBank, bankID, from, to)
}

// PartyStatement reconstructs the running ledger of one party.
func (s *Service) PartyStatement(ctx context.Context, partyID int64, from, to time.Time) (LedgerReport, error) {
	return s.accountLedger(ctx, ledger.KindParty, partyID, from, to)
}

func (s *Service) accountLedger(ctx context.Context, kind ledger.AccountKind, accountID int64, from, to time.Time) (LedgerReport, error) {
	key := fmt.Sprintf("reports:ledger:%s:%d:%s:%s", kind, accountID, dayKey(from), dayKey(to))
	var report LedgerReport
	err := s.fetch(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.buildLedger(ctx, kind, accountID, from, to)
	})
	return report, err
}

func (s *Service) buildLedger(ctx context.Context, kind ledger.AccountKind, accountID int64, from, to time.Time) (LedgerReport, error) {
	stmt, err := s.statements.Statement(ctx, ledger.EntryFilter{
		Kind:      kind,
		AccountID: accountID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return LedgerReport{}, err
	}
	report := LedgerReport{
		AccountKind: string(kind),
		AccountID:   accountID,
		From:        from,
		To:          to,
		Opening:     stmt.Opening,
		Rows:        make([]LedgerRow, 0, len(stmt.Rows)),
		Closing:     stmt.Closing,
	}
	if s.namer != nil {
		report.AccountName, _ = s.namer.AccountName(ctx, kind, accountID)
	}
	for _, row := range stmt.Rows {
		report.Rows = append(report.Rows, LedgerRow{
			Date:      row.Entry.Date,
			Narration: row.Entry.Narration,
			RefModule: row.Entry.RefModule,
			RefID:     row.Entry.RefID,
			Debit:     row.Debit,
			Credit:    row.Credit,
			Running:   row.Running,
		})
	}
	return report, nil
}

// ExpenseSummary totals expenses by head over a period.
func (s *Service) ExpenseSummary(ctx context.Context, from, to time.Time) (ExpenseSummaryReport, error) {
	key := fmt.Sprintf("reports:expense-summary:%s:%s", dayKey(from), dayKey(to))
	var report ExpenseSummaryReport
	err := s.fetch(ctx, key, &report, func(ctx context.Context) (any, error) {
		rows, err := s.expenses.Summary(ctx, from, to)
		if err != nil {
			return nil, err
		}
		out := ExpenseSummaryReport{From: from, To: to, Rows: make([]ExpenseRow, 0, len(rows)), Total: decimal.Zero}
		for _, row := range rows {
			out.Rows = append(out.Rows, ExpenseRow(row))
			out.Total = out.Total.Add(row.Total)
		}
		return out, nil
	})
	return report, err
}

// fetch funnels the computation through singleflight and the Redis cache.
// The group returns the raw JSON payload so every waiter can decode into its
// own destination.
func (s *Service) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	resultChan := s.group.DoChan(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "all"
	}
	return t.Format("2006-01-02")
}
