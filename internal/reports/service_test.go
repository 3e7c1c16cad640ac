package reports

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradepost-erp/tradepost/internal/expense"
	"github.com/tradepost-erp/tradepost/internal/ledger"
)

type fakeStatements struct {
	calls int32
	stmt  ledger.Statement
}

func (f *fakeStatements) Statement(ctx context.Context, filter ledger.EntryFilter) (ledger.Statement, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.stmt, nil
}

type fakeExpenses struct {
	calls int32
	rows  []expense.SummaryRow
}

func (f *fakeExpenses) Summary(ctx context.Context, from, to time.Time) ([]expense.SummaryRow, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.rows, nil
}

type fakeNamer struct{}

func (fakeNamer) AccountName(ctx context.Context, kind ledger.AccountKind, id int64) (string, error) {
	return "HBL Main", nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleStatement() ledger.Statement {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return ledger.Statement{
		Kind:    ledger.KindBank,
		Account: 1,
		Opening: dec("1000"),
		Rows: []ledger.StatementRow{
			{
				Entry:   ledger.Entry{Date: date, Narration: "Deposit", RefModule: "bank_deposit"},
				Debit:   dec("500"),
				Credit:  decimal.Zero,
				Running: dec("1500"),
			},
			{
				Entry:   ledger.Entry{Date: date, Narration: "Withdrawal", RefModule: "bank_withdrawal"},
				Debit:   decimal.Zero,
				Credit:  dec("200"),
				Running: dec("1300"),
			},
		},
		Closing: dec("1300"),
	}
}

func newTestService(t *testing.T, statements StatementSource, expenses ExpenseSource) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(statements, expenses, fakeNamer{}, NewCache(client, time.Minute))
}

func TestBankLedgerReplaysStatement(t *testing.T) {
	statements := &fakeStatements{stmt: sampleStatement()}
	svc := newTestService(t, statements, &fakeExpenses{})

	report, err := svc.BankLedger(context.Background(), 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "bank", report.AccountKind)
	require.Equal(t, "HBL Main", report.AccountName)
	require.True(t, report.Opening.Equal(dec("1000")))
	require.Len(t, report.Rows, 2)
	require.True(t, report.Rows[1].Running.Equal(dec("1300")))
	require.True(t, report.Closing.Equal(dec("1300")))
}

func TestBankLedgerCachesByKey(t *testing.T) {
	statements := &fakeStatements{stmt: sampleStatement()}
	svc := newTestService(t, statements, &fakeExpenses{})
	ctx := context.Background()

	_, err := svc.BankLedger(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	_, err = svc.BankLedger(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&statements.calls))

	// different period is a different key
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.BankLedger(ctx, 1, from, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&statements.calls))
}

func TestExpenseSummaryTotals(t *testing.T) {
	expenses := &fakeExpenses{rows: []expense.SummaryRow{
		{HeadID: 1, HeadName: "Fuel", Count: 2, Total: dec("250.50")},
		{HeadID: 2, HeadName: "Rent", Count: 1, Total: dec("5000")},
	}}
	svc := newTestService(t, &fakeStatements{}, expenses)

	report, err := svc.ExpenseSummary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	require.True(t, report.Total.Equal(dec("5250.50")))
}

func TestWriteLedgerCSV(t *testing.T) {
	statements := &fakeStatements{stmt: sampleStatement()}
	svc := newTestService(t, statements, &fakeExpenses{})

	report, err := svc.BankLedger(context.Background(), 1, time.Time{}, time.Time{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, report))
	out := buf.String()
	require.Contains(t, out, "Opening Balance")
	require.Contains(t, out, "Deposit")
	require.Contains(t, out, "1,300.00")
	require.Equal(t, 5, strings.Count(out, "\n"))
}
