package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRow is one statement line in a reconstructed running ledger.
type LedgerRow struct {
	Date      time.Time       `json:"date"`
	Narration string          `json:"narration,omitempty"`
	RefModule string          `json:"ref_module,omitempty"`
	RefID     string          `json:"ref_id,omitempty"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Running   decimal.Decimal `json:"running_balance"`
}

// LedgerReport is the replayed statement of one account over a period. It is
// always rebuilt from the stored entries, never from the cached balance.
type LedgerReport struct {
	AccountKind string          `json:"account_kind"`
	AccountID   int64           `json:"account_id"`
	AccountName string          `json:"account_name,omitempty"`
	From        time.Time       `json:"start_date,omitempty"`
	To          time.Time       `json:"end_date,omitempty"`
	Opening     decimal.Decimal `json:"opening_balance"`
	Rows        []LedgerRow     `json:"rows"`
	Closing     decimal.Decimal `json:"closing_balance"`
}

// ExpenseSummaryReport totals expenses by head over a period.
type ExpenseSummaryReport struct {
	From  time.Time        `json:"start_date,omitempty"`
	To    time.Time        `json:"end_date,omitempty"`
	Rows  []ExpenseRow     `json:"rows"`
	Total decimal.Decimal  `json:"total"`
}

// ExpenseRow is one head's share of the summary.
type ExpenseRow struct {
	HeadID   int64           `json:"head_id"`
	HeadName string          `json:"head_name"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}
