package bank

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Bank is one bank account. Balance is the cached running balance maintained
// by ledger postings; Version guards concurrent balance updates.
type Bank struct {
	ID             int64           `json:"id"`
	Name           string          `json:"bank_name"`
	AccountNo      string          `json:"account_no"`
	AccountTitle   string          `json:"account_title"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Version        int64           `json:"-"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Search string
	Page   int
	Limit  int
}

var (
	ErrNotFound          = errors.New("bank: bank account not found")
	ErrDuplicate         = errors.New("bank: account number already exists")
	ErrHasEntries        = errors.New("bank: account has ledger history")
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrSameAccount       = errors.New("bank: transfer needs two different accounts")
)
