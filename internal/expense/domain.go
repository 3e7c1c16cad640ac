package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Head is one expense category.
type Head struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expense is one expense voucher booked against a head.
type Expense struct {
	ID        int64           `json:"id"`
	VoucherNo string          `json:"voucher_no"`
	Date      time.Time       `json:"expense_date"`
	HeadID    int64           `json:"head_id"`
	HeadName  string          `json:"head_name,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"payment_mode"`
	Remarks   string          `json:"remarks,omitempty"`
	CreatedBy int64           `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SummaryRow is one head's total over a period.
type SummaryRow struct {
	HeadID   int64           `json:"head_id"`
	HeadName string          `json:"head_name"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// ListFilters narrows List results.
type ListFilters struct {
	HeadID int64
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

var (
	ErrHeadNotFound = errors.New("expense: expense head not found")
	ErrNotFound     = errors.New("expense: expense not found")
	ErrHeadInUse    = errors.New("expense: head has expenses booked against it")
	ErrDuplicate    = errors.New("expense: head name already exists")
	ErrBadAmount    = errors.New("expense: invalid amount")
)
