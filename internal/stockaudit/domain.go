package stockaudit

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the audit lifecycle state. Drafts are editable; posting is a
// one-way transition that applies the counted quantities to item stock.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// Line is one counted item. SystemQty is snapshotted from item stock when the
// draft is created; Difference is always PhysicalQty minus SystemQty.
type Line struct {
	ID          int64           `json:"id"`
	AuditID     int64           `json:"-"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	SystemQty   decimal.Decimal `json:"system_qty"`
	PhysicalQty decimal.Decimal `json:"physical_qty"`
	Difference  decimal.Decimal `json:"difference"`
}

// Audit is one stock-take document.
type Audit struct {
	ID        int64     `json:"id"`
	AuditNo   string    `json:"audit_no"`
	Date      time.Time `json:"audit_date"`
	Status    Status    `json:"status"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedBy int64     `json:"created_by,omitempty"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Adjustment records one stock correction applied by posting an audit. It is
// the compensating trail that lets a stock level be explained after the fact.
type Adjustment struct {
	ID        int64           `json:"id"`
	AuditID   int64           `json:"audit_id"`
	ItemID    int64           `json:"item_id"`
	OldQty    decimal.Decimal `json:"old_qty"`
	NewQty    decimal.Decimal `json:"new_qty"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

var (
	ErrNotFound      = errors.New("stockaudit: audit not found")
	ErrNoLines       = errors.New("stockaudit: audit needs at least one line")
	ErrPosted        = errors.New("stockaudit: posted audits cannot be modified")
	ErrAlreadyPosted = errors.New("stockaudit: audit already posted")
	ErrItemMissing   = errors.New("stockaudit: audit references a missing item")
	ErrBadQty        = errors.New("stockaudit: invalid quantity")
)
