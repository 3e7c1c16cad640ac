package items

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one catalogue entry. Stock is never edited directly through CRUD;
// it only moves via stock audit postings and their adjustment records.
type Item struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Unit      string          `json:"unit"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Stock     decimal.Decimal `json:"stock"`
	MinStock  decimal.Decimal `json:"min_stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LowStock reports whether the item is at or below its minimum level.
func (i Item) LowStock() bool {
	return i.Stock.LessThanOrEqual(i.MinStock)
}

// ListFilters narrows List results.
type ListFilters struct {
	Search   string
	Category string
	LowStock bool
	IsActive *bool
	Page     int
	Limit    int
}

var (
	ErrNotFound  = errors.New("items: item not found")
	ErrDuplicate = errors.New("items: item code already exists")
	ErrHasMoves  = errors.New("items: item has stock history")
	ErrBadNumber = errors.New("items: invalid numeric value")
)
