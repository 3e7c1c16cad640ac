package party

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a party by its trading role.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeSupplier Type = "supplier"
	TypeBoth     Type = "both"
)

// Valid reports whether the type is one of the known party types.
func (t Type) Valid() bool {
	return t == TypeCustomer || t == TypeSupplier || t == TypeBoth
}

// CanSupply reports whether the party can act as a supplier.
func (t Type) CanSupply() bool {
	return t == TypeSupplier || t == TypeBoth
}

// CanBuy reports whether the party can act as a customer.
func (t Type) CanBuy() bool {
	return t == TypeCustomer || t == TypeBoth
}

// Party is a customer or supplier carrying a running balance. Balance is a
// cache of the latest ledger entry's balance and is only mutated through the
// ledger under the account row lock; Version guards against lost updates.
type Party struct {
	ID             int64           `json:"id"`
	Type           Type            `json:"party_type"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	CompanyName    string          `json:"company_name,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Version        int64           `json:"-"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ListFilters narrows party listings.
type ListFilters struct {
	Type   Type
	Search string
	Page   int
	Limit  int
}

var (
	// ErrNotFound indicates the party does not exist.
	ErrNotFound = errors.New("party: not found")
	// ErrDuplicate indicates a code or name collision.
	ErrDuplicate = errors.New("party: code or name already exists")
	// ErrHasEntries rejects deleting a party that has ledger history.
	ErrHasEntries = errors.New("party: has ledger entries and cannot be deleted")
	// ErrInvalidType indicates an unsupported party type.
	ErrInvalidType = errors.New("party: invalid party type")
)
