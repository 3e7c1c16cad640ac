package payments

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes money paid out to suppliers from money collected from
// customers. Both settle outstanding party balances, so both post a decrease.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindCustomer Kind = "customer"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindSupplier || k == KindCustomer
}

// NumberPrefix returns the voucher number prefix for the kind.
func (k Kind) NumberPrefix() string {
	if k == KindSupplier {
		return "SP"
	}
	return "CR"
}

// Mode is the settlement instrument.
type Mode string

const (
	ModeCash   Mode = "cash"
	ModeBank   Mode = "bank"
	ModeCheque Mode = "cheque"
	ModeOnline Mode = "online"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeBank, ModeCheque, ModeOnline:
		return true
	}
	return false
}

// Payment is one settlement voucher. PreviousBalance and Balance are the party
// balance snapshots the linked ledger entry carried at posting time.
type Payment struct {
	ID              int64           `json:"id"`
	Number          string          `json:"payment_no"`
	Kind            Kind            `json:"kind"`
	Date            time.Time       `json:"payment_date"`
	PartyID         int64           `json:"party_id"`
	PartyName       string          `json:"party_name,omitempty"`
	EntryID         int64           `json:"-"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Amount          decimal.Decimal `json:"amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Balance         decimal.Decimal `json:"balance"`
	Mode            Mode            `json:"payment_mode"`
	BankName        string          `json:"bank_name,omitempty"`
	ChequeNo        string          `json:"cheque_no,omitempty"`
	ChequeDate      *time.Time      `json:"cheque_date,omitempty"`
	Remarks         string          `json:"remarks,omitempty"`
	CreatedBy       int64           `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Kind    Kind
	PartyID int64
	Mode    Mode
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

var (
	ErrNotFound      = errors.New("payments: payment not found")
	ErrInvalidKind   = errors.New("payments: invalid payment kind")
	ErrInvalidMode   = errors.New("payments: invalid payment mode")
	ErrPartyMismatch = errors.New("payments: party cannot take this payment kind")
	ErrMonetaryEdit  = errors.New("payments: monetary fields cannot be edited")
)
