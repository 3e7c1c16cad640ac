package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind identifies which balance-carrying account an entry belongs to.
type AccountKind string

const (
	// KindParty covers customer and supplier accounts.
	KindParty AccountKind = "party"
	// KindBank covers bank accounts.
	KindBank AccountKind = "bank"
)

// Valid reports whether the kind is one of the known account kinds.
func (k AccountKind) Valid() bool {
	return k == KindParty || k == KindBank
}

// Direction states whether an entry increases or decreases the account balance.
type Direction string

const (
	// DirectionIncrease raises the account balance (debit column on statements).
	DirectionIncrease Direction = "increase"
	// DirectionDecrease lowers the account balance (credit column on statements).
	DirectionDecrease Direction = "decrease"
)

// Valid reports whether the direction is known.
func (d Direction) Valid() bool {
	return d == DirectionIncrease || d == DirectionDecrease
}

// Entry is one immutable balance-carrying ledger record. PreviousBalance and
// Balance are snapshots taken at posting time; Seq is a per-account monotonic
// sequence assigned under the account lock and breaks same-date ordering ties.
type Entry struct {
	ID              int64
	AccountKind     AccountKind
	AccountID       int64
	Seq             int64
	Date            time.Time
	Direction       Direction
	Amount          decimal.Decimal
	Discount        decimal.Decimal
	PreviousBalance decimal.Decimal
	Balance         decimal.Decimal
	RefModule       string
	RefID           string
	Narration       string
	CreatedBy       int64
	CreatedAt       time.Time
}

// Delta returns the signed effect of the entry on the account balance.
func (e Entry) Delta() decimal.Decimal {
	total := e.Amount.Add(e.Discount)
	if e.Direction == DirectionDecrease {
		return total.Neg()
	}
	return total
}

// PostInput describes a new entry to post.
type PostInput struct {
	Kind      AccountKind
	AccountID int64
	Date      time.Time
	Direction Direction
	Amount    decimal.Decimal
	Discount  decimal.Decimal
	RefModule string
	RefID     string
	Narration string
	CreatedBy int64
}

// AccountState is the locked snapshot of an account row inside a transaction.
type AccountState struct {
	Balance decimal.Decimal
	Version int64
}

// AccountSnapshot is the read-side view of an account.
type AccountSnapshot struct {
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	Version        int64
}

// EntryFilter selects entries for listing and replay.
type EntryFilter struct {
	Kind      AccountKind
	AccountID int64
	From      time.Time
	To        time.Time
	RefModule string
	Limit     int
}

// StatementRow is one line of a reconstructed running ledger.
type StatementRow struct {
	Entry   Entry
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Running decimal.Decimal
}

// Statement is the reconstructed running ledger for one account and date range.
type Statement struct {
	Kind    AccountKind
	Account int64
	From    time.Time
	To      time.Time
	Opening decimal.Decimal
	Rows    []StatementRow
	Closing decimal.Decimal
}

// VerifyReport compares a replayed balance with the stored account balance.
type VerifyReport struct {
	Kind      AccountKind
	AccountID int64
	Stored    decimal.Decimal
	Replayed  decimal.Decimal
	Drift     decimal.Decimal
	Entries   int
}

// Clean reports whether the replayed balance matches the stored one.
func (r VerifyReport) Clean() bool {
	return r.Drift.IsZero()
}

var (
	// ErrAccountNotFound indicates the referenced account row does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrUnknownKind indicates an unsupported account kind.
	ErrUnknownKind = errors.New("ledger: unknown account kind")
	// ErrInvalidDirection indicates an unsupported direction value.
	ErrInvalidDirection = errors.New("ledger: invalid direction")
	// ErrInvalidAmount indicates a negative or zero-effect amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInvalidDiscount indicates a negative discount.
	ErrInvalidDiscount = errors.New("ledger: discount must not be negative")
	// ErrNotLatestEntry rejects reversal of anything but the newest entry.
	ErrNotLatestEntry = errors.New("ledger: only the latest entry can be reversed")
	// ErrNoEntries indicates the account has no entries to reverse.
	ErrNoEntries = errors.New("ledger: account has no entries")
	// ErrVersionConflict indicates a lost optimistic-concurrency race.
	ErrVersionConflict = errors.New("ledger: account version conflict")
)
