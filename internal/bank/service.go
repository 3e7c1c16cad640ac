package bank

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepost-erp/tradepost/internal/ledger"
)

// Service handles bank account rules. Deposits, withdrawals and transfers
// post ledger entries with kind=bank, so every balance keeps its history and
// the bank-ledger report can replay it.
type Service struct {
	repo Repository

	// PostingCounter, when set, is called once per posted ledger entry.
	PostingCounter func(kind, direction string)
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) countPosting(dir ledger.Direction) {
	if s.PostingCounter != nil {
		s.PostingCounter(string(ledger.KindBank), string(dir))
	}
}

// List returns bank accounts matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Bank, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one bank account.
func (s *Service) Get(ctx context.Context, id int64) (Bank, error) {
	if id <= 0 {
		return Bank{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create registers a bank account with its opening balance.
func (s *Service) Create(ctx context.Context, req CreateBankRequest) (Bank, error) {
	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			return Bank{}, errors.New("bank: invalid opening balance")
		}
		opening = opening.Round(2)
	}
	return s.repo.Create(ctx, Bank{
		Name:           req.Name,
		AccountNo:      req.AccountNo,
		AccountTitle:   req.AccountTitle,
		OpeningBalance: opening,
	})
}

// Update modifies non-balance fields.
func (s *Service) Update(ctx context.Context, id int64, req UpdateBankRequest) (Bank, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Bank{}, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.AccountNo != nil {
		current.AccountNo = *req.AccountNo
	}
	if req.AccountTitle != nil {
		current.AccountTitle = *req.AccountTitle
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Bank{}, err
	}
	return current, nil
}

// Delete removes an account without ledger history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountLedgerEntries(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasEntries
	}
	return s.repo.Delete(ctx, id)
}

// Deposit posts an increase entry against the account.
func (s *Service) Deposit(ctx context.Context, id, actorID int64, req MoveRequest) (ledger.Entry, error) {
	return s.move(ctx, id, actorID, req, ledger.DirectionIncrease, "bank_deposit", "")
}

// Withdraw posts a decrease entry. The account is locked first, so the
// insufficient-funds check cannot race another withdrawal.
func (s *Service) Withdraw(ctx context.Context, id, actorID int64, req MoveRequest) (ledger.Entry, error) {
	return s.move(ctx, id, actorID, req, ledger.DirectionDecrease, "bank_withdrawal", "")
}

func (s *Service) move(ctx context.Context, id, actorID int64, req MoveRequest, dir ledger.Direction, refModule, refID string) (ledger.Entry, error) {
	amount, date, err := parseMove(req.Amount, req.Date)
	if err != nil {
		return ledger.Entry{}, err
	}
	var entry ledger.Entry
	err = s.repo.WithTx(ctx, func(ctx context.Context, store ledger.Store) error {
		entry, err = postMove(ctx, store, id, actorID, amount, date, dir, refModule, refID, req.Narration)
		return err
	})
	if err != nil {
		return ledger.Entry{}, err
	}
	s.countPosting(dir)
	return entry, nil
}

// Transfer withdraws from one account and deposits into another in a single
// transaction. Both entries share a transfer reference so statements can pair
// them up.
func (s *Service) Transfer(ctx context.Context, actorID int64, req TransferRequest) ([]ledger.Entry, error) {
	if req.FromBankID == req.ToBankID {
		return nil, ErrSameAccount
	}
	amount, date, err := parseMove(req.Amount, req.Date)
	if err != nil {
		return nil, err
	}
	ref := uuid.NewString()
	entries := make([]ledger.Entry, 0, 2)
	err = s.repo.WithTx(ctx, func(ctx context.Context, store ledger.Store) error {
		entries = entries[:0]
		// Both rows are locked in ascending id order before anything posts,
		// so opposite transfers cannot deadlock on each other.
		first, second := req.FromBankID, req.ToBankID
		if second < first {
			first, second = second, first
		}
		if _, err := store.LockAccount(ctx, ledger.KindBank, first); err != nil {
			return err
		}
		if _, err := store.LockAccount(ctx, ledger.KindBank, second); err != nil {
			return err
		}
		out, err := postMove(ctx, store, req.FromBankID, actorID, amount, date,
			ledger.DirectionDecrease, "bank_transfer", ref, req.Narration)
		if err != nil {
			return err
		}
		in, err := postMove(ctx, store, req.ToBankID, actorID, amount, date,
			ledger.DirectionIncrease, "bank_transfer", ref, req.Narration)
		if err != nil {
			return err
		}
		entries = append(entries, out, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.countPosting(ledger.DirectionDecrease)
	s.countPosting(ledger.DirectionIncrease)
	return entries, nil
}

func postMove(ctx context.Context, store ledger.Store, bankID, actorID int64, amount decimal.Decimal, date time.Time, dir ledger.Direction, refModule, refID, narration string) (ledger.Entry, error) {
	if dir == ledger.DirectionDecrease {
		state, err := store.LockAccount(ctx, ledger.KindBank, bankID)
		if err != nil {
			return ledger.Entry{}, err
		}
		if state.Balance.LessThan(amount) {
			return ledger.Entry{}, ErrInsufficientFunds
		}
	}
	return ledger.PostEntry(ctx, store, ledger.PostInput{
		Kind:      ledger.KindBank,
		AccountID: bankID,
		Date:      date,
		Direction: dir,
		Amount:    amount,
		Discount:  decimal.Zero,
		RefModule: refModule,
		RefID:     refID,
		Narration: narration,
		CreatedBy: actorID,
	})
}

func parseMove(amountStr, dateStr string) (decimal.Decimal, time.Time, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, time.Time{}, ledger.ErrInvalidAmount
	}
	date := time.Now().UTC()
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return decimal.Decimal{}, time.Time{}, errors.New("bank: invalid date")
		}
	}
	return amount.Round(2), date, nil
}
