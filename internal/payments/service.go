package payments

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradepost-erp/tradepost/internal/ledger"
)

// Service applies the settlement rules for supplier payments and customer
// receipts. Every monetary mutation goes through the ledger so balances keep
// their full posting history.
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
		s.PostingCounter(string(ledger.KindParty), string(dir))
	}
}

// List returns payments of a kind matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	if filters.Kind != "" && !filters.Kind.Valid() {
		return nil, 0, ErrInvalidKind
	}
	if filters.Mode != "" && !filters.Mode.Valid() {
		return nil, 0, ErrInvalidMode
	}
	return s.repo.List(ctx, filters)
}

// Get returns one payment.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if p.Kind != kind {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

// Create records a settlement voucher and posts the matching ledger entry in
// one transaction. A payment of either kind settles outstanding balance, so
// the ledger direction is always a decrease.
func (s *Service) Create(ctx context.Context, kind Kind, actorID int64, req CreatePaymentRequest) (Payment, error) {
	if !kind.Valid() {
		return Payment{}, ErrInvalidKind
	}
	mode := Mode(req.Mode)
	if !mode.Valid() {
		return Payment{}, ErrInvalidMode
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		return Payment{}, ledger.ErrInvalidAmount
	}
	amount = amount.Round(2)
	percent := decimal.Zero
	if req.DiscountPercent != "" {
		percent, err = decimal.NewFromString(req.DiscountPercent)
		if err != nil || percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
			return Payment{}, ledger.ErrInvalidDiscount
		}
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return Payment{}, errors.New("payments: invalid payment date")
		}
	}
	var chequeDate *time.Time
	if req.ChequeDate != "" {
		d, err := time.Parse("2006-01-02", req.ChequeDate)
		if err != nil {
			return Payment{}, errors.New("payments: invalid cheque date")
		}
		chequeDate = &d
	}

	var created Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository, store ledger.Store) error {
		ref, err := repo.PartyRef(ctx, req.PartyID)
		if err != nil {
			return err
		}
		if kind == KindSupplier && !ref.Type.CanSupply() {
			return ErrPartyMismatch
		}
		if kind == KindCustomer && !ref.Type.CanBuy() {
			return ErrPartyMismatch
		}

		number, err := repo.NextNumber(ctx, kind)
		if err != nil {
			return err
		}
		discount := ledger.DiscountFromPercent(amount, percent)

		entry, err := ledger.PostEntry(ctx, store, ledger.PostInput{
			Kind:      ledger.KindParty,
			AccountID: ref.ID,
			Date:      date,
			Direction: ledger.DirectionDecrease,
			Amount:    amount,
			Discount:  discount,
			RefModule: refModule(kind),
			RefID:     number,
			Narration: narration(kind, number),
			CreatedBy: actorID,
		})
		if err != nil {
			return err
		}

		created, err = repo.Insert(ctx, Payment{
			Number:          number,
			Kind:            kind,
			Date:            date,
			PartyID:         ref.ID,
			PartyName:       ref.Name,
			EntryID:         entry.ID,
			PreviousBalance: entry.PreviousBalance,
			Amount:          amount,
			DiscountPercent: percent,
			DiscountAmount:  discount,
			Balance:         entry.Balance,
			Mode:            mode,
			BankName:        req.BankName,
			ChequeNo:        req.ChequeNo,
			ChequeDate:      chequeDate,
			Remarks:         req.Remarks,
			CreatedBy:       actorID,
		})
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	s.countPosting(ledger.DirectionDecrease)
	return created, nil
}

// Update changes the non-monetary fields of a voucher. Amount, discount,
// party and date are frozen once posted: correcting them means deleting the
// voucher and recording a new one.
func (s *Service) Update(ctx context.Context, kind Kind, id int64, req UpdatePaymentRequest) (Payment, error) {
	if req.Amount != nil || req.Discount != nil {
		return Payment{}, ErrMonetaryEdit
	}
	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return Payment{}, err
	}
	if req.Mode != nil {
		m := Mode(*req.Mode)
		if !m.Valid() {
			return Payment{}, ErrInvalidMode
		}
		current.Mode = m
	}
	if req.BankName != nil {
		current.BankName = *req.BankName
	}
	if req.ChequeNo != nil {
		current.ChequeNo = *req.ChequeNo
	}
	if req.ChequeDate != nil {
		if *req.ChequeDate == "" {
			current.ChequeDate = nil
		} else {
			d, err := time.Parse("2006-01-02", *req.ChequeDate)
			if err != nil {
				return Payment{}, errors.New("payments: invalid cheque date")
			}
			current.ChequeDate = &d
		}
	}
	if req.Remarks != nil {
		current.Remarks = *req.Remarks
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Payment{}, err
	}
	return current, nil
}

// Delete reverses the voucher's ledger entry and removes the voucher in one
// transaction. Only the party's most recent entry can be reversed; deleting
// an older voucher would invalidate every later balance snapshot.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository, store ledger.Store) error {
		p, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Kind != kind {
			return ErrNotFound
		}
		if _, err := ledger.ReverseEntry(ctx, store, ledger.KindParty, p.PartyID, p.EntryID); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

func refModule(kind Kind) string {
	if kind == KindSupplier {
		return "supplier_payment"
	}
	return "customer_receipt"
}

func narration(kind Kind, number string) string {
	if kind == KindSupplier {
		return "Supplier payment " + number
	}
	return "Customer receipt " + number
}
