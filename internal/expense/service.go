package expense

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Service handles expense heads and vouchers.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListHeads returns every head.
func (s *Service) ListHeads(ctx context.Context) ([]Head, error) {
	return s.repo.ListHeads(ctx)
}

// CreateHead registers an expense category.
func (s *Service) CreateHead(ctx context.Context, req HeadRequest) (Head, error) {
	return s.repo.CreateHead(ctx, Head{Name: req.Name, Description: req.Description})
}

// UpdateHead renames or re-describes a head.
func (s *Service) UpdateHead(ctx context.Context, id int64, req HeadRequest) (Head, error) {
	current, err := s.repo.GetHead(ctx, id)
	if err != nil {
		return Head{}, err
	}
	current.Name = req.Name
	current.Description = req.Description
	if err := s.repo.UpdateHead(ctx, id, current); err != nil {
		return Head{}, err
	}
	return current, nil
}

// DeleteHead removes a head with no expenses booked against it.
func (s *Service) DeleteHead(ctx context.Context, id int64) error {
	if _, err := s.repo.GetHead(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountByHead(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHeadInUse
	}
	return s.repo.DeleteHead(ctx, id)
}

// List returns expenses matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one expense voucher.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	if id <= 0 {
		return Expense{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create books an expense voucher against a head.
func (s *Service) Create(ctx context.Context, actorID int64, req CreateExpenseRequest) (Expense, error) {
	head, err := s.repo.GetHead(ctx, req.HeadID)
	if err != nil {
		return Expense{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Expense{}, err
	}
	date := time.Now().UTC()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return Expense{}, errors.New("expense: invalid expense date")
		}
	}
	voucher, err := s.repo.NextVoucher(ctx)
	if err != nil {
		return Expense{}, err
	}
	return s.repo.Create(ctx, Expense{
		VoucherNo: voucher,
		Date:      date,
		HeadID:    head.ID,
		HeadName:  head.Name,
		Amount:    amount,
		Mode:      req.Mode,
		Remarks:   req.Remarks,
		CreatedBy: actorID,
	})
}

// Update modifies an expense voucher.
func (s *Service) Update(ctx context.Context, id int64, req UpdateExpenseRequest) (Expense, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if req.HeadID != nil {
		head, err := s.repo.GetHead(ctx, *req.HeadID)
		if err != nil {
			return Expense{}, err
		}
		current.HeadID = head.ID
		current.HeadName = head.Name
	}
	if req.Date != nil {
		d, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return Expense{}, errors.New("expense: invalid expense date")
		}
		current.Date = d
	}
	if req.Amount != nil {
		current.Amount, err = parseAmount(*req.Amount)
		if err != nil {
			return Expense{}, err
		}
	}
	if req.Mode != nil {
		current.Mode = *req.Mode
	}
	if req.Remarks != nil {
		current.Remarks = *req.Remarks
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Expense{}, err
	}
	return current, nil
}

// Delete removes an expense voucher.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Summary totals expenses by head over a period.
func (s *Service) Summary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	return s.repo.Summary(ctx, from, to)
}

func parseAmount(v string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(v)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, ErrBadAmount
	}
	return amount.Round(2), nil
}
