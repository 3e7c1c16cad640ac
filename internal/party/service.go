package party

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Service handles party business rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns parties matching the filters with a total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Party, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one party by id.
func (s *Service) Get(ctx context.Context, id int64) (Party, error) {
	if id <= 0 {
		return Party{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new party. The opening balance seeds the cached running
// balance; subsequent changes only happen through ledger postings.
func (s *Service) Create(ctx context.Context, req CreatePartyRequest) (Party, error) {
	t := Type(req.Type)
	if !t.Valid() {
		return Party{}, ErrInvalidType
	}
	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			return Party{}, errors.New("party: invalid opening balance")
		}
		opening = opening.Round(2)
	}
	code := req.Code
	if code == "" {
		var err error
		code, err = s.repo.NextCode(ctx, t)
		if err != nil {
			return Party{}, err
		}
	}
	return s.repo.Create(ctx, Party{
		Type:           t,
		Code:           code,
		Name:           req.Name,
		CompanyName:    req.CompanyName,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		OpeningBalance: opening,
	})
}

// Update modifies non-balance fields of a party.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePartyRequest) (Party, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Party{}, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.CompanyName != nil {
		current.CompanyName = *req.CompanyName
	}
	if req.Phone != nil {
		current.Phone = *req.Phone
	}
	if req.Email != nil {
		current.Email = *req.Email
	}
	if req.Address != nil {
		current.Address = *req.Address
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Party{}, err
	}
	return current, nil
}

// Delete removes a party without ledger history. Parties that have been
// posted against must stay for the audit trail; deactivate them instead.
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
