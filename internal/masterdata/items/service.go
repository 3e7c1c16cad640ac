package items

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service handles catalogue business rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns items matching the filters with a total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create registers a catalogue item. The opening stock is accepted here once;
// afterwards stock only moves through audit postings.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (Item, error) {
	cost, err := parseAmount(req.CostPrice)
	if err != nil {
		return Item{}, err
	}
	sale, err := parseAmount(req.SalePrice)
	if err != nil {
		return Item{}, err
	}
	stock, err := parseQty(req.Stock)
	if err != nil {
		return Item{}, err
	}
	minStock, err := parseQty(req.MinStock)
	if err != nil {
		return Item{}, err
	}
	code := req.Code
	if code == "" {
		code, err = s.repo.NextCode(ctx)
		if err != nil {
			return Item{}, err
		}
	}
	return s.repo.Create(ctx, Item{
		Code:      code,
		Name:      req.Name,
		Category:  req.Category,
		Unit:      req.Unit,
		CostPrice: cost,
		SalePrice: sale,
		Stock:     stock,
		MinStock:  minStock,
	})
}

// Update modifies catalogue fields. Stock is untouched.
func (s *Service) Update(ctx context.Context, id int64, req UpdateItemRequest) (Item, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Category != nil {
		current.Category = *req.Category
	}
	if req.Unit != nil {
		current.Unit = *req.Unit
	}
	if req.CostPrice != nil {
		current.CostPrice, err = parseAmount(*req.CostPrice)
		if err != nil {
			return Item{}, err
		}
	}
	if req.SalePrice != nil {
		current.SalePrice, err = parseAmount(*req.SalePrice)
		if err != nil {
			return Item{}, err
		}
	}
	if req.MinStock != nil {
		current.MinStock, err = parseQty(*req.MinStock)
		if err != nil {
			return Item{}, err
		}
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Item{}, err
	}
	return current, nil
}

// Delete removes an item that has no stock history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountStockMoves(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasMoves
	}
	return s.repo.Delete(ctx, id)
}

func parseAmount(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrBadNumber
	}
	return d.Round(2), nil
}

func parseQty(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrBadNumber
	}
	return d, nil
}
