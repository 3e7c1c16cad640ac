package stockaudit

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Service handles the stock-take lifecycle.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns audits matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Audit, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one audit with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Audit, error) {
	if id <= 0 {
		return Audit{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Adjustments returns the stock corrections a posted audit applied.
func (s *Service) Adjustments(ctx context.Context, id int64) ([]Adjustment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListAdjustments(ctx, id)
}

// Create opens a draft. Each line snapshots the item's current stock as its
// system quantity.
func (s *Service) Create(ctx context.Context, actorID int64, req CreateAuditRequest) (Audit, error) {
	itemIDs, physical, err := parseLines(req.Lines)
	if err != nil {
		return Audit{}, err
	}
	date := time.Now().UTC()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return Audit{}, errors.New("stockaudit: invalid audit date")
		}
	}
	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return Audit{}, err
	}
	return s.repo.Create(ctx, Audit{
		AuditNo:   number,
		Date:      date,
		Remarks:   req.Remarks,
		CreatedBy: actorID,
	}, itemIDs, physical)
}

// Update rewrites a draft. Posted audits are immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdateAuditRequest) (Audit, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Audit{}, err
	}
	if current.Status == StatusPosted {
		return Audit{}, ErrPosted
	}
	if req.Remarks != nil {
		current.Remarks = *req.Remarks
	}
	var itemIDs []int64
	var physical map[int64]decimal.Decimal
	if req.Lines != nil {
		itemIDs, physical, err = parseLines(req.Lines)
		if err != nil {
			return Audit{}, err
		}
	}
	return s.repo.UpdateDraft(ctx, current, itemIDs, physical)
}

// Delete removes a draft. Posted audits stay for the adjustment trail.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteDraft(ctx, id)
}

// Post applies the count: the status flips draft to posted with a
// compare-and-set, every line's item is locked and set to the physical
// quantity, and an adjustment record keeps the old value. A missing item
// aborts the whole posting; partially applied audits never commit.
func (s *Service) Post(ctx context.Context, id int64) (Audit, error) {
	var posted Audit
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		audit, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if len(audit.Lines) == 0 {
			return ErrNoLines
		}
		if err := repo.MarkPosted(ctx, audit.ID); err != nil {
			return err
		}
		for i, line := range audit.Lines {
			snap, err := repo.LockItem(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if err := repo.SetItemStock(ctx, line.ItemID, line.PhysicalQty); err != nil {
				return err
			}
			if err := repo.InsertAdjustment(ctx, Adjustment{
				AuditID: audit.ID,
				ItemID:  line.ItemID,
				OldQty:  snap.Stock,
				NewQty:  line.PhysicalQty,
				Reason:  "stock audit " + audit.AuditNo,
			}); err != nil {
				return err
			}
			audit.Lines[i].Difference = line.PhysicalQty.Sub(line.SystemQty)
		}
		audit.Status = StatusPosted
		posted = audit
		return nil
	})
	if err != nil {
		return Audit{}, err
	}
	return posted, nil
}

func parseLines(reqs []LineRequest) ([]int64, map[int64]decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, nil, ErrNoLines
	}
	itemIDs := make([]int64, 0, len(reqs))
	physical := make(map[int64]decimal.Decimal, len(reqs))
	for _, l := range reqs {
		qty, err := decimal.NewFromString(l.PhysicalQty)
		if err != nil || qty.IsNegative() {
			return nil, nil, ErrBadQty
		}
		if _, dup := physical[l.ItemID]; dup {
			return nil, nil, errors.New("stockaudit: duplicate item in lines")
		}
		itemIDs = append(itemIDs, l.ItemID)
		physical[l.ItemID] = qty
	}
	return itemIDs, physical, nil
}
