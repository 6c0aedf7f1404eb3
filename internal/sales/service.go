package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/matching"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// RepositoryPort abstracts sale persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, storeID int64, limit int) ([]Sale, error)
}

// MenuPort lists the store's menus with recipes.
type MenuPort interface {
	List(ctx context.Context, storeID int64) ([]menu.View, error)
}

// InventoryPort applies stock deductions.
type InventoryPort interface {
	Adjust(ctx context.Context, storeID, productID int64, input inventory.AdjustmentInput) (inventory.Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service imports receipts as sales.
type Service struct {
	repo      RepositoryPort
	menus     MenuPort
	inventory InventoryPort
	audit     AuditPort
	matcher   matching.Matcher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryPort, menus MenuPort, inv InventoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		menus:     menus,
		inventory: inv,
		audit:     audit,
		matcher:   matching.DefaultMatcher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Preview matches every receipt line against the store's menus without
// storing anything.
func (s *Service) Preview(ctx context.Context, storeID int64, req PreviewRequest) ([]Detail, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	views, err := s.menus.List(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("sales: list menus: %w", err)
	}
	candidates, byID := menuIndex(views)
	details := make([]Detail, 0, len(req.Lines))
	for _, line := range req.Lines {
		d, err := s.resolve(line, candidates, byID)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// Record stores a sale and deducts the recipe ingredients of every matched
// line from inventory. Each ingredient consumes
// ceil(quantity_required × quantity) stock units.
func (s *Service) Record(ctx context.Context, storeID int64, req RecordRequest) (RecordResult, error) {
	if err := shared.Validate(req); err != nil {
		return RecordResult{}, err
	}
	views, err := s.menus.List(ctx, storeID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("sales: list menus: %w", err)
	}
	candidates, byID := menuIndex(views)

	now := s.now()
	sale := Sale{StoreID: storeID, SoldAt: now, CreatedAt: now, TotalAmount: decimal.Zero}
	if req.SoldAt != nil && !req.SoldAt.IsZero() {
		sale.SoldAt = *req.SoldAt
	}
	for _, line := range req.Lines {
		d, err := s.resolve(line, candidates, byID)
		if err != nil {
			return RecordResult{}, err
		}
		d.Candidates = nil
		sale.TotalAmount = sale.TotalAmount.Add(d.Subtotal)
		sale.Details = append(sale.Details, d)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		for i := range sale.Details {
			sale.Details[i].SaleID = id
			detailID, err := tx.InsertDetail(ctx, sale.Details[i])
			if err != nil {
				return err
			}
			sale.Details[i].ID = detailID
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, fmt.Errorf("sales: persist sale: %w", err)
	}

	result := RecordResult{Sale: sale, Deductions: s.deduct(ctx, sale, byID)}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			StoreID:  storeID,
			Action:   "SALE_RECORD",
			Entity:   "sale",
			EntityID: strconv.FormatInt(sale.ID, 10),
			Meta:     map[string]any{"total": sale.TotalAmount.String(), "lines": len(sale.Details)},
			At:       now,
		}); err != nil {
			s.logger.Warn("sales audit", slog.Any("error", err))
		}
	}
	return result, nil
}

// List returns recent sales of the store.
func (s *Service) List(ctx context.Context, storeID int64, limit int) ([]Sale, error) {
	return s.repo.List(ctx, storeID, limit)
}

func (s *Service) resolve(line ReceiptLine, candidates []matching.Candidate, byID map[int64]menu.View) (Detail, error) {
	d := Detail{
		MenuNameDetected: line.Name,
		Quantity:         line.Quantity,
		UnitPrice:        line.UnitPrice,
		Subtotal:         line.Subtotal,
	}
	if d.Subtotal.IsZero() {
		d.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	}
	d.Candidates = s.matcher.Match(line.Name, candidates)
	if line.MenuID != nil {
		v, ok := byID[*line.MenuID]
		if !ok {
			return Detail{}, ErrUnknownMenu
		}
		id := v.ID
		d.MenuID = &id
		d.MenuName = v.Name
		d.IsMatched = true
		d.Similarity = matching.Similarity(line.Name, v.Name)
		return d, nil
	}
	if best, ok := matching.Best(d.Candidates); ok {
		id := best.MenuID
		d.MenuID = &id
		d.MenuName = best.MenuName
		d.Similarity = best.Similarity
		d.IsMatched = true
		return d, nil
	}
	if len(d.Candidates) > 0 {
		d.Similarity = d.Candidates[0].Similarity
	}
	d.RequiresReview = true
	return d, nil
}

func (s *Service) deduct(ctx context.Context, sale Sale, byID map[int64]menu.View) []Deduction {
	needed := map[int64]int{}
	var order []int64
	for _, d := range sale.Details {
		if d.MenuID == nil {
			continue
		}
		qty := decimal.NewFromInt(int64(d.Quantity))
		for _, line := range byID[*d.MenuID].Lines {
			units := int(line.QuantityRequired.Mul(qty).Ceil().IntPart())
			if units <= 0 {
				continue
			}
			if _, ok := needed[line.ProductID]; !ok {
				order = append(order, line.ProductID)
			}
			needed[line.ProductID] += units
		}
	}
	out := make([]Deduction, 0, len(order))
	ref := "SALE-" + strconv.FormatInt(sale.ID, 10)
	for _, productID := range order {
		mv, err := s.inventory.Adjust(ctx, sale.StoreID, productID, inventory.AdjustmentInput{
			Delta:     -needed[productID],
			Reason:    "sale",
			Reference: ref,
		})
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, shared.ErrNotFound) {
				level = slog.LevelWarn
			}
			s.logger.Log(ctx, level, "sales deduction failed",
				slog.Int64("sale_id", sale.ID),
				slog.Int64("product_id", productID),
				slog.Any("error", err))
			out = append(out, Deduction{ProductID: productID, Requested: needed[productID]})
			continue
		}
		out = append(out, Deduction{ProductID: productID, Requested: needed[productID], Applied: -mv.Delta})
	}
	return out
}

func menuIndex(views []menu.View) ([]matching.Candidate, map[int64]menu.View) {
	candidates := make([]matching.Candidate, 0, len(views))
	byID := make(map[int64]menu.View, len(views))
	for _, v := range views {
		candidates = append(candidates, matching.Candidate{ID: v.ID, Name: v.Name})
		byID[v.ID] = v
	}
	return candidates, byID
}
