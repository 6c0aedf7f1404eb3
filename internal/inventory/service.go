package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListItems(ctx context.Context, storeID int64) ([]Item, error)
	GetItem(ctx context.Context, storeID, productID int64) (Item, error)
	ListStoreIDs(ctx context.Context) ([]int64, error)
	ListMovements(ctx context.Context, storeID, productID int64, limit int) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached read models after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, invalidator Invalidator, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{repo: repo, audit: audit, invalidator: invalidator, logger: logger, now: clock}
}

// Evaluate attaches stock status and expiration risk to an item.
func Evaluate(item Item, now time.Time) ItemView {
	status := EvaluateStock(item.Snapshot(), item.ExpirationDate, now)
	view := ItemView{Item: item, Status: status}
	if NeedsReorder(status) {
		view.SuggestedQuantity = SuggestedReorderQuantity(item.Snapshot())
	}
	risk := ClassifyExpiration(item.ProductID, item.ExpirationDate, now)
	view.DaysToExpiration = risk.DaysUntilExpiration
	view.RiskTier = risk.Tier
	return view
}

// ListItems returns the store's items with their evaluated status.
func (s *Service) ListItems(ctx context.Context, storeID int64) ([]ItemView, error) {
	items, err := s.repo.ListItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list items: %w", err)
	}
	now := s.now()
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, Evaluate(item, now))
	}
	return views, nil
}

// GetItem returns one evaluated item.
func (s *Service) GetItem(ctx context.Context, storeID, productID int64) (ItemView, error) {
	item, err := s.repo.GetItem(ctx, storeID, productID)
	if err != nil {
		return ItemView{}, err
	}
	return Evaluate(item, s.now()), nil
}

// LowStock returns the items whose status calls for reordering.
func (s *Service) LowStock(ctx context.Context, storeID int64) ([]ItemView, error) {
	views, err := s.ListItems(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]ItemView, 0, len(views))
	for _, v := range views {
		if NeedsReorder(v.Status) {
			out = append(out, v)
		}
	}
	return out, nil
}

// ExpirationRisks classifies every item and returns them most urgent first.
// An empty tier returns all tiers.
func (s *Service) ExpirationRisks(ctx context.Context, storeID int64, tier RiskTier) ([]RiskRecord, error) {
	if tier != "" && !tier.Valid() {
		return nil, shared.NewValidationError("tier", "unknown risk tier")
	}
	items, err := s.repo.ListItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list items: %w", err)
	}
	now := s.now()
	records := make([]RiskRecord, 0, len(items))
	for _, item := range items {
		rec := ClassifyExpiration(item.ProductID, item.ExpirationDate, now)
		if tier != "" && rec.Tier != tier {
			continue
		}
		rec.Name = item.Name
		records = append(records, rec)
	}
	SortByUrgency(records)
	return records, nil
}

// CreateItem adds a product to the store's inventory.
func (s *Service) CreateItem(ctx context.Context, storeID int64, input ItemInput) (Item, error) {
	if err := validateItemInput(input); err != nil {
		return Item{}, err
	}
	item := applyInput(Item{StoreID: storeID}, input)
	item.UpdatedAt = s.now()
	var created Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreateItem(ctx, item)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	s.afterMutation(ctx, storeID, "INVENTORY_ITEM_CREATE", created.ProductID, map[string]any{"name": created.Name})
	return created, nil
}

// UpdateItem replaces the editable fields of an item.
func (s *Service) UpdateItem(ctx context.Context, storeID, productID int64, input ItemInput) (Item, error) {
	if err := validateItemInput(input); err != nil {
		return Item{}, err
	}
	var updated Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetItemForUpdate(ctx, storeID, productID)
		if err != nil {
			return err
		}
		updated = applyInput(existing, input)
		updated.UpdatedAt = s.now()
		return tx.UpdateItem(ctx, updated)
	})
	if err != nil {
		return Item{}, err
	}
	s.afterMutation(ctx, storeID, "INVENTORY_ITEM_UPDATE", productID, map[string]any{"current_stock": updated.CurrentStock})
	return updated, nil
}

// Adjust applies a stock delta. Outbound deltas larger than the stock on
// hand are clamped so the balance never goes below zero.
func (s *Service) Adjust(ctx context.Context, storeID, productID int64, input AdjustmentInput) (Movement, error) {
	if input.Delta == 0 {
		return Movement{}, ErrZeroAdjustment
	}
	if err := shared.Validate(input); err != nil {
		return Movement{}, err
	}
	var mv Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, storeID, productID)
		if err != nil {
			return err
		}
		balance := max(item.CurrentStock+input.Delta, 0)
		if err := tx.SetStock(ctx, storeID, productID, balance); err != nil {
			return err
		}
		mv = Movement{
			StoreID:   storeID,
			ProductID: productID,
			Delta:     balance - item.CurrentStock,
			Balance:   balance,
			Reason:    input.Reason,
			Reference: input.Reference,
			CreatedAt: s.now(),
		}
		if mv.Delta != input.Delta {
			s.logger.Warn("inventory adjustment clamped",
				slog.Int64("store_id", storeID),
				slog.Int64("product_id", productID),
				slog.Int("requested", input.Delta),
				slog.Int("applied", mv.Delta))
		}
		mv.ID, err = tx.InsertMovement(ctx, mv)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.afterMutation(ctx, storeID, "INVENTORY_ADJUST", productID, map[string]any{"delta": mv.Delta, "reason": mv.Reason})
	return mv, nil
}

// ListMovements returns recent movements of an item.
func (s *Service) ListMovements(ctx context.Context, storeID, productID int64, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, storeID, productID, limit)
}

// UnitCosts returns the cost data of the requested products. Products the
// store does not stock are absent from the result.
func (s *Service) UnitCosts(ctx context.Context, storeID int64, productIDs []int64) (map[int64]UnitCost, error) {
	items, err := s.repo.ListItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list items: %w", err)
	}
	wanted := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[int64]UnitCost, len(productIDs))
	for _, item := range items {
		if _, ok := wanted[item.ProductID]; !ok && len(productIDs) > 0 {
			continue
		}
		out[item.ProductID] = UnitCost{ProductID: item.ProductID, Name: item.Name, Unit: item.Unit, Cost: item.UnitCost}
	}
	return out, nil
}

// ListStoreIDs lists stores that hold inventory.
func (s *Service) ListStoreIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListStoreIDs(ctx)
}

// Now exposes the service clock so callers evaluate with the same time.
func (s *Service) Now() time.Time {
	return s.now()
}

func validateItemInput(input ItemInput) error {
	if err := shared.Validate(input); err != nil {
		return err
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return shared.NewValidationError("unit_cost", "must be at least 0")
	}
	return nil
}

func applyInput(item Item, input ItemInput) Item {
	item.SKU = input.SKU
	item.Name = input.Name
	item.Unit = input.Unit
	item.CurrentStock = input.CurrentStock
	item.MinimumStock = input.MinimumStock
	item.MaximumStock = input.MaximumStock
	item.ExpirationDate = input.ExpirationDate.Ptr()
	item.UnitCost.Valid = input.UnitCost != nil
	if input.UnitCost != nil {
		item.UnitCost.Decimal = *input.UnitCost
	}
	item.SupplierID = input.SupplierID
	return item
}

func (s *Service) afterMutation(ctx context.Context, storeID int64, action string, productID int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			StoreID:  storeID,
			Action:   action,
			Entity:   "inventory_item",
			EntityID: strconv.FormatInt(productID, 10),
			Meta:     meta,
			At:       s.now(),
		}); err != nil {
			s.logger.Warn("inventory audit", slog.Any("error", err))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("inventory cache bump", slog.Any("error", err))
		}
	}
}
