package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListOrders(ctx context.Context, storeID int64, status OrderStatus, limit int) ([]Order, error)
	GetOrder(ctx context.Context, storeID, orderID int64) (Order, error)
}

// InventoryPort exposes required inventory integration.
type InventoryPort interface {
	LowStock(ctx context.Context, storeID int64) ([]inventory.ItemView, error)
	Adjust(ctx context.Context, storeID, productID int64, input inventory.AdjustmentInput) (inventory.Movement, error)
}

// SupplierDirectory resolves supplier names for cart groups.
type SupplierDirectory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]suppliers.Supplier, error)
}

// IdempotencyPort guards against processing the same request twice.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached read models after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Logger      *slog.Logger
	Clock       func() time.Time
	Idempotency IdempotencyPort
}

// Service orchestrates procurement flows.
type Service struct {
	repo        RepositoryPort
	carts       CartStore
	inventory   InventoryPort
	suppliers   SupplierDirectory
	audit       AuditPort
	invalidator Invalidator
	idempotency IdempotencyPort
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, carts CartStore, inv InventoryPort, dir SupplierDirectory, audit AuditPort, invalidator Invalidator, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:        repo,
		carts:       carts,
		inventory:   inv,
		suppliers:   dir,
		audit:       audit,
		invalidator: invalidator,
		idempotency: cfg.Idempotency,
		logger:      logger,
		now:         clock,
	}
}

// Suggestions lists a reorder suggestion for every low or critical item.
func (s *Service) Suggestions(ctx context.Context, storeID int64) ([]ReorderSuggestion, error) {
	items, err := s.inventory.LowStock(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("procurement: low stock: %w", err)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.SupplierID)
	}
	names, err := s.lookupSuppliers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ReorderSuggestion, 0, len(items))
	for _, item := range items {
		price := decimal.Zero
		if item.UnitCost.Valid {
			price = item.UnitCost.Decimal
		} else {
			s.logger.Warn("reorder suggestion without unit cost",
				slog.Int64("store_id", storeID),
				slog.Int64("product_id", item.ProductID))
		}
		out = append(out, ReorderSuggestion{
			ProductID:         item.ProductID,
			ProductName:       item.Name,
			Unit:              item.Unit,
			SupplierID:        item.SupplierID,
			SupplierName:      names[item.SupplierID].Name,
			CurrentStock:      item.CurrentStock,
			MinimumStock:      item.MinimumStock,
			SuggestedQuantity: item.SuggestedQuantity,
			UnitPrice:         price,
			TotalPrice:        lineTotal(price, item.SuggestedQuantity),
		})
	}
	return out, nil
}

// GenerateCart replaces the store's cart with fresh suggestions.
func (s *Service) GenerateCart(ctx context.Context, storeID int64) (*Cart, error) {
	suggestions, err := s.Suggestions(ctx, storeID)
	if err != nil {
		return nil, err
	}
	cart := GroupBySupplier(storeID, suggestions)
	cart.Revision = uuid.NewString()
	cart.GeneratedAt = s.now()
	ids := make([]int64, 0, len(cart.Groups))
	for _, g := range cart.Groups {
		ids = append(ids, g.SupplierID)
	}
	dir, err := s.lookupSuppliers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range cart.Groups {
		g.OrderContactURL = dir[g.SupplierID].OrderContactURL
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Cart returns the store's current cart. A cart whose lines were all
// finalized or removed reads as ErrCartNotFound.
func (s *Service) Cart(ctx context.Context, storeID int64) (*Cart, error) {
	cart, err := s.carts.Load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// UpdateQuantity edits one cart line.
func (s *Service) UpdateQuantity(ctx context.Context, storeID, productID int64, qty int) (*Cart, error) {
	return s.editCart(ctx, storeID, func(c *Cart) error { return c.UpdateQuantity(productID, qty) })
}

// RemoveItem drops one cart line.
func (s *Service) RemoveItem(ctx context.Context, storeID, productID int64) (*Cart, error) {
	return s.editCart(ctx, storeID, func(c *Cart) error { return c.RemoveItem(productID) })
}

// DiscardCart drops the store's cart. Orders already finalized stay.
func (s *Service) DiscardCart(ctx context.Context, storeID int64) error {
	if _, err := s.carts.Load(ctx, storeID); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, storeID); err != nil {
		return fmt.Errorf("procurement: discard cart: %w", err)
	}
	return nil
}

// cartSaveAttempts bounds the reload-and-reapply loop on ErrCartConflict.
const cartSaveAttempts = 3

// editCart applies edit to the latest stored cart. A concurrent save makes
// it reload and apply the edit again.
func (s *Service) editCart(ctx context.Context, storeID int64, edit func(*Cart) error) (*Cart, error) {
	for attempt := 1; ; attempt++ {
		cart, err := s.carts.Load(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if err := edit(cart); err != nil {
			return nil, err
		}
		err = s.carts.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCartConflict) || attempt == cartSaveAttempts {
			return nil, err
		}
		s.logger.Debug("procurement cart conflict, retrying", slog.Int64("store_id", storeID), slog.Int("attempt", attempt))
	}
}

// discardGroup removes a finalized supplier group from the stored cart. A
// cart regenerated or dropped meanwhile is left alone.
func (s *Service) discardGroup(ctx context.Context, cart *Cart, supplierID int64) error {
	revision := cart.Revision
	for attempt := 1; ; attempt++ {
		cart.Discard(supplierID)
		err := s.carts.Save(ctx, cart)
		if err == nil || !errors.Is(err, ErrCartConflict) || attempt == cartSaveAttempts {
			return err
		}
		cart, err = s.carts.Load(ctx, cart.StoreID)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if cart.Revision != revision {
			return nil
		}
	}
}

// Finalize turns one supplier group of the cart into a pending order. The
// group leaves the cart only after the order was stored.
func (s *Service) Finalize(ctx context.Context, storeID int64, input FinalizeInput) (Order, error) {
	if err := shared.Validate(input); err != nil {
		return Order{}, err
	}
	cart, err := s.carts.Load(ctx, storeID)
	if err != nil {
		return Order{}, err
	}
	now := s.now()
	order, err := cart.PrepareOrder(input, now)
	if err != nil {
		return Order{}, err
	}
	order.Number = generateNumber("PO", now)

	key := fmt.Sprintf("CART:%s:%d", cart.Revision, input.SupplierID)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement.finalize"); err != nil {
			return Order{}, err
		}
		inserted = true
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		for i := range order.Lines {
			order.Lines[i].OrderID = id
			lineID, err := tx.InsertOrderLine(ctx, order.Lines[i])
			if err != nil {
				return err
			}
			order.Lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Order{}, fmt.Errorf("procurement: persist order: %w", err)
	}

	if err := s.discardGroup(ctx, cart, input.SupplierID); err != nil {
		s.logger.Warn("procurement cart update after finalize", slog.Int64("store_id", storeID), slog.Any("error", err))
	}
	s.afterMutation(ctx, storeID, "PO_CREATE", order.ID, map[string]any{
		"number":      order.Number,
		"supplier_id": order.SupplierID,
		"total":       order.TotalAmount.String(),
	})
	return order, nil
}

// ListOrders returns the store's orders.
func (s *Service) ListOrders(ctx context.Context, storeID int64, status OrderStatus, limit int) ([]Order, error) {
	if status != "" && !validStatus(status) {
		return nil, shared.NewValidationError("status", "unknown order status")
	}
	return s.repo.ListOrders(ctx, storeID, status, limit)
}

// GetOrder returns one order with lines.
func (s *Service) GetOrder(ctx context.Context, storeID, orderID int64) (Order, error) {
	return s.repo.GetOrder(ctx, storeID, orderID)
}

// UpdateStatus moves an order along pending → ordered → received, or to
// cancelled. Receiving adds the ordered quantities to inventory.
func (s *Service) UpdateStatus(ctx context.Context, storeID, orderID int64, input StatusInput) (Order, error) {
	if err := shared.Validate(input); err != nil {
		return Order{}, err
	}
	key := fmt.Sprintf("PO:%d:%s", orderID, input.Status)
	inserted := false
	if input.Status == OrderReceived && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement.receive"); err != nil {
			return Order{}, err
		}
		inserted = true
	}
	var order Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, storeID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(input.Status) {
			return ErrInvalidTransition
		}
		order.Status = input.Status
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrderStatus(ctx, orderID, order.Status, order.UpdatedAt); err != nil {
			return err
		}
		if order.Status != OrderReceived {
			return nil
		}
		for _, line := range order.Lines {
			if line.Quantity <= 0 {
				continue
			}
			_, err := s.inventory.Adjust(ctx, storeID, line.ProductID, inventory.AdjustmentInput{
				Delta:     line.Quantity,
				Reason:    "receipt",
				Reference: order.Number,
			})
			if err != nil {
				return fmt.Errorf("procurement: receive product %d: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Order{}, err
	}
	s.afterMutation(ctx, storeID, "PO_STATUS", orderID, map[string]any{"status": string(order.Status)})
	return order, nil
}

func (s *Service) lookupSuppliers(ctx context.Context, ids []int64) (map[int64]suppliers.Supplier, error) {
	if s.suppliers == nil {
		return map[int64]suppliers.Supplier{}, nil
	}
	dir, err := s.suppliers.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("procurement: supplier lookup: %w", err)
	}
	return dir, nil
}

func (s *Service) afterMutation(ctx context.Context, storeID int64, action string, entityID int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			StoreID:  storeID,
			Action:   action,
			Entity:   "purchase_order",
			EntityID: strconv.FormatInt(entityID, 10),
			Meta:     meta,
			At:       s.now(),
		}); err != nil {
			s.logger.Warn("procurement audit", slog.Any("error", err))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("procurement cache bump", slog.Any("error", err))
		}
	}
}

func validStatus(status OrderStatus) bool {
	switch status {
	case OrderPending, OrderOrdered, OrderReceived, OrderCancelled:
		return true
	}
	return false
}

func generateNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
