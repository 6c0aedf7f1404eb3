package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
)

// InventoryPort lists the evaluated items of a store.
type InventoryPort interface {
	ListItems(ctx context.Context, storeID int64) ([]inventory.ItemView, error)
}

// MenuPort lists the costed menus of a store.
type MenuPort interface {
	List(ctx context.Context, storeID int64) ([]menu.View, error)
}

// Dashboard is the per-store summary shown on the home screen.
type Dashboard struct {
	StoreID           int64                         `json:"store_id"`
	GeneratedAt       time.Time                     `json:"generated_at"`
	ItemCount         int                           `json:"item_count"`
	StatusCounts      map[inventory.StockStatus]int `json:"status_counts"`
	RiskTierCounts    map[inventory.RiskTier]int    `json:"risk_tier_counts"`
	InventoryValue    decimal.Decimal               `json:"inventory_value"`
	UncostedItems     int                           `json:"uncosted_items"`
	ReorderLines      int                           `json:"reorder_lines"`
	MenuCount         int                           `json:"menu_count"`
	UnprofitableMenus []UnprofitableMenu            `json:"unprofitable_menus"`
}

// UnprofitableMenu is a menu whose ingredient cost exceeds its price.
type UnprofitableMenu struct {
	MenuID int64           `json:"menu_id"`
	Name   string          `json:"name"`
	Profit decimal.Decimal `json:"profit"`
}

// Service builds dashboards with the cache layer in front.
type Service struct {
	inventory InventoryPort
	menus     MenuPort
	cache     *Cache
	group     singleflight.Group
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the data sources with a Cache helper. cache may be nil.
func NewService(inv InventoryPort, menus MenuPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		inventory: inv,
		menus:     menus,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// buildTimeout bounds a shared dashboard build, which outlives the request
// that started it.
const buildTimeout = 30 * time.Second

// Dashboard returns the cached summary of a store, building it on a miss.
// Concurrent misses for the same key share one build; a caller giving up
// does not cancel the build for the others.
func (s *Service) Dashboard(ctx context.Context, storeID int64) (Dashboard, error) {
	key, err := s.cache.DashboardKey(ctx, storeID)
	if err != nil {
		return Dashboard{}, err
	}
	ch := s.group.DoChan(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		return cached(bctx, s.cache, key, s.builder(storeID))
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

// Warm loads the dashboard of a store into the cache.
func (s *Service) Warm(ctx context.Context, storeID int64) error {
	_, err := s.Dashboard(ctx, storeID)
	return err
}

// Invalidate drops every cached dashboard.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) builder(storeID int64) func(context.Context) (Dashboard, error) {
	return func(ctx context.Context) (Dashboard, error) {
		return s.Build(ctx, storeID)
	}
}

// Build computes the dashboard without consulting the cache.
func (s *Service) Build(ctx context.Context, storeID int64) (Dashboard, error) {
	items, err := s.inventory.ListItems(ctx, storeID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: list items: %w", err)
	}
	views, err := s.menus.List(ctx, storeID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: list menus: %w", err)
	}

	d := Dashboard{
		StoreID:           storeID,
		GeneratedAt:       s.now(),
		ItemCount:         len(items),
		StatusCounts:      make(map[inventory.StockStatus]int, len(inventory.StockStatuses)),
		RiskTierCounts:    make(map[inventory.RiskTier]int, len(inventory.RiskTiers)),
		InventoryValue:    decimal.Zero,
		MenuCount:         len(views),
		UnprofitableMenus: []UnprofitableMenu{},
	}
	for _, st := range inventory.StockStatuses {
		d.StatusCounts[st] = 0
	}
	for _, tier := range inventory.RiskTiers {
		d.RiskTierCounts[tier] = 0
	}
	for _, item := range items {
		d.StatusCounts[item.Status]++
		d.RiskTierCounts[item.RiskTier]++
		if inventory.NeedsReorder(item.Status) {
			d.ReorderLines++
		}
		if !item.UnitCost.Valid {
			d.UncostedItems++
			continue
		}
		d.InventoryValue = d.InventoryValue.Add(item.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(item.CurrentStock))))
	}
	for _, v := range views {
		if v.Costing.Profit.IsNegative() {
			d.UnprofitableMenus = append(d.UnprofitableMenus, UnprofitableMenu{MenuID: v.ID, Name: v.Name, Profit: v.Costing.Profit})
		}
	}
	if d.UncostedItems > 0 {
		s.logger.Debug("dashboard excludes uncosted items",
			slog.Int64("store_id", storeID),
			slog.Int("count", d.UncostedItems))
	}
	return d, nil
}
