package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-store/internal/analytics"
	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/procurement"
	"github.com/odyssey-erp/odyssey-store/internal/sales"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// Infra carries the external connections. Pool is nil for the memory
// storage driver and Redis is nil when no Redis is reachable.
type Infra struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Services is the wired set of domain services shared by the HTTP server
// and the worker.
type Services struct {
	Suppliers   *suppliers.Service
	Inventory   *inventory.Service
	Procurement *procurement.Service
	Menus       *menu.Service
	Sales       *sales.Service
	Analytics   *analytics.Service
	Cache       *analytics.Cache
	// Idempotency is nil without PostgreSQL.
	Idempotency *shared.IdempotencyStore
}

type auditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewServices builds every domain service on top of the configured storage.
func NewServices(cfg *Config, logger *slog.Logger, infra Infra) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	cache := analytics.NewCache(infra.Redis, cfg.DashboardCacheTTL)

	var (
		audit         auditRecorder = shared.SlogAuditor{Logger: logger}
		supplierRepo  suppliers.Repository
		inventoryRepo inventory.RepositoryPort
		procureRepo   procurement.RepositoryPort
		menuRepo      menu.RepositoryPort
		salesRepo     sales.RepositoryPort
		idempotency   *shared.IdempotencyStore
	)
	if cfg.UsesPostgres() && infra.Pool != nil {
		audit = shared.NewAuditLogger(infra.Pool)
		supplierRepo = suppliers.NewRepository(infra.Pool)
		inventoryRepo = inventory.NewRepository(infra.Pool)
		procureRepo = procurement.NewRepository(infra.Pool)
		menuRepo = menu.NewRepository(infra.Pool)
		salesRepo = sales.NewRepository(infra.Pool)
		idempotency = shared.NewIdempotencyStore(infra.Pool)
	} else {
		supplierRepo = suppliers.NewMemoryRepository()
		inventoryRepo = inventory.NewMemoryRepository()
		procureRepo = procurement.NewMemoryRepository()
		menuRepo = menu.NewMemoryRepository()
		salesRepo = sales.NewMemoryRepository()
	}

	var carts procurement.CartStore = procurement.NewMemoryCartStore()
	if infra.Redis != nil {
		carts = procurement.NewRedisCartStore(infra.Redis, cfg.CartTTL)
	}

	supplierSvc := suppliers.NewService(supplierRepo)
	inventorySvc := inventory.NewService(inventoryRepo, audit, cache, inventory.ServiceConfig{Logger: logger})
	procCfg := procurement.ServiceConfig{Logger: logger}
	if idempotency != nil {
		procCfg.Idempotency = idempotency
	}
	procurementSvc := procurement.NewService(procureRepo, carts, inventorySvc, supplierSvc, audit, cache, procCfg)
	menuSvc := menu.NewService(menuRepo, inventorySvc, audit, cache, logger)
	salesSvc := sales.NewService(salesRepo, menuSvc, inventorySvc, audit, logger)
	analyticsSvc := analytics.NewService(inventorySvc, menuSvc, cache, logger)

	return &Services{
		Suppliers:   supplierSvc,
		Inventory:   inventorySvc,
		Procurement: procurementSvc,
		Menus:       menuSvc,
		Sales:       salesSvc,
		Analytics:   analyticsSvc,
		Cache:       cache,
		Idempotency: idempotency,
	}
}
