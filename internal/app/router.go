package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-store/internal/analytics"
	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/observability"
	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-store/internal/procurement"
	"github.com/odyssey-erp/odyssey-store/internal/sales"
	"github.com/odyssey-erp/odyssey-store/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SupplierHandler    *suppliers.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	MenuHandler        *menu.Handler
	SalesHandler       *sales.Handler
	AnalyticsHandler   *analytics.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.SupplierHandler != nil {
		r.Route("/suppliers", params.SupplierHandler.MountRoutes)
	}

	r.Route("/stores/{storeID}", func(r chi.Router) {
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.ProcurementHandler != nil {
			r.Route("/procurement", params.ProcurementHandler.MountRoutes)
		}
		if params.MenuHandler != nil {
			r.Route("/menus", params.MenuHandler.MountRoutes)
		}
		if params.SalesHandler != nil {
			r.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/dashboard", params.AnalyticsHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "")
	})

	return r
}
