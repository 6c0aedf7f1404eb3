package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-store/internal/analytics"
	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/observability"
	"github.com/odyssey-erp/odyssey-store/internal/procurement"
	"github.com/odyssey-erp/odyssey-store/internal/sales"
	"github.com/odyssey-erp/odyssey-store/jobs"
	_ "github.com/odyssey-erp/odyssey-store/testing"
)

func memoryConfig() *Config {
	return &Config{
		AppEnv:            "test",
		StorageDriver:     StorageMemory,
		CartTTL:           72 * time.Hour,
		DashboardCacheTTL: 10 * time.Minute,
		RateLimitPerMin:   1000,
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := memoryConfig()
	svc := NewServices(cfg, logger, Infra{})
	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		SupplierHandler:    suppliers.NewHandler(logger, svc.Suppliers),
		InventoryHandler:   inventory.NewHandler(logger, svc.Inventory),
		ProcurementHandler: procurement.NewHandler(logger, svc.Procurement),
		MenuHandler:        menu.NewHandler(logger, svc.Menus),
		SalesHandler:       sales.NewHandler(logger, svc.Sales),
		AnalyticsHandler:   analytics.NewHandler(logger, svc.Analytics),
		JobHandler:         jobs.NewHandler(nil, nil, logger),
		Metrics:            observability.NewMetrics(),
	})
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out), rec.Body.String())
	return out
}

func TestRouterStoreFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/suppliers", `{"code":"FF","name":"Fresh Farm","order_contact_url":"https://farm.example/order"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	supplier := decode[suppliers.Supplier](t, rec)
	sid := strconv.FormatInt(supplier.ID, 10)

	rec = call(t, router, http.MethodPost, "/stores/1/inventory",
		`{"name":"Eggs","unit":"pc","current_stock":3,"minimum_stock":10,"maximum_stock":40,"unit_cost":"25","supplier_id":`+sid+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eggs := decode[inventory.Item](t, rec)

	rec = call(t, router, http.MethodPost, "/stores/1/procurement/cart/generate", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cart := decode[procurement.Cart](t, rec)
	require.Len(t, cart.Groups, 1)
	assert.Equal(t, "Fresh Farm", cart.Groups[0].SupplierName)
	assert.Equal(t, 17, cart.Groups[0].Items[0].SuggestedQuantity)

	rec = call(t, router, http.MethodPost, "/stores/1/procurement/cart/finalize", `{"supplier_id":`+sid+`,"expected_delivery":"2030-01-02T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[procurement.Order](t, rec)
	assert.True(t, strings.HasPrefix(order.Number, "PO-"))
	rec = call(t, router, http.MethodGet, "/stores/1/procurement/cart", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, router, http.MethodPost, "/stores/1/procurement/cart/generate", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(t, router, http.MethodDelete, "/stores/1/procurement/cart", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = call(t, router, http.MethodDelete, "/stores/1/procurement/cart", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, router, http.MethodPost, "/stores/1/menus", `{"name":"たまご焼き","price":"300"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[menu.Menu](t, rec)
	rec = call(t, router, http.MethodPost, "/stores/1/menus/"+strconv.FormatInt(m.ID, 10)+"/recipe-lines",
		`{"product_id":`+strconv.FormatInt(eggs.ProductID, 10)+`,"quantity_required":"2","unit":"pc"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/stores/1/sales", `{"lines":[{"name":"タマゴ焼き","quantity":1,"unit_price":"300"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[sales.RecordResult](t, rec)
	require.Len(t, result.Deductions, 1)
	assert.Equal(t, 2, result.Deductions[0].Applied)

	rec = call(t, router, http.MethodGet, "/stores/1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[analytics.Dashboard](t, rec)
	assert.Equal(t, 1, dash.ItemCount)
	assert.Equal(t, 1, dash.ReorderLines)
	assert.True(t, dash.InventoryValue.IsPositive())
}

func TestRouterInfrastructureEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := call(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = call(t, router, http.MethodGet, "/jobs/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/stores/1/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = call(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `odyssey_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestTestModeIsDetected(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}
