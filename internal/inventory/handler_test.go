package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc := NewService(NewMemoryRepository(), nil, nil, ServiceConfig{
		Clock: func() time.Time { return evalNow },
	})
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/stores/{storeID}/inventory", h.MountRoutes)
	return r, svc
}

func TestHandlerCreateAndList(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"Eggs","unit":"pcs","current_stock":3,"minimum_stock":10,"maximum_stock":60}`
	req := httptest.NewRequest(http.MethodPost, "/stores/7/inventory/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/stores/7/inventory/low-stock", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		Items []ItemView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, StockLow, payload.Items[0].Status)
	assert.Equal(t, 17, payload.Items[0].SuggestedQuantity)
}

func TestHandlerValidationProblem(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"Eggs","unit":"pcs","minimum_stock":10,"maximum_stock":5}`
	req := httptest.NewRequest(http.MethodPost, "/stores/7/inventory/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "maximum_stock")

	req = httptest.NewRequest(http.MethodPost, "/stores/7/inventory/", strings.NewReader(`{"nope":1}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerNotFoundAndBadTier(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stores/7/inventory/99", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/stores/7/inventory/expiration-risks?tier=soon", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/stores/abc/inventory/", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerAcceptsDateOnlyExpiration(t *testing.T) {
	router, svc := newTestRouter(t)

	body := `{"name":"Milk","unit":"l","current_stock":4,"minimum_stock":1,"maximum_stock":10,"expiration_date":"2025-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/stores/7/inventory/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotNil(t, created.ExpirationDate)
	assert.True(t, created.ExpirationDate.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

	view, err := svc.GetItem(req.Context(), 7, created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, RiskCritical, view.RiskTier)
	assert.Equal(t, 0, view.DaysToExpiration)

	body = `{"name":"Cream","unit":"l","current_stock":4,"minimum_stock":1,"maximum_stock":10,"expiration_date":"10/03/2025"}`
	req = httptest.NewRequest(http.MethodPost, "/stores/7/inventory/", strings.NewReader(body))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
