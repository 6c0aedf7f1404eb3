package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes below /stores/{storeID}/inventory.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listItems)
	r.Post("/", h.createItem)
	r.Get("/low-stock", h.lowStock)
	r.Get("/expiration-risks", h.expirationRisks)
	r.Get("/{productID}", h.getItem)
	r.Put("/{productID}", h.updateItem)
	r.Post("/{productID}/adjust", h.adjust)
	r.Get("/{productID}/movements", h.movements)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListItems(r.Context(), storeID)
	if err != nil {
		h.fail(w, "list inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.LowStock(r.Context(), storeID)
	if err != nil {
		h.fail(w, "list low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) expirationRisks(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	records, err := h.service.ExpirationRisks(r.Context(), storeID, RiskTier(r.URL.Query().Get("tier")))
	if err != nil {
		h.fail(w, "list expiration risks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := itemParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), storeID, productID)
	if err != nil {
		h.fail(w, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), storeID, input)
	if err != nil {
		h.fail(w, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := itemParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), storeID, productID, input)
	if err != nil {
		h.fail(w, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := itemParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input AdjustmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mv, err := h.service.Adjust(r.Context(), storeID, productID, input)
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mv)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := itemParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	moves, err := h.service.ListMovements(r.Context(), storeID, productID, httpx.QueryInt(r, "limit", 50))
	if err != nil {
		h.fail(w, "list movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": moves})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func itemParams(r *http.Request) (int64, int64, error) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		return 0, 0, err
	}
	productID, err := httpx.ParamInt64(r, "productID")
	if err != nil {
		return 0, 0, err
	}
	return storeID, productID, nil
}
