package procurement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Handler manages procurement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes below /stores/{storeID}/procurement.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.discardCart)
		r.Post("/generate", h.generateCart)
		r.Patch("/lines/{productID}", h.updateLine)
		r.Delete("/lines/{productID}", h.removeLine)
		r.Post("/finalize", h.finalize)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/status", h.updateStatus)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cart, err := h.service.Cart(r.Context(), storeID)
	if err != nil {
		h.fail(w, "load cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) discardCart(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DiscardCart(r.Context(), storeID); err != nil {
		h.fail(w, "discard cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateCart(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cart, err := h.service.GenerateCart(r.Context(), storeID)
	if err != nil {
		h.fail(w, "generate cart", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cart)
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := pathIDs(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input QuantityInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cart, err := h.service.UpdateQuantity(r.Context(), storeID, productID, input.Quantity)
	if err != nil {
		h.fail(w, "update cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := pathIDs(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cart, err := h.service.RemoveItem(r.Context(), storeID, productID)
	if err != nil {
		h.fail(w, "remove cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input FinalizeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Finalize(r.Context(), storeID, input)
	if err != nil {
		h.fail(w, "finalize order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	status := OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.service.ListOrders(r.Context(), storeID, status, httpx.QueryInt(r, "limit", 50))
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, err := pathIDs(r, "orderID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.GetOrder(r.Context(), storeID, orderID)
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, err := pathIDs(r, "orderID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input StatusInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), storeID, orderID, input)
	if err != nil {
		h.fail(w, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathIDs(r *http.Request, name string) (int64, int64, error) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		return 0, 0, err
	}
	id, err := httpx.ParamInt64(r, name)
	if err != nil {
		return 0, 0, err
	}
	return storeID, id, nil
}
