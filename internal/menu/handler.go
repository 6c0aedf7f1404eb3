package menu

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Handler exposes menu endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the menu handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes below /stores/{storeID}/menus.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{menuID}", h.get)
	r.Put("/{menuID}", h.update)
	r.Post("/{menuID}/recipe-lines", h.addLine)
	r.Delete("/{menuID}/recipe-lines/{productID}", h.removeLine)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views, err := h.service.List(r.Context(), storeID)
	if err != nil {
		h.fail(w, "list menus", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	storeID, menuID, err := menuParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.Get(r.Context(), storeID, menuID)
	if err != nil {
		h.fail(w, "get menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input MenuInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), storeID, input)
	if err != nil {
		h.fail(w, "create menu", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	storeID, menuID, err := menuParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input MenuInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Update(r.Context(), storeID, menuID, input)
	if err != nil {
		h.fail(w, "update menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	storeID, menuID, err := menuParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input RecipeLineInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.AddRecipeLine(r.Context(), storeID, menuID, input)
	if err != nil {
		h.fail(w, "add recipe line", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	storeID, menuID, err := menuParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.ParamInt64(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.RemoveRecipeLine(r.Context(), storeID, menuID, productID)
	if err != nil {
		h.fail(w, "remove recipe line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func menuParams(r *http.Request) (int64, int64, error) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		return 0, 0, err
	}
	menuID, err := httpx.ParamInt64(r, "menuID")
	if err != nil {
		return 0, 0, err
	}
	return storeID, menuID, nil
}
