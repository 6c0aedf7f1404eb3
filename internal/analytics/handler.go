package analytics

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Handler serves the store dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes below /stores/{storeID}/dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Dashboard(r.Context(), storeID)
	if err != nil {
		h.logger.Error("load dashboard", slog.Int64("store_id", storeID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, d)
}
