package sales

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Handler exposes receipt import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes below /stores/{storeID}/sales.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Post("/preview", h.preview)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sales, err := h.service.List(r.Context(), storeID, httpx.QueryInt(r, "limit", 20))
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sales})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	details, err := h.service.Preview(r.Context(), storeID, req)
	if err != nil {
		h.fail(w, "preview receipt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lines": details})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	storeID, err := httpx.ParamInt64(r, "storeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Record(r.Context(), storeID, req)
	if err != nil {
		h.fail(w, "record sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
