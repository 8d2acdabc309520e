package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/camila-duarte/galleria/internal/domain"
)

const listCacheControl = "public, s-maxage=60, stale-while-revalidate=120"

type Handler struct {
	source Source
	logger *slog.Logger
}

func NewHandler(source Source, logger *slog.Logger) *Handler {
	return &Handler{
		source: source,
		logger: logger,
	}
}

type listResponse struct {
	Items  []domain.Product `json:"items"`
	Count  int              `json:"count"`
	Source Origin           `json:"source"`
}

type itemResponse struct {
	Item   *domain.Product `json:"item"`
	Source Origin          `json:"source"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, origin, err := h.source.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list inventory", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if items == nil {
		items = []domain.Product{}
	}

	w.Header().Set("Cache-Control", listCacheControl)
	h.logger.Info("inventory listed", "count", len(items), "source", origin)
	h.writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items), Source: origin})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	if identifier == "" {
		h.writeError(w, http.StatusBadRequest, "missing identifier")
		return
	}

	item, origin, err := h.source.Get(r.Context(), identifier)
	if err != nil {
		h.logger.Error("failed to get inventory item", "error", err, "identifier", identifier)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if item == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]any{"error": "item not found", "source": origin})
		return
	}

	h.logger.Info("inventory item retrieved", "identifier", identifier, "source", origin)
	h.writeJSON(w, http.StatusOK, itemResponse{Item: item, Source: origin})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
