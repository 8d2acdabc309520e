package coupon

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	validator *Validator
	logger    *slog.Logger
}

func NewHandler(validator *Validator, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		logger:    logger,
	}
}

type validateRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result := h.validator.Validate(req.Code)
	h.logger.Info("coupon validated", "valid", result.Valid)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
