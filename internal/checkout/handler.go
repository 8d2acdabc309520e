package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/payment"
)

// ClientConfig is the public provider configuration the storefront needs
// to tokenize a card.
type ClientConfig struct {
	Environment   string `json:"environment"`
	ApplicationID string `json:"applicationId"`
	LocationID    string `json:"locationId"`
}

type Handler struct {
	service *Service
	config  *ClientConfig
	logger  *slog.Logger
}

// NewHandler takes a nil config when payments are unconfigured; both
// endpoints then answer 503.
func NewHandler(service *Service, config *ClientConfig, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		config:  config,
		logger:  logger,
	}
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	h.logger.Info("checkout succeeded", "order_id", result.OrderID)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		h.writeError(w, http.StatusServiceUnavailable, "checkout is not configured")
	case errors.Is(err, ErrMissingSourceID),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrBadQuantity):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) {
			// The raw provider payload goes to the log for operators; the
			// client gets a generic failure it can retry.
			h.logger.Error("provider rejected checkout",
				"status", apiErr.StatusCode, "body", string(apiErr.Body))
		} else {
			h.logger.Error("checkout failed", "error", err)
		}
		h.writeError(w, http.StatusInternalServerError, "payment failed, please try again or contact support")
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		h.writeError(w, http.StatusServiceUnavailable, "checkout is not configured")
		return
	}
	h.writeJSON(w, http.StatusOK, h.config)
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
