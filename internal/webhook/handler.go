package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/payment"
)

// SignatureHeader is where the provider puts the HMAC of the delivery.
const SignatureHeader = "X-Square-Hmacsha256-Signature"

// Reconciler is the catalog surface the webhook needs: mark rows sold or
// revert them, both keyed by the provider order reference.
type Reconciler interface {
	MarkSoldByOrderRef(ctx context.Context, orderRef string, soldAt time.Time) (int64, error)
	RevertSaleByOrderRef(ctx context.Context, orderRef string) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Handler keeps inventory consistent with the provider's view of each
// payment, independent of whether the synchronous checkout path finished
// its own inventory update.
type Handler struct {
	signatureKey    string
	notificationURL string
	reconciler      Reconciler
	publisher       EventPublisher
	logger          *slog.Logger
}

func NewHandler(signatureKey, notificationURL string, reconciler Reconciler, publisher EventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		signatureKey:    signatureKey,
		notificationURL: notificationURL,
		reconciler:      reconciler,
		publisher:       publisher,
		logger:          logger,
	}
}

type paymentPayload struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type eventPayload struct {
	Type      string `json:"type"`
	EventID   string `json:"event_id"`
	CreatedAt string `json:"created_at"`
	Data      struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		Object struct {
			Payment *paymentPayload `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !payment.VerifySignature(h.signatureKey, h.notificationURL, body, signature) {
		h.logger.Warn("webhook signature rejected")
		h.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event eventPayload
	if err := json.Unmarshal(body, &event); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	pay := event.Data.Object.Payment
	if pay == nil || pay.OrderID == "" {
		// Nothing to reconcile; acknowledge so the provider stops
		// redelivering.
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if h.reconciler == nil {
		// Signature verified but no database to reconcile against; 500 so
		// the provider redelivers once the database is back.
		h.writeError(w, http.StatusInternalServerError, "reconciliation unavailable")
		return
	}

	status := strings.ToLower(pay.Status)
	switch status {
	case "completed":
		h.reconcileCompleted(r.Context(), w, pay)
	case "canceled", "failed":
		h.reconcileReverted(r.Context(), w, pay, status)
	default:
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *Handler) reconcileCompleted(ctx context.Context, w http.ResponseWriter, pay *paymentPayload) {
	soldAt := parseTimestamp(pay.UpdatedAt, pay.CreatedAt)

	rows, err := h.reconciler.MarkSoldByOrderRef(ctx, pay.OrderID, soldAt)
	if err != nil {
		// 500 so the provider retries the delivery.
		h.logger.Error("failed to mark inventory sold from webhook", "error", err, "order_id", pay.OrderID)
		h.writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	h.publish(ctx, domain.SaleEvent{
		OrderRef:  pay.OrderID,
		Status:    domain.SaleCompleted,
		Timestamp: soldAt,
	})

	h.logger.Info("webhook reconciled sale", "order_id", pay.OrderID, "rows", rows)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

func (h *Handler) reconcileReverted(ctx context.Context, w http.ResponseWriter, pay *paymentPayload, status string) {
	rows, err := h.reconciler.RevertSaleByOrderRef(ctx, pay.OrderID)
	if err != nil {
		h.logger.Error("failed to revert sale from webhook", "error", err, "order_id", pay.OrderID)
		h.writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	h.publish(ctx, domain.SaleEvent{
		OrderRef:  pay.OrderID,
		Status:    domain.SaleReverted,
		Timestamp: time.Now().UTC(),
	})

	h.logger.Info("webhook reverted sale", "order_id", pay.OrderID, "status", status, "rows", rows)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

func (h *Handler) publish(ctx context.Context, event domain.SaleEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, event.OrderRef, event); err != nil {
		h.logger.Error("failed to publish sale event", "error", err, "order_ref", event.OrderRef)
	}
}

func parseTimestamp(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t
		}
	}
	return time.Now().UTC()
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
