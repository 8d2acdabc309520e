package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/mailer"
)

// Mailer matches mailer.Client.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// NotificationHandler turns sale events into staff emails. Errors
// propagate so the consumer does not commit the message and the broker
// redelivers it.
type NotificationHandler struct {
	mail        Mailer
	notifyEmail string
	logger      *slog.Logger
}

func NewNotificationHandler(mail Mailer, notifyEmail string, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		mail:        mail,
		notifyEmail: notifyEmail,
		logger:      logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.SaleEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal sale event: %w", err)
	}

	h.logger.Info("processing sale event", "order_ref", event.OrderRef, "status", event.Status)

	var msg mailer.Message
	switch event.Status {
	case domain.SaleCompleted:
		msg = h.completedMessage(event)
	case domain.SaleReverted:
		msg = h.revertedMessage(event)
	default:
		h.logger.Warn("ignoring sale event with unknown status", "status", event.Status)
		return nil
	}

	if err := h.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send sale notification: %w", err)
	}

	h.logger.Info("sale notification sent", "order_ref", event.OrderRef)
	return nil
}

func (h *NotificationHandler) completedMessage(event domain.SaleEvent) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Sale completed for order %s.\n", event.OrderRef)
	if len(event.Slugs) > 0 {
		fmt.Fprintf(&b, "Pieces: %s\n", strings.Join(event.Slugs, ", "))
	}
	if event.AmountCents > 0 {
		fmt.Fprintf(&b, "Amount: $%.2f\n", float64(event.AmountCents)/100)
	}
	if event.BuyerEmail != "" {
		fmt.Fprintf(&b, "Buyer: %s\n", event.BuyerEmail)
	}

	return mailer.Message{
		From:    "orders@galleria.local",
		To:      []string{h.notifyEmail},
		Subject: "Sale completed: " + event.OrderRef,
		Text:    b.String(),
	}
}

func (h *NotificationHandler) revertedMessage(event domain.SaleEvent) mailer.Message {
	text := fmt.Sprintf("Payment for order %s was canceled or failed. The pieces are back on sale.\n", event.OrderRef)

	return mailer.Message{
		From:    "orders@galleria.local",
		To:      []string{h.notifyEmail},
		Subject: "Sale reverted: " + event.OrderRef,
		Text:    text,
	}
}
