package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/mailer"
)

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func eventPayload(t *testing.T, event domain.SaleEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return data
}

func newTestHandler(mail Mailer) *NotificationHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotificationHandler(mail, "staff@example.com", logger)
}

func TestNotificationHandler_CompletedSale(t *testing.T) {
	mail := &recordingMailer{}
	h := newTestHandler(mail)

	payload := eventPayload(t, domain.SaleEvent{
		OrderRef:    "order-1",
		Status:      domain.SaleCompleted,
		Slugs:       []string{"ember-field", "quiet-harbor"},
		AmountCents: 4000,
		BuyerEmail:  "buyer@example.com",
		Timestamp:   time.Now().UTC(),
	})

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}

	msg := mail.sent[0]
	if msg.To[0] != "staff@example.com" {
		t.Errorf("unexpected recipient %q", msg.To[0])
	}
	if !strings.Contains(msg.Subject, "order-1") {
		t.Errorf("subject should name the order, got %q", msg.Subject)
	}
	for _, want := range []string{"ember-field", "$40.00", "buyer@example.com"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestNotificationHandler_RevertedSale(t *testing.T) {
	mail := &recordingMailer{}
	h := newTestHandler(mail)

	payload := eventPayload(t, domain.SaleEvent{
		OrderRef: "order-2",
		Status:   domain.SaleReverted,
	})

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0].Subject, "reverted") {
		t.Errorf("unexpected subject %q", mail.sent[0].Subject)
	}
}

func TestNotificationHandler_UnknownStatusSkipsWithoutError(t *testing.T) {
	mail := &recordingMailer{}
	h := newTestHandler(mail)

	payload := eventPayload(t, domain.SaleEvent{OrderRef: "order-3", Status: "refund_pending"})

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unknown statuses must be dropped, not redelivered: %v", err)
	}
	if len(mail.sent) != 0 {
		t.Errorf("expected no email, got %d", len(mail.sent))
	}
}

func TestNotificationHandler_ErrorsPropagateForRedelivery(t *testing.T) {
	t.Run("malformed payload", func(t *testing.T) {
		h := newTestHandler(&recordingMailer{})
		if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
			t.Error("expected error for malformed payload")
		}
	})

	t.Run("mail failure", func(t *testing.T) {
		mail := &recordingMailer{err: errors.New("provider down")}
		h := newTestHandler(mail)

		payload := eventPayload(t, domain.SaleEvent{OrderRef: "order-4", Status: domain.SaleCompleted})
		if err := h.Handle(context.Background(), payload); err == nil {
			t.Error("expected send failure to propagate so the message is redelivered")
		}
	})
}
