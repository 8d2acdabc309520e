package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	client := NewClient("re-key", WithBaseURL(srv.URL))

	msg := Message{
		From:    "orders@galleria.local",
		To:      []string{"staff@example.com"},
		Subject: "New order order-1",
		Text:    "Order order-1 requires shipping.",
	}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subject != msg.Subject || got.To[0] != "staff@example.com" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestClient_SendAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	client := NewClient("re-key", WithBaseURL(srv.URL))
	if err := client.Send(context.Background(), Message{From: "bad"}); err == nil {
		t.Error("expected error on non-2xx response")
	}
}

func TestClient_Disabled(t *testing.T) {
	client := NewClient("")
	if client.Enabled() {
		t.Error("client without an api key must report disabled")
	}
	if err := client.Send(context.Background(), Message{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}
