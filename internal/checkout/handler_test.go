package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/camila-duarte/galleria/internal/payment"
)

func TestHandler_HandleCheckout(t *testing.T) {
	body := `{"sourceId":"tok-abc","cartItems":[{"productId":"p1","name":"Ember Field","price":25,"quantity":1,"slug":"ember-field"}]}`

	t.Run("successful checkout returns the payment", func(t *testing.T) {
		client := &stubPaymentClient{orderID: "order-1"}
		svc := NewService(client, nil, nil, "", nil, testLogger())
		h := NewHandler(svc, &ClientConfig{Environment: "sandbox"}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var result Result
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.OrderID != "order-1" {
			t.Errorf("expected order id order-1, got %q", result.OrderID)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		svc := NewService(&stubPaymentClient{orderID: "order-1"}, nil, nil, "", nil, testLogger())
		h := NewHandler(svc, nil, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("validation errors return 400", func(t *testing.T) {
		svc := NewService(&stubPaymentClient{orderID: "order-1"}, nil, nil, "", nil, testLogger())
		h := NewHandler(svc, nil, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"sourceId":"","cartItems":[]}`))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unconfigured payments return 503", func(t *testing.T) {
		svc := NewService(nil, nil, nil, "", nil, testLogger())
		h := NewHandler(svc, nil, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("provider rejection returns a generic 500", func(t *testing.T) {
		client := &stubPaymentClient{orderErr: &payment.APIError{
			StatusCode: 402,
			Body:       []byte(`{"errors":[{"code":"CARD_DECLINED","detail":"insufficient funds"}]}`),
		}}
		svc := NewService(client, nil, nil, "", nil, testLogger())
		h := NewHandler(svc, nil, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "CARD_DECLINED") {
			t.Error("provider details must not leak to the client")
		}
	})
}

func TestHandler_HandleConfig(t *testing.T) {
	t.Run("returns the public provider config", func(t *testing.T) {
		cfg := &ClientConfig{Environment: "sandbox", ApplicationID: "app-1", LocationID: "loc-1"}
		h := NewHandler(NewService(nil, nil, nil, "", nil, testLogger()), cfg, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/checkout/config", nil)
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got ClientConfig
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got != *cfg {
			t.Errorf("unexpected config: %+v", got)
		}
	})

	t.Run("nil config returns 503", func(t *testing.T) {
		h := NewHandler(NewService(nil, nil, nil, "", nil, testLogger()), nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/checkout/config", nil)
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}
