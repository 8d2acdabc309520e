//go:build integration

package test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/camila-duarte/galleria/internal/catalog"
	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/messaging"
	"github.com/camila-duarte/galleria/internal/webhook"
)

func TestCatalogRepositoryFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, slug, name, price, status, sold_at, inventory_number)
		VALUES ($1, 'ember-field', 'Ember Field', 2500.00, 'active', NULL, 12),
		       ($2, 'quiet-harbor', 'Quiet Harbor', 980.00, 'active', NULL, 7),
		       ($3, 'archive-piece', 'Archive Piece', 450.00, 'coming_soon', NULL, 30),
		       ($4, 'legacy-sold', 'Legacy Sold', 600.00, 'active', NOW(), 3)
	`, uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString())
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}

	repo := catalog.NewRepository(db, "products")

	// legacy-sold has status=active but a non-null sold_at, so it must not
	// be listed even though the backfill migration has not touched it.
	products, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(products))
	}
	if products[0].Slug != "quiet-harbor" {
		t.Errorf("expected inventory-number ordering, got %s first", products[0].Slug)
	}

	got, err := repo.GetByInventoryNumber(ctx, 12)
	if err != nil {
		t.Fatalf("failed to get by inventory number: %v", err)
	}
	if got == nil || got.Slug != "ember-field" {
		t.Fatalf("unexpected product: %+v", got)
	}

	if missing, err := repo.GetBySlug(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil, nil for unknown slug, got %v, %v", missing, err)
	}

	soldAt := time.Now().UTC()
	if err := repo.MarkSold(ctx, []string{"ember-field"}, soldAt, "order-int-1"); err != nil {
		t.Fatalf("failed to mark sold: %v", err)
	}

	products, err = repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("sold pieces must leave the active list, got %d products", len(products))
	}

	sold, err := repo.GetBySlug(ctx, "ember-field")
	if err != nil {
		t.Fatalf("failed to get sold product: %v", err)
	}
	if sold.Status != domain.ProductStatusSold || sold.SoldAt == nil || sold.OrderRef != "order-int-1" {
		t.Fatalf("unexpected sold state: %+v", sold)
	}

	rows, err := repo.RevertSaleByOrderRef(ctx, "order-int-1")
	if err != nil {
		t.Fatalf("failed to revert sale: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row reverted, got %d", rows)
	}

	reverted, err := repo.GetBySlug(ctx, "ember-field")
	if err != nil {
		t.Fatalf("failed to get reverted product: %v", err)
	}
	if reverted.Status != domain.ProductStatusActive || reverted.SoldAt != nil || reverted.OrderRef != "" {
		t.Fatalf("unexpected reverted state: %+v", reverted)
	}
}

func TestWebhookReconciliationFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, slug, name, price, status, order_ref, inventory_number)
		VALUES ($1, 'pending-piece', 'Pending Piece', 1200.00, 'active', 'order-int-2', 1)
	`, uuid.NewString())
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	repo := catalog.NewRepository(db, "products")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const (
		key = "int-secret"
		url = "https://galleria.example.com/api/checkout/webhook"
	)
	handler := webhook.NewHandler(key, url, repo, nil, logger)

	body := []byte(`{"type":"payment.updated","data":{"object":{"payment":{"id":"pay-1","order_id":"order-int-2","status":"COMPLETED","updated_at":"2026-08-30T15:00:00Z"}}}}`)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(url))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/webhook", bytes.NewReader(body))
	req.Header.Set(webhook.SignatureHeader, signature)
	rec := httptest.NewRecorder()

	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "reconciled" {
		t.Fatalf("expected reconciled, got %q", resp["status"])
	}

	product, err := repo.GetBySlug(ctx, "pending-piece")
	if err != nil {
		t.Fatalf("failed to get product: %v", err)
	}
	if product.Status != domain.ProductStatusSold {
		t.Fatalf("expected sold status, got %q", product.Status)
	}
	if product.SoldAt == nil || !product.SoldAt.Equal(time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sold_at from the webhook timestamp, got %v", product.SoldAt)
	}
}

func TestSaleEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.SaleEventsTopic)
	defer func() { _ = producer.Close() }()

	event := domain.SaleEvent{
		OrderRef:    "order-int-3",
		Status:      domain.SaleCompleted,
		Slugs:       []string{"ember-field"},
		AmountCents: 2500,
		Timestamp:   time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderRef, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.SaleEventsTopic, "integration-test-group")
	defer func() { _ = consumer.Close() }()

	var (
		mu       sync.Mutex
		received *domain.SaleEvent
	)

	consumeCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
			var got domain.SaleEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				return err
			}
			mu.Lock()
			received = &got
			mu.Unlock()
			stop()
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(90 * time.Second):
		stop()
		t.Fatal("timed out waiting for sale event")
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil {
		t.Fatal("no event received")
	}
	if received.OrderRef != event.OrderRef || received.Status != domain.SaleCompleted {
		t.Fatalf("unexpected event: %+v", received)
	}
}
