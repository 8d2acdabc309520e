package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/camila-duarte/galleria/internal/domain"
	"github.com/camila-duarte/galleria/internal/mailer"
	"github.com/camila-duarte/galleria/internal/payment"
)

var (
	ErrNotConfigured   = errors.New("payment provider not configured")
	ErrMissingSourceID = errors.New("missing payment source")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrBadQuantity     = errors.New("cart item quantity must be at least 1")
)

// PaymentClient is the provider surface the orchestrator needs. The real
// implementation is payment.Client; tests use a stub.
type PaymentClient interface {
	CreateOrder(ctx context.Context, lineItems []payment.LineItem, discounts []payment.Discount) (*payment.Order, error)
	CreatePayment(ctx context.Context, sourceID, orderID string, amount payment.Money, buyerEmail string) (*payment.Payment, error)
}

// InventoryMarker flips catalog rows to sold after a successful charge.
type InventoryMarker interface {
	MarkSold(ctx context.Context, slugs []string, soldAt time.Time, orderRef string) error
}

// EventPublisher announces completed sales. Nil-able; checkout works
// without a broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Mailer sends the staff order notification. Nil-able.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Result is the successful checkout response: the provider's payment
// object plus the resolved order identifier.
type Result struct {
	Payment *payment.Payment `json:"payment"`
	OrderID string           `json:"orderId"`
}

// Service is the only component that talks to the payment provider. It
// owns the transition from cart snapshot to sold inventory.
type Service struct {
	client      PaymentClient
	inventory   InventoryMarker
	mail        Mailer
	notifyEmail string
	publisher   EventPublisher
	logger      *slog.Logger
}

func NewService(client PaymentClient, inventory InventoryMarker, mail Mailer, notifyEmail string, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		client:      client,
		inventory:   inventory,
		mail:        mail,
		notifyEmail: notifyEmail,
		publisher:   publisher,
		logger:      logger,
	}
}

// Checkout runs the order -> payment saga and the best-effort tail.
//
// Everything up to and including payment creation is fatal on failure.
// Everything after it (inventory update, email, event) is logged and
// swallowed: the charge has settled and the caller must see success. The
// webhook reconciler catches up any inventory lag.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*Result, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if req.SourceID == "" {
		return nil, ErrMissingSourceID
	}
	if len(req.CartItems) == 0 {
		return nil, ErrEmptyCart
	}

	// The charge amount comes from server-held prices only. The client's
	// declared total can lower the charge (a client-side coupon) but can
	// never raise it past the recomputed subtotal.
	var subtotalCents int64
	for _, item := range req.CartItems {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", ErrBadQuantity, item.ProductID)
		}
		subtotalCents += domain.DollarsToCents(item.Price) * int64(item.Quantity)
	}

	totalCents := subtotalCents
	if req.TotalAmount != nil {
		declared := domain.DollarsToCents(*req.TotalAmount)
		if declared < 0 {
			declared = 0
		}
		if declared < totalCents {
			totalCents = declared
		}
	}

	discountCents := subtotalCents - totalCents

	lineItems := make([]payment.LineItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		lineItems = append(lineItems, payment.LineItem{
			Name:     item.Name,
			Quantity: strconv.Itoa(item.Quantity),
			BasePriceMoney: payment.Money{
				Amount:   domain.DollarsToCents(item.Price),
				Currency: "USD",
			},
		})
	}

	var discounts []payment.Discount
	if discountCents > 0 {
		discounts = []payment.Discount{{
			Name:        "Discount",
			AmountMoney: payment.Money{Amount: discountCents, Currency: "USD"},
		}}
	}

	order, err := s.client.CreateOrder(ctx, lineItems, discounts)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	pay, err := s.client.CreatePayment(ctx, req.SourceID, order.ID,
		payment.Money{Amount: totalCents, Currency: "USD"}, req.BuyerEmail)
	if err != nil {
		// No compensation: unpaid provider orders expire on their own.
		// Logged so operators can audit the orphaned resource.
		s.logger.Error("payment failed after order creation, order orphaned",
			"error", err, "order_id", order.ID)
		return nil, fmt.Errorf("create payment: %w", err)
	}

	orderID := order.ID
	if orderID == "" {
		orderID = pay.OrderID
	}
	if orderID == "" {
		orderID = pay.ID
	}

	soldAt := time.Now().UTC()
	slugs := make([]string, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		if item.Slug != "" {
			slugs = append(slugs, item.Slug)
		}
	}

	if s.inventory != nil {
		if err := s.inventory.MarkSold(ctx, slugs, soldAt, orderID); err != nil {
			s.logger.Error("failed to mark inventory sold", "error", err, "order_id", orderID)
		}
	}

	if req.NeedsShipping && req.ShippingAddress != nil {
		s.sendShippingNotification(ctx, req, orderID, subtotalCents, totalCents)
	}

	if s.publisher != nil {
		event := domain.SaleEvent{
			OrderRef:    orderID,
			Status:      domain.SaleCompleted,
			Slugs:       slugs,
			AmountCents: totalCents,
			BuyerEmail:  req.BuyerEmail,
			Timestamp:   soldAt,
		}
		if err := s.publisher.Publish(ctx, orderID, event); err != nil {
			s.logger.Error("failed to publish sale event", "error", err, "order_id", orderID)
		}
	}

	s.logger.Info("checkout complete", "order_id", orderID, "payment_id", pay.ID,
		"total_cents", totalCents, "discount_cents", discountCents)

	return &Result{Payment: pay, OrderID: orderID}, nil
}

func (s *Service) sendShippingNotification(ctx context.Context, req domain.CheckoutRequest, orderID string, subtotalCents, totalCents int64) {
	if s.mail == nil || s.notifyEmail == "" {
		return
	}

	addr := req.ShippingAddress

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s requires shipping.\n\nItems:\n", orderID)
	for _, item := range req.CartItems {
		fmt.Fprintf(&b, "  - %s x%d ($%.2f)\n", item.Name, item.Quantity, item.Price)
	}
	fmt.Fprintf(&b, "\nSubtotal: $%.2f\nCharged:  $%.2f\n", float64(subtotalCents)/100, float64(totalCents)/100)
	fmt.Fprintf(&b, "\nShip to:\n%s\n%s\n%s, %s %s\n", addr.Name, addr.Street, addr.City, addr.State, addr.Zip)
	if addr.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", addr.Email)
	}
	if addr.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", addr.Phone)
	}

	msg := mailer.Message{
		From:    "orders@galleria.local",
		To:      []string{s.notifyEmail},
		Subject: "New order " + orderID,
		Text:    b.String(),
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send order notification", "error", err, "order_id", orderID)
	}
}
