package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	productionBaseURL = "https://connect.squareup.com"
)

// APIError carries the provider's raw response body so operators can see
// the exact rejection reason; clients only ever get a generic message.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the Square connect API. Every mutating call carries a
// fresh idempotency key, so a client retry of our caller cannot create
// duplicate provider-side resources.
type Client struct {
	baseURL     string
	accessToken string
	locationID  string
	httpClient  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a stub server in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(environment, accessToken, locationID string, opts ...Option) *Client {
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}

	c := &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		locationID:  locationID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type LineItem struct {
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	BasePriceMoney Money  `json:"base_price_money"`
}

type Discount struct {
	Name        string `json:"name"`
	AmountMoney Money  `json:"amount_money"`
}

type Order struct {
	ID          string     `json:"id,omitempty"`
	LocationID  string     `json:"location_id"`
	ReferenceID string     `json:"reference_id,omitempty"`
	LineItems   []LineItem `json:"line_items"`
	Discounts   []Discount `json:"discounts,omitempty"`
}

type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	AmountMoney Money  `json:"amount_money"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
}

type createOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Order          Order  `json:"order"`
}

type createOrderResponse struct {
	Order Order `json:"order"`
}

// CreateOrder registers the line items (and optional discount line) with
// the provider and returns the provider-assigned order.
func (c *Client) CreateOrder(ctx context.Context, lineItems []LineItem, discounts []Discount) (*Order, error) {
	body := createOrderRequest{
		IdempotencyKey: uuid.NewString(),
		Order: Order{
			LocationID: c.locationID,
			LineItems:  lineItems,
			Discounts:  discounts,
		},
	}

	var resp createOrderResponse
	if err := c.post(ctx, "/v2/orders", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

type createPaymentRequest struct {
	IdempotencyKey    string `json:"idempotency_key"`
	SourceID          string `json:"source_id"`
	OrderID           string `json:"order_id,omitempty"`
	AmountMoney       Money  `json:"amount_money"`
	Autocomplete      bool   `json:"autocomplete"`
	LocationID        string `json:"location_id"`
	BuyerEmailAddress string `json:"buyer_email_address,omitempty"`
}

type createPaymentResponse struct {
	Payment Payment `json:"payment"`
}

// CreatePayment charges the tokenized source against the given order with
// auto-completion, so the charge settles without a separate capture call.
func (c *Client) CreatePayment(ctx context.Context, sourceID, orderID string, amount Money, buyerEmail string) (*Payment, error) {
	body := createPaymentRequest{
		IdempotencyKey:    uuid.NewString(),
		SourceID:          sourceID,
		OrderID:           orderID,
		AmountMoney:       amount,
		Autocomplete:      true,
		LocationID:        c.locationID,
		BuyerEmailAddress: buyerEmail,
	}

	var resp createPaymentResponse
	if err := c.post(ctx, "/v2/payments", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
