package domain

import "time"

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleReverted  SaleStatus = "reverted"
)

// SaleEvent is published after the catalog has been updated, by either the
// synchronous checkout path or the webhook reconciler.
type SaleEvent struct {
	OrderRef    string     `json:"order_ref"`
	Status      SaleStatus `json:"status"`
	Slugs       []string   `json:"slugs,omitempty"`
	AmountCents int64      `json:"amount_cents,omitempty"`
	BuyerEmail  string     `json:"buyer_email,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}
