package domain

// ShippingAddress is collected only when the buyer asks for delivery.
type ShippingAddress struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// CheckoutRequest is the client's view of the purchase. Everything in it is
// untrusted input: the server recomputes the charge from its own prices and
// treats TotalAmount only as a ceiling-capped suggestion.
type CheckoutRequest struct {
	CartItems       []CartItem       `json:"cartItems"`
	SourceID        string           `json:"sourceId"`
	BuyerEmail      string           `json:"buyerEmail,omitempty"`
	TotalAmount     *float64         `json:"totalAmount,omitempty"`
	NeedsShipping   bool             `json:"needsShipping,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}
