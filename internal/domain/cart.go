package domain

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// CartItem is a snapshot taken when the shopper adds a product. The price
// is deliberately not re-fetched afterwards; checkout recomputes the
// authoritative amount server-side.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Slug      string  `json:"slug"`
	Image     string  `json:"image,omitempty"`
}

// AppliedCoupon is the single discount attached to a cart. Applying a new
// coupon replaces any existing one.
type AppliedCoupon struct {
	Code     string       `json:"code"`
	Discount float64      `json:"discount"`
	Kind     DiscountKind `json:"kind"`
}
