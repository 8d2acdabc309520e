package cart

import (
	"log/slog"
	"sync"

	"github.com/camila-duarte/galleria/internal/domain"
)

// Store holds the shopper's cart and coupon state. It is the single point
// of mutation for the cart: every item change is written through to the
// configured persistence, so a reload picks up where the shopper left off.
//
// Coupon state is intentionally not persisted. The original storefront kept
// the coupon in memory only, and we reproduce that: a reload drops the
// coupon but keeps the items.
type Store struct {
	mu          sync.Mutex
	items       []domain.CartItem
	coupon      *domain.AppliedCoupon
	persistence Persistence
	logger      *slog.Logger
}

// New loads any previously persisted items. A load failure (missing file,
// corrupt payload) starts with an empty cart rather than surfacing an
// error; losing a cart is recoverable, crashing the storefront is not.
func New(persistence Persistence, logger *slog.Logger) *Store {
	s := &Store{
		persistence: persistence,
		logger:      logger,
	}

	if persistence != nil {
		items, err := persistence.Load()
		if err != nil {
			logger.Warn("failed to restore cart, starting empty", "error", err)
		} else {
			s.items = items
		}
	}

	return s
}

func (s *Store) persist() {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(s.items); err != nil {
		s.logger.Error("failed to persist cart", "error", err)
	}
}

// AddItem appends a snapshot of the product or, if it is already in the
// cart, increments the existing entry's quantity. Quantities below one are
// treated as one.
func (s *Store) AddItem(p domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == p.ID {
			s.items[i].Quantity += quantity
			s.persist()
			return
		}
	}

	image := p.PrimaryImage
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0]
	}

	s.items = append(s.items, domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		Slug:      p.Slug,
		Image:     image,
	})
	s.persist()
}

func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(productID)
	s.persist()
}

func (s *Store) removeLocked(productID string) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// SetQuantity overwrites the item's quantity; zero or less removes it.
func (s *Store) SetQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
		s.persist()
		return
	}

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
			break
		}
	}
	s.persist()
}

// Clear empties the cart. The coupon is independent state and survives;
// RemoveCoupon is its own explicit action.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist()
}

func (s *Store) ApplyCoupon(discount float64, kind domain.DiscountKind, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = &domain.AppliedCoupon{Code: code, Discount: discount, Kind: kind}
}

func (s *Store) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = nil
}

func (s *Store) Coupon() *domain.AppliedCoupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return nil
	}
	c := *s.coupon
	return &c
}

func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

func (s *Store) subtotalLocked() float64 {
	var subtotal float64
	for _, item := range s.items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

// DiscountAmount is zero without a coupon. A fixed coupon is capped at the
// subtotal so the total can never go negative.
func (s *Store) DiscountAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discountLocked()
}

func (s *Store) discountLocked() float64 {
	if s.coupon == nil {
		return 0
	}

	subtotal := s.subtotalLocked()
	switch s.coupon.Kind {
	case domain.DiscountPercentage:
		return subtotal * s.coupon.Discount / 100
	case domain.DiscountFixed:
		if s.coupon.Discount > subtotal {
			return subtotal
		}
		return s.coupon.Discount
	}
	return 0
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.subtotalLocked() - s.discountLocked()
	if total < 0 {
		return 0
	}
	return total
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) IsInCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Snapshot builds the checkout request for the current cart. The declared
// total reflects the coupon-adjusted amount; the server clamps it against
// its own subtotal.
func (s *Store) Snapshot(sourceID, buyerEmail string) domain.CheckoutRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)

	total := s.subtotalLocked() - s.discountLocked()
	if total < 0 {
		total = 0
	}

	return domain.CheckoutRequest{
		CartItems:   items,
		SourceID:    sourceID,
		BuyerEmail:  buyerEmail,
		TotalAmount: &total,
	}
}
