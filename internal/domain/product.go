package domain

import (
	"math"
	"time"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusComingSoon ProductStatus = "coming_soon"
	ProductStatusSold       ProductStatus = "sold"
	ProductStatusArchived   ProductStatus = "archived"
)

// Product is a single catalog entry. Pieces are one of a kind, so a sale
// flips the row to sold rather than decrementing a stock count.
type Product struct {
	ID              string        `json:"id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Price           float64       `json:"price"`
	Description     string        `json:"description"`
	Images          []string      `json:"images"`
	Status          ProductStatus `json:"status"`
	SoldAt          *time.Time    `json:"sold_at,omitempty"`
	OrderRef        string        `json:"order_ref,omitempty"`
	Category        string        `json:"category"`
	Tags            []string      `json:"tags"`
	InventoryNumber *int          `json:"inventory_number,omitempty"`
	DisplayNumber   string        `json:"display_number,omitempty"`
	PrimaryImage    string        `json:"primary_image,omitempty"`
	UndersideImage  string        `json:"underside_image,omitempty"`
	Dimensions      string        `json:"dimensions,omitempty"`
	IsUnique        bool          `json:"is_unique"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Orderable reports whether the product can still be purchased. A non-nil
// SoldAt always wins over the status column, so rows written before the
// sold status existed are still treated as sold.
func (p *Product) Orderable() bool {
	return p.Status == ProductStatusActive && p.SoldAt == nil
}

// DollarsToCents converts a stored dollar price to the integer cents the
// payment provider expects.
func DollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
