package domain

import (
	"testing"
	"time"
)

func TestProduct_Orderable(t *testing.T) {
	soldAt := time.Now().UTC()

	tests := []struct {
		name    string
		product Product
		want    bool
	}{
		{"active and unsold", Product{Status: ProductStatusActive}, true},
		{"sold status", Product{Status: ProductStatusSold, SoldAt: &soldAt}, false},
		{"coming soon", Product{Status: ProductStatusComingSoon}, false},
		{"archived", Product{Status: ProductStatusArchived}, false},
		// Legacy rows: sold_at set before the sold status existed.
		{"active with sold_at", Product{Status: ProductStatusActive, SoldAt: &soldAt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.Orderable(); got != tt.want {
				t.Errorf("Orderable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		dollars float64
		want    int64
	}{
		{0, 0},
		{25, 2500},
		{7.5, 750},
		{19.99, 1999},
		// 29.98 * 100 is 2997.9999... in float64; rounding must not truncate.
		{29.98, 2998},
	}

	for _, tt := range tests {
		if got := DollarsToCents(tt.dollars); got != tt.want {
			t.Errorf("DollarsToCents(%v) = %d, want %d", tt.dollars, got, tt.want)
		}
	}
}
