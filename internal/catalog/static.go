package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/camila-duarte/galleria/internal/domain"
)

//go:embed data/catalog.json
var staticCatalog []byte

// Static serves the build-time catalog snapshot. It is the availability
// guarantee when the database is unreachable, so none of its methods can
// fail after construction.
type Static struct {
	products []domain.Product
}

func NewStatic() (*Static, error) {
	var products []domain.Product
	if err := json.Unmarshal(staticCatalog, &products); err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].InventoryNumber, products[j].InventoryNumber
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	return &Static{products: products}, nil
}

func (s *Static) ListActive(_ context.Context) ([]domain.Product, error) {
	var active []domain.Product
	for _, p := range s.products {
		if p.Orderable() && p.InventoryNumber != nil {
			active = append(active, p)
		}
	}
	return active, nil
}

// Get resolves an identifier the same way the remote source does: numeric
// identifiers match the inventory number, anything else matches the slug.
func (s *Static) Get(_ context.Context, identifier string) (*domain.Product, error) {
	if number, err := strconv.Atoi(identifier); err == nil {
		for i := range s.products {
			if s.products[i].InventoryNumber != nil && *s.products[i].InventoryNumber == number {
				return &s.products[i], nil
			}
		}
		return nil, nil
	}

	for i := range s.products {
		if s.products[i].Slug == identifier {
			return &s.products[i], nil
		}
	}
	return nil, nil
}
