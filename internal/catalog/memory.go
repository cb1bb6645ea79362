package catalog

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
)

// MemoryCatalog keeps products in insertion order. Used for dev seeding and tests.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
	order    []string
}

// NewMemoryCatalog builds a catalog pre-populated with the provided products.
func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// Put inserts or replaces a product.
func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.products[p.ID]; !exists {
		c.order = append(c.order, p.ID)
	}
	c.products[p.ID] = p
}

func (c *MemoryCatalog) GetByID(ctx context.Context, id string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (c *MemoryCatalog) List(ctx context.Context) ([]Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out, nil
}

// SeedProducts returns the demo wholesale listings used when seeding is enabled.
func SeedProducts() []Product {
	return []Product{
		{
			ID:                   "prd-kraft-mailer-12",
			Name:                 "Kraft Mailer Box 12in",
			SKU:                  "PKG-KM-12",
			UnitPrice:            decimal.RequireFromString("0.85"),
			MinimumOrderQuantity: 250,
			UnitOfMeasure:        enums.ProductUnitUnit,
		},
		{
			ID:                   "prd-stretch-wrap",
			Name:                 "Stretch Wrap 18in x 1500ft",
			SKU:                  "PKG-SW-18",
			UnitPrice:            decimal.RequireFromString("24.50"),
			MinimumOrderQuantity: 4,
			UnitOfMeasure:        enums.ProductUnitCase,
		},
		{
			ID:                   "prd-glass-jar-4oz",
			Name:                 "Glass Jar 4oz",
			SKU:                  "PKG-GJ-4",
			UnitPrice:            decimal.RequireFromString("36.00"),
			MinimumOrderQuantity: 2,
			UnitOfMeasure:        enums.ProductUnitPack,
		},
		{
			ID:                   "prd-pallet-labels",
			Name:                 "Pallet Labels (roll)",
			SKU:                  "LBL-PL-500",
			UnitPrice:            decimal.RequireFromString("12.75"),
			MinimumOrderQuantity: 1,
			UnitOfMeasure:        enums.ProductUnitUnit,
		},
	}
}
