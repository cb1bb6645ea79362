package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
)

// ErrNotFound is returned when a requested product does not exist or is inactive.
var ErrNotFound = errors.New("product not found")

// Product is the read-only catalog record the cart snapshots into line items.
type Product struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	SKU                  string            `json:"sku,omitempty"`
	UnitPrice            decimal.Decimal   `json:"unitPrice"`
	MinimumOrderQuantity int               `json:"minimumOrderQuantity"`
	UnitOfMeasure        enums.ProductUnit `json:"unitOfMeasure"`
}

// Reader exposes the catalog lookups the cart depends on.
type Reader interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

// MOQ returns the effective minimum order quantity; anything below one counts as one.
func (p Product) MOQ() int {
	if p.MinimumOrderQuantity < 1 {
		return 1
	}
	return p.MinimumOrderQuantity
}

// Validate checks the invariants a catalog record must satisfy before it is served.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if p.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if p.MinimumOrderQuantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum order quantity must be positive")
	}
	if !p.UnitOfMeasure.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit of measure is invalid")
	}
	return nil
}
