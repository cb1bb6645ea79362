package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
)

// ErrCorrupt marks a persisted document that cannot be restored.
var ErrCorrupt = errors.New("cart document is corrupt")

type document struct {
	Items       *[]LineItem     `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    enums.Currency  `json:"currency"`
}

// Encode serializes the full cart, aggregates included.
func Encode(c Cart) ([]byte, error) {
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return json.Marshal(c)
}

// Decode restores a cart previously written by Encode. Any structural problem
// yields ErrCorrupt; the stored aggregates are ignored and recomputed.
func Decode(data []byte, currency enums.Currency) (Cart, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Items == nil {
		return Cart{}, fmt.Errorf("%w: items missing", ErrCorrupt)
	}
	if doc.Currency == "" {
		doc.Currency = currency
	}
	if doc.Currency != currency {
		return Cart{}, fmt.Errorf("%w: currency %q does not match %q", ErrCorrupt, doc.Currency, currency)
	}

	seen := make(map[string]struct{}, len(*doc.Items))
	total := 0
	for i, item := range *doc.Items {
		if err := checkLine(item); err != nil {
			return Cart{}, fmt.Errorf("%w: item %d: %v", ErrCorrupt, i, err)
		}
		if total += item.Quantity; total > MaxCartItems {
			return Cart{}, fmt.Errorf("%w: more than %d items", ErrCorrupt, MaxCartItems)
		}
		if _, dup := seen[item.ProductID]; dup {
			return Cart{}, fmt.Errorf("%w: duplicate product %q", ErrCorrupt, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return withItems(*doc.Items, currency), nil
}

func checkLine(item LineItem) error {
	switch {
	case strings.TrimSpace(item.ProductID) == "":
		return errors.New("productId is empty")
	case item.Quantity <= 0:
		return fmt.Errorf("quantity %d is not positive", item.Quantity)
	case item.Quantity > MaxLineQuantity:
		return fmt.Errorf("quantity %d exceeds %d", item.Quantity, MaxLineQuantity)
	case item.UnitPrice.IsNegative():
		return errors.New("unitPrice is negative")
	case item.Product.ID != "" && item.Product.ID != item.ProductID:
		return fmt.Errorf("product snapshot %q does not match %q", item.Product.ID, item.ProductID)
	}
	return nil
}
