package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
)

// LineItem is one product entry in the cart. TotalPrice is derived from
// Quantity and UnitPrice and is never set independently.
type LineItem struct {
	ProductID  string          `json:"productId"`
	Product    catalog.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Cart is an ordered collection of line items keyed by product id plus the
// aggregates derived from them.
type Cart struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    enums.Currency  `json:"currency"`
}

// New returns an empty cart denominated in currency.
func New(currency enums.Currency) Cart {
	return Cart{
		Items:       []LineItem{},
		TotalAmount: decimal.Zero,
		Currency:    currency,
	}
}

// Get looks up the line for productID without side effects.
func (c Cart) Get(productID string) (LineItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Equal compares carts by value, treating decimals numerically.
func (c Cart) Equal(other Cart) bool {
	if c.Currency != other.Currency || c.TotalItems != other.TotalItems || !c.TotalAmount.Equal(other.TotalAmount) {
		return false
	}
	if len(c.Items) != len(other.Items) {
		return false
	}
	for i := range c.Items {
		if !c.Items[i].equal(other.Items[i]) {
			return false
		}
	}
	return true
}

func (c Cart) indexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (l LineItem) equal(other LineItem) bool {
	return l.ProductID == other.ProductID &&
		l.Quantity == other.Quantity &&
		l.UnitPrice.Equal(other.UnitPrice) &&
		l.TotalPrice.Equal(other.TotalPrice) &&
		l.Product.ID == other.Product.ID &&
		l.Product.Name == other.Product.Name &&
		l.Product.SKU == other.Product.SKU &&
		l.Product.UnitPrice.Equal(other.Product.UnitPrice) &&
		l.Product.MinimumOrderQuantity == other.Product.MinimumOrderQuantity &&
		l.Product.UnitOfMeasure == other.Product.UnitOfMeasure
}

func newLineItem(product catalog.Product, quantity int) LineItem {
	return priced(LineItem{
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		UnitPrice: product.UnitPrice,
	})
}

func priced(item LineItem) LineItem {
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return item
}

// withItems rebuilds every line total and the cart aggregates from items.
func withItems(items []LineItem, currency enums.Currency) Cart {
	out := Cart{
		Items:       make([]LineItem, 0, len(items)),
		TotalAmount: decimal.Zero,
		Currency:    currency,
	}
	for _, item := range items {
		item = priced(item)
		out.Items = append(out.Items, item)
		out.TotalItems += item.Quantity
		out.TotalAmount = out.TotalAmount.Add(item.TotalPrice)
	}
	return out
}
