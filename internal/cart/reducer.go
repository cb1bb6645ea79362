package cart

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/pkg/checkout"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
)

// ActionKind names a cart transition.
type ActionKind string

const (
	ActionAdd         ActionKind = "add"
	ActionRemove      ActionKind = "remove"
	ActionSetQuantity ActionKind = "set_quantity"
	ActionClear       ActionKind = "clear"
)

// Quantity ceilings. A line never holds more than MaxLineQuantity units and a
// cart never holds more than MaxCartItems units in total.
const (
	MaxLineQuantity = 1_000_000
	MaxCartItems    = 10_000_000
)

func (k ActionKind) String() string {
	return string(k)
}

// Action is the input to Reduce. Product is only read by ActionAdd; ProductID
// by ActionRemove and ActionSetQuantity.
type Action struct {
	Kind      ActionKind
	Product   *catalog.Product
	ProductID string
	Quantity  int
}

func AddItem(product *catalog.Product, quantity int) Action {
	return Action{Kind: ActionAdd, Product: product, Quantity: quantity}
}

func RemoveItem(productID string) Action {
	return Action{Kind: ActionRemove, ProductID: productID}
}

func SetQuantity(productID string, quantity int) Action {
	return Action{Kind: ActionSetQuantity, ProductID: productID, Quantity: quantity}
}

func ClearCart() Action {
	return Action{Kind: ActionClear}
}

// Reduce applies action to c and returns the next cart. The input is never
// modified; on error the returned cart is c unchanged.
func Reduce(c Cart, action Action) (Cart, error) {
	switch action.Kind {
	case ActionAdd:
		return reduceAdd(c, action.Product, action.Quantity)
	case ActionRemove:
		return reduceRemove(c, action.ProductID), nil
	case ActionSetQuantity:
		return reduceSetQuantity(c, action.ProductID, action.Quantity)
	case ActionClear:
		return withItems(nil, c.Currency), nil
	default:
		return c, pkgerrors.New(pkgerrors.CodeValidation, "unknown cart action "+string(action.Kind))
	}
}

func reduceAdd(c Cart, product *catalog.Product, quantity int) (Cart, error) {
	if product == nil || strings.TrimSpace(product.ID) == "" {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if quantity <= 0 {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if err := validateMOQ(*product, quantity); err != nil {
		return c, err
	}

	current := 0
	i := c.indexOf(product.ID)
	if i >= 0 {
		current = c.Items[i].Quantity
	}
	if err := checkLimits(c, current, quantity); err != nil {
		return c, err
	}

	items := make([]LineItem, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)
	if i >= 0 {
		items[i].Quantity += quantity
	} else {
		items = append(items, newLineItem(*product, quantity))
	}
	return withItems(items, c.Currency), nil
}

func reduceRemove(c Cart, productID string) Cart {
	items := make([]LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	return withItems(items, c.Currency)
}

func reduceSetQuantity(c Cart, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return reduceRemove(c, productID), nil
	}
	i := c.indexOf(productID)
	if i < 0 {
		return withItems(c.Items, c.Currency), nil
	}
	if err := validateMOQ(c.Items[i].Product, quantity); err != nil {
		return c, err
	}
	if err := checkLimits(c, c.Items[i].Quantity, quantity-c.Items[i].Quantity); err != nil {
		return c, err
	}

	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	items[i].Quantity = quantity
	return withItems(items, c.Currency), nil
}

// checkLimits rejects moving a line from current by delta units when the line or
// the cart would pass its ceiling. Comparisons are arranged so they cannot overflow.
func checkLimits(c Cart, current, delta int) error {
	if delta > MaxLineQuantity-current {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d per product", MaxLineQuantity))
	}
	if delta > MaxCartItems-c.TotalItems {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart must not hold more than %d items", MaxCartItems))
	}
	return nil
}

func validateMOQ(product catalog.Product, quantity int) error {
	return checkout.ValidateMOQ([]checkout.MOQValidationInput{{
		ProductID:   product.ID,
		ProductName: product.Name,
		MOQ:         product.MOQ(),
		Quantity:    quantity,
	}})
}

// IsRejection reports whether err is a validation rejection that left the cart untouched.
func IsRejection(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeValidation) || pkgerrors.Is(err, pkgerrors.CodeStateConflict)
}
