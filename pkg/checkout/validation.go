package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
)

// MOQValidationInput describes the data required to verify a line item's MOQ.
type MOQValidationInput struct {
	ProductID   string
	ProductName string
	MOQ         int
	Quantity    int
}

// MOQViolationDetail exposes the data returned to callers when a validation fails.
type MOQViolationDetail struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	RequiredQty  int    `json:"required_qty"`
	RequestedQty int    `json:"requested_qty"`
}

// ValidateMOQ ensures every provided line item meets its product's minimum order quantity.
func ValidateMOQ(items []MOQValidationInput) error {
	var violations []MOQViolationDetail
	for _, item := range items {
		if item.MOQ <= 1 {
			continue
		}
		if item.Quantity < item.MOQ {
			violations = append(violations, MOQViolationDetail{
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				RequiredQty:  item.MOQ,
				RequestedQty: item.Quantity,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	if len(violations) == 1 {
		v := violations[0]
		name := v.ProductName
		if name == "" {
			name = v.ProductID
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s requires a minimum order of %d (requested %d)", name, v.RequiredQty, v.RequestedQty)).WithDetails(map[string]any{
			"violations": violations,
		})
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("minimum order quantity not met for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
