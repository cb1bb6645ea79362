package enums

import (
	"fmt"
	"strings"
)

// ProductUnit defines the unit of measure a product is priced in.
type ProductUnit string

const (
	ProductUnitUnit     ProductUnit = "unit"
	ProductUnitCase     ProductUnit = "case"
	ProductUnitPack     ProductUnit = "pack"
	ProductUnitPallet   ProductUnit = "pallet"
	ProductUnitGram     ProductUnit = "gram"
	ProductUnitKilogram ProductUnit = "kilogram"
	ProductUnitOunce    ProductUnit = "ounce"
	ProductUnitPound    ProductUnit = "pound"
)

var validProductUnits = []ProductUnit{
	ProductUnitUnit,
	ProductUnitCase,
	ProductUnitPack,
	ProductUnitPallet,
	ProductUnitGram,
	ProductUnitKilogram,
	ProductUnitOunce,
	ProductUnitPound,
}

// String implements fmt.Stringer.
func (u ProductUnit) String() string {
	return string(u)
}

// IsValid reports whether the value matches a known ProductUnit.
func (u ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductUnits {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
