package domain

import "github.com/shopspring/decimal"

// CatalogItem is a sellable product. Items are built once at startup and never mutated.
type CatalogItem struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"price"`
	ImageRef     string          `json:"image"`
	SizeVariants []string        `json:"sizes,omitempty"`
}

func (c CatalogItem) HasSizes() bool {
	return len(c.SizeVariants) > 0
}

// AcceptsSize reports whether size is one of the declared variants.
func (c CatalogItem) AcceptsSize(size string) bool {
	for _, v := range c.SizeVariants {
		if v == size {
			return true
		}
	}
	return false
}
