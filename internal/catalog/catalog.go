package catalog

import (
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Catalog is an immutable, ordered set of items.
type Catalog struct {
	items []domain.CatalogItem
	byID  map[int]int
}

// New validates items and builds a Catalog that owns copies of them.
func New(items []domain.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]domain.CatalogItem, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, it := range items {
		if it.Name == "" {
			return nil, fmt.Errorf("item %d: name required", it.ID)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("item %d: negative price %s", it.ID, it.UnitPrice)
		}
		// Prices are stored with two decimal places.
		if !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
			return nil, fmt.Errorf("item %d: price %s has more than two decimal places", it.ID, it.UnitPrice)
		}
		if it.SizeVariants != nil && len(it.SizeVariants) == 0 {
			return nil, fmt.Errorf("item %d: size list present but empty", it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", it.ID)
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, copyItem(it))
	}
	return c, nil
}

func (c *Catalog) List() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(c.items))
	for i, it := range c.items {
		out[i] = copyItem(it)
	}
	return out
}

func (c *Catalog) Get(id int) (domain.CatalogItem, error) {
	idx, ok := c.byID[id]
	if !ok {
		return domain.CatalogItem{}, domain.ErrNotFound
	}
	return copyItem(c.items[idx]), nil
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Default is the built-in GlobalGear range.
func Default() *Catalog {
	c, err := New([]domain.CatalogItem{
		{
			ID:           1,
			Name:         "GlobalGear T-Shirt",
			Description:  "Comfortable cotton t-shirt with the GlobalGear logo.",
			UnitPrice:    decimal.NewFromInt(25),
			ImageRef:     "/images/products/tshirt.jpeg",
			SizeVariants: []string{"S", "M", "L", "XL"},
		},
		{
			ID:          2,
			Name:        "GlobalGear Cap",
			Description: "Stylish cap featuring the GlobalGear emblem.",
			UnitPrice:   decimal.NewFromInt(20),
			ImageRef:    "/images/products/cap.jpeg",
		},
		{
			ID:          3,
			Name:        "GlobalGear Notebook",
			Description: "High-quality notebook for all your ideas.",
			UnitPrice:   decimal.NewFromInt(15),
			ImageRef:    "/images/products/notebook.jpeg",
		},
		{
			ID:          4,
			Name:        "GlobalGear Mug",
			Description: "Ceramic mug perfect for your morning coffee.",
			UnitPrice:   decimal.NewFromInt(12),
			ImageRef:    "/images/products/mug.jpeg",
		},
		{
			ID:          5,
			Name:        "GlobalGear Pen",
			Description: "Smooth-writing pen with the GlobalGear logo.",
			UnitPrice:   decimal.NewFromInt(8),
			ImageRef:    "/images/products/pen.jpeg",
		},
		{
			ID:          6,
			Name:        "GlobalGear Water Bottle",
			Description: "Eco-friendly water bottle with the GlobalGear logo.",
			UnitPrice:   decimal.NewFromInt(18),
			ImageRef:    "/images/products/waterbottle.jpeg",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func copyItem(it domain.CatalogItem) domain.CatalogItem {
	if it.SizeVariants != nil {
		sizes := make([]string, len(it.SizeVariants))
		copy(sizes, it.SizeVariants)
		it.SizeVariants = sizes
	}
	return it
}
