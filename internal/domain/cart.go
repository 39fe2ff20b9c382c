package domain

import "github.com/shopspring/decimal"

// LineKey identifies a cart line. The same item in two sizes yields two lines.
type LineKey struct {
	ItemID int
	Size   string
}

type CartLine struct {
	ItemID    int             `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ItemID: l.ItemID, Size: l.Size}
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartState is the per-session cart. Lines keep insertion order.
type CartState struct {
	Lines  []CartLine      `json:"lines"`
	Total  decimal.Decimal `json:"total"`
	IsOpen bool            `json:"isOpen"`
}

func EmptyCart() CartState {
	return CartState{Lines: []CartLine{}, Total: decimal.Zero}
}

func (s CartState) IsEmpty() bool {
	return len(s.Lines) == 0
}

// IndexOf returns the position of the line with key k, or -1.
func (s CartState) IndexOf(k LineKey) int {
	for i, l := range s.Lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

func (s CartState) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
