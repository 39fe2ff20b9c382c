// Package cart implements the cart state transitions. Apply is pure: it performs
// no I/O and never mutates the state it is given.
package cart

import (
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrSizeRequired   = errors.New("size required for this item")
	ErrUnknownSize    = errors.New("size is not offered for this item")
	ErrUnexpectedSize = errors.New("item has no size variants")
)

// Action is the closed set of cart mutations. Only types in this package implement it.
type Action interface {
	isAction()
}

type AddItem struct {
	Item domain.CatalogItem
	Size string
}

type RemoveLine struct {
	ItemID int
	Size   string
}

// SetQuantity clamps Quantity to at least 1. Deleting a line takes RemoveLine.
type SetQuantity struct {
	ItemID   int
	Size     string
	Quantity int
}

type ClearCart struct{}

type OpenCart struct{}

type CloseCart struct{}

func (AddItem) isAction()     {}
func (RemoveLine) isAction()  {}
func (SetQuantity) isAction() {}
func (ClearCart) isAction()   {}
func (OpenCart) isAction()    {}
func (CloseCart) isAction()   {}

// Apply returns the state produced by action. On error the input state is returned as is.
func Apply(state domain.CartState, action Action) (domain.CartState, error) {
	switch a := action.(type) {
	case AddItem:
		return addItem(state, a)
	case RemoveLine:
		return removeLine(state, a), nil
	case SetQuantity:
		return setQuantity(state, a), nil
	case ClearCart:
		return domain.EmptyCart(), nil
	case OpenCart:
		next := clone(state)
		next.IsOpen = true
		return next, nil
	case CloseCart:
		next := clone(state)
		next.IsOpen = false
		return next, nil
	default:
		return state, fmt.Errorf("unsupported cart action %T", action)
	}
}

// Total recomputes the exact sum of unit price times quantity.
func Total(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func addItem(state domain.CartState, a AddItem) (domain.CartState, error) {
	if err := checkSize(a.Item, a.Size); err != nil {
		return state, err
	}
	next := clone(state)
	key := domain.LineKey{ItemID: a.Item.ID, Size: a.Size}
	if i := next.IndexOf(key); i >= 0 {
		next.Lines[i].Quantity++
	} else {
		next.Lines = append(next.Lines, domain.CartLine{
			ItemID:    a.Item.ID,
			Name:      a.Item.Name,
			UnitPrice: a.Item.UnitPrice,
			ImageRef:  a.Item.ImageRef,
			Size:      a.Size,
			Quantity:  1,
		})
	}
	next.Total = next.Total.Add(a.Item.UnitPrice)
	next.IsOpen = true
	return next, nil
}

func removeLine(state domain.CartState, a RemoveLine) domain.CartState {
	i := state.IndexOf(domain.LineKey{ItemID: a.ItemID, Size: a.Size})
	if i < 0 {
		return state
	}
	next := clone(state)
	removed := next.Lines[i]
	next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
	next.Total = next.Total.Sub(removed.Subtotal())
	return next
}

func setQuantity(state domain.CartState, a SetQuantity) domain.CartState {
	i := state.IndexOf(domain.LineKey{ItemID: a.ItemID, Size: a.Size})
	if i < 0 {
		return state
	}
	next := clone(state)
	next.Lines[i].Quantity = max(a.Quantity, 1)
	next.Total = Total(next.Lines)
	return next
}

func checkSize(item domain.CatalogItem, size string) error {
	switch {
	case item.HasSizes() && size == "":
		return ErrSizeRequired
	case item.HasSizes() && !item.AcceptsSize(size):
		return ErrUnknownSize
	case !item.HasSizes() && size != "":
		return ErrUnexpectedSize
	}
	return nil
}

func clone(state domain.CartState) domain.CartState {
	lines := make([]domain.CartLine, len(state.Lines))
	copy(lines, state.Lines)
	return domain.CartState{Lines: lines, Total: state.Total, IsOpen: state.IsOpen}
}
