package cart

import (
	"math/rand"
	"testing"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tshirt = domain.CatalogItem{
		ID:           1,
		Name:         "GlobalGear T-Shirt",
		UnitPrice:    decimal.NewFromInt(25),
		SizeVariants: []string{"S", "M", "L", "XL"},
	}
	mug = domain.CatalogItem{
		ID:        4,
		Name:      "GlobalGear Mug",
		UnitPrice: decimal.NewFromInt(12),
	}
	pen = domain.CatalogItem{
		ID:        5,
		Name:      "GlobalGear Pen",
		UnitPrice: decimal.RequireFromString("8.15"),
	}
)

func mustApply(t *testing.T, state domain.CartState, action Action) domain.CartState {
	t.Helper()
	next, err := Apply(state, action)
	require.NoError(t, err)
	return next
}

func TestApply_TShirtScenario(t *testing.T) {
	state := domain.EmptyCart()

	state = mustApply(t, state, AddItem{Item: tshirt, Size: "M"})
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 1, state.Lines[0].Quantity)
	assert.Equal(t, "M", state.Lines[0].Size)
	assert.True(t, state.Total.Equal(decimal.NewFromInt(25)))
	assert.True(t, state.IsOpen)

	state = mustApply(t, state, AddItem{Item: tshirt, Size: "M"})
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 2, state.Lines[0].Quantity)
	assert.True(t, state.Total.Equal(decimal.NewFromInt(50)))

	state = mustApply(t, state, SetQuantity{ItemID: tshirt.ID, Size: "M", Quantity: 5})
	assert.Equal(t, 5, state.Lines[0].Quantity)
	assert.True(t, state.Total.Equal(decimal.NewFromInt(125)))

	state = mustApply(t, state, RemoveLine{ItemID: tshirt.ID, Size: "M"})
	assert.Empty(t, state.Lines)
	assert.True(t, state.Total.IsZero())
}

func TestApply_SizesAreSeparateLines(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: tshirt, Size: "M"})
	state = mustApply(t, state, AddItem{Item: tshirt, Size: "L"})

	require.Len(t, state.Lines, 2)
	assert.Equal(t, "M", state.Lines[0].Size)
	assert.Equal(t, "L", state.Lines[1].Size)
	assert.True(t, state.Total.Equal(decimal.NewFromInt(50)))
}

func TestApply_SizePolicy(t *testing.T) {
	empty := domain.EmptyCart()

	_, err := Apply(empty, AddItem{Item: tshirt})
	assert.ErrorIs(t, err, ErrSizeRequired)

	_, err = Apply(empty, AddItem{Item: tshirt, Size: "XXL"})
	assert.ErrorIs(t, err, ErrUnknownSize)

	_, err = Apply(empty, AddItem{Item: mug, Size: "M"})
	assert.ErrorIs(t, err, ErrUnexpectedSize)

	state, err := Apply(empty, AddItem{Item: mug})
	require.NoError(t, err)
	assert.Len(t, state.Lines, 1)
}

func TestApply_RejectedAddLeavesStateUnchanged(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: mug})
	state = mustApply(t, state, CloseCart{})

	next, err := Apply(state, AddItem{Item: tshirt, Size: "nope"})
	require.Error(t, err)
	assert.Equal(t, state, next)
}

func TestApply_SetQuantityClampsToOne(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: mug})
	state = mustApply(t, state, AddItem{Item: mug})

	for _, q := range []int{0, -3} {
		next := mustApply(t, state, SetQuantity{ItemID: mug.ID, Quantity: q})
		require.Len(t, next.Lines, 1, "zero or negative quantity must not remove the line")
		assert.Equal(t, 1, next.Lines[0].Quantity)
		assert.True(t, next.Total.Equal(decimal.NewFromInt(12)))
	}
}

func TestApply_SetQuantityMissingLineIsNoop(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: mug})
	next := mustApply(t, state, SetQuantity{ItemID: pen.ID, Quantity: 4})
	assert.Equal(t, state, next)
}

func TestApply_RemoveLineIsIdempotent(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: tshirt, Size: "S"})

	next := mustApply(t, state, RemoveLine{ItemID: tshirt.ID, Size: "M"})
	assert.Equal(t, state, next)

	next = mustApply(t, state, RemoveLine{ItemID: tshirt.ID, Size: "S"})
	again := mustApply(t, next, RemoveLine{ItemID: tshirt.ID, Size: "S"})
	assert.Equal(t, next, again)
}

func TestApply_ClearCart(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: tshirt, Size: "S"})
	state = mustApply(t, state, AddItem{Item: pen})

	cleared := mustApply(t, state, ClearCart{})
	assert.Empty(t, cleared.Lines)
	assert.True(t, cleared.Total.IsZero())
	assert.False(t, cleared.IsOpen)
}

func TestApply_OpenCloseOnlyToggleVisibility(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: pen})

	closed := mustApply(t, state, CloseCart{})
	assert.False(t, closed.IsOpen)
	assert.Equal(t, state.Lines, closed.Lines)
	assert.True(t, state.Total.Equal(closed.Total))

	opened := mustApply(t, closed, OpenCart{})
	assert.True(t, opened.IsOpen)
	assert.Equal(t, state.Lines, opened.Lines)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	state := mustApply(t, domain.EmptyCart(), AddItem{Item: mug})
	before := state.Lines[0].Quantity

	_ = mustApply(t, state, AddItem{Item: mug})
	_ = mustApply(t, state, SetQuantity{ItemID: mug.ID, Quantity: 9})

	assert.Equal(t, before, state.Lines[0].Quantity)
}

func TestApply_TotalNeverDrifts(t *testing.T) {
	items := []domain.CatalogItem{tshirt, mug, pen}
	rng := rand.New(rand.NewSource(42))
	state := domain.EmptyCart()

	for step := 0; step < 2000; step++ {
		item := items[rng.Intn(len(items))]
		size := ""
		if item.HasSizes() {
			size = item.SizeVariants[rng.Intn(len(item.SizeVariants))]
		}

		var action Action
		switch rng.Intn(6) {
		case 0, 1:
			action = AddItem{Item: item, Size: size}
		case 2:
			action = RemoveLine{ItemID: item.ID, Size: size}
		case 3:
			action = SetQuantity{ItemID: item.ID, Size: size, Quantity: rng.Intn(12) - 3}
		case 4:
			action = OpenCart{}
		default:
			if rng.Intn(10) == 0 {
				action = ClearCart{}
			} else {
				action = CloseCart{}
			}
		}

		state = mustApply(t, state, action)

		require.Truef(t, state.Total.Equal(Total(state.Lines)), "step %d: total %s != %s", step, state.Total, Total(state.Lines))
		seen := map[domain.LineKey]bool{}
		for _, l := range state.Lines {
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.False(t, seen[l.Key()], "duplicate line %+v", l.Key())
			seen[l.Key()] = true
		}
	}
}
