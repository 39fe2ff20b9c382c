package seed

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/domain"
)

type orderWriter interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}

type lineSeed struct {
	ItemID   int
	Size     string
	Quantity int
}

type orderSeed struct {
	DaysAgo int
	Lines   []lineSeed
}

var demoOrders = []orderSeed{
	{DaysAgo: 14, Lines: []lineSeed{{ItemID: 1, Size: "M", Quantity: 2}, {ItemID: 4, Quantity: 1}}},
	{DaysAgo: 6, Lines: []lineSeed{{ItemID: 2, Quantity: 1}, {ItemID: 5, Quantity: 3}}},
	{DaysAgo: 1, Lines: []lineSeed{{ItemID: 1, Size: "L", Quantity: 1}, {ItemID: 6, Quantity: 1}}},
}

// Apply records demo orders for walletAddress for manual testing. Transaction hashes
// are derived from the wallet so rerunning it does not duplicate orders.
func Apply(ctx context.Context, store orderWriter, items *catalog.Catalog, walletAddress string, now time.Time) ([]domain.Order, error) {
	var created []domain.Order
	for i, s := range demoOrders {
		state := domain.EmptyCart()
		for _, l := range s.Lines {
			item, err := items.Get(l.ItemID)
			if err != nil {
				return nil, fmt.Errorf("seed item %d: %w", l.ItemID, err)
			}
			state, err = cart.Apply(state, cart.AddItem{Item: item, Size: l.Size})
			if err != nil {
				return nil, fmt.Errorf("seed item %d: %w", l.ItemID, err)
			}
			state, _ = cart.Apply(state, cart.SetQuantity{ItemID: l.ItemID, Size: l.Size, Quantity: l.Quantity})
		}

		date := now.UTC().AddDate(0, 0, -s.DaysAgo)
		o, err := store.Create(ctx, domain.Order{
			OrderID:       fmt.Sprintf("ORDER-%d", date.UnixMilli()),
			WalletAddress: walletAddress,
			ShippingAddress: domain.ShippingAddress{
				FullName: "Demo Customer",
				Street:   "1 Demo Street",
				City:     "Springfield",
				State:    "IL",
				ZipCode:  "62701",
				Country:  "US",
				Email:    "demo@example.com",
			},
			Items:           state.Lines,
			Total:           state.Total,
			TransactionHash: seedHash(walletAddress, i),
			OrderDate:       date,
		})
		if err != nil {
			return nil, fmt.Errorf("create demo order %d: %w", i+1, err)
		}
		created = append(created, *o)
	}
	return created, nil
}

func seedHash(walletAddress string, i int) string {
	return fmt.Sprintf("seed-%s-%d", walletAddress, i+1)
}
