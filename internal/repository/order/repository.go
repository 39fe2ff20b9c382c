package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository is an append-only order store. Create is idempotent on the transaction hash.
type Repository interface {
	Create(ctx context.Context, order domain.Order) (*domain.Order, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]domain.Order, error)
}
