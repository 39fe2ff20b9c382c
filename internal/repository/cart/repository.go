package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists one cart per browsing session.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Save(ctx context.Context, sessionID string, state domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}
