// Package order submits orders to the order store and serves order history.
package order

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type Service struct {
	store    orderrepo.Repository
	submitCB *gobreaker.CircuitBreaker[*domain.Order]
	listCB   *gobreaker.CircuitBreaker[[]domain.Order]
	now      func() time.Time
	logger   *zap.Logger
}

func New(store orderrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		submitCB: gobreaker.NewCircuitBreaker[*domain.Order](breakerSettings("order-submit", logger)),
		listCB:   gobreaker.NewCircuitBreaker[[]domain.Order](breakerSettings("order-list", logger)),
		now:      time.Now,
		logger:   logger,
	}
}

func breakerSettings(name string, logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("order store breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
}

type SubmitInput struct {
	Items           []domain.CartLine
	Total           decimal.Decimal
	ShippingAddress domain.ShippingAddress
	TransactionHash string
	WalletAddress   string
}

// Submit records a paid order. The store keys orders by transaction hash, so
// submitting the same hash again returns the order already recorded.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Order, error) {
	if strings.TrimSpace(in.TransactionHash) == "" {
		return nil, &domain.ValidationError{Message: "transaction hash required", Fields: []string{"transactionHash"}}
	}
	if len(in.Items) == 0 {
		return nil, &domain.ValidationError{Message: "order has no items", Fields: []string{"items"}}
	}
	if err := wallet.ValidateAddress(in.WalletAddress); err != nil {
		return nil, &domain.ValidationError{Message: err.Error(), Fields: []string{"walletAddress"}}
	}

	now := s.now().UTC()
	o := domain.Order{
		OrderID:         fmt.Sprintf("ORDER-%d", now.UnixMilli()),
		WalletAddress:   in.WalletAddress,
		ShippingAddress: in.ShippingAddress,
		Items:           in.Items,
		Total:           in.Total,
		TransactionHash: in.TransactionHash,
		OrderDate:       now,
	}
	created, err := s.submitCB.Execute(func() (*domain.Order, error) {
		return s.store.Create(ctx, o)
	})
	if err != nil {
		s.logger.Error("order submit failed", zap.String("tx_hash", in.TransactionHash), zap.Error(err))
		return nil, err
	}
	s.logger.Info("order recorded",
		zap.String("order_id", created.OrderID), zap.String("tx_hash", created.TransactionHash))
	return created, nil
}

// ListByWallet returns the wallet's orders, newest first.
func (s *Service) ListByWallet(ctx context.Context, walletAddress string) ([]domain.Order, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, &domain.ValidationError{Message: "wallet address is required", Fields: []string{"walletAddress"}}
	}
	if err := wallet.ValidateAddress(walletAddress); err != nil {
		return nil, &domain.ValidationError{Message: err.Error(), Fields: []string{"walletAddress"}}
	}
	orders, err := s.listCB.Execute(func() ([]domain.Order, error) {
		return s.store.ListByWallet(ctx, walletAddress)
	})
	if err != nil {
		s.logger.Error("order list failed", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, err
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(b.OrderID, a.OrderID)
	})
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
