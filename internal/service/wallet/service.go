// Package wallet reports the checkout wallet's address and token balance.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/retry"
	gateway "storefront/internal/wallet"

	"go.uber.org/zap"
)

type Service struct {
	gw     gateway.Gateway
	symbol string
	policy retry.Policy
	logger *zap.Logger
}

type Status struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Symbol  string `json:"symbol"`
}

func New(gw gateway.Gateway, symbol string, policy retry.Policy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gw: gw, symbol: symbol, policy: policy, logger: logger}
}

// Status resolves the address and reads the balance, retrying transient balance failures.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	addr, err := s.gw.Address(ctx)
	if err != nil {
		return nil, err
	}
	attempt := 0
	balance, err := retry.DoValue(ctx, s.policy, func(ctx context.Context) (string, error) {
		attempt++
		bal, err := s.gw.Balance(ctx, s.symbol)
		if errors.Is(err, gateway.ErrNotReady) {
			return "", retry.Permanent(err)
		}
		if err != nil {
			s.logger.Warn("balance refresh failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return bal, err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh %s balance: %w", s.symbol, err)
	}
	return &Status{Address: addr, Balance: balance, Symbol: s.symbol}, nil
}
