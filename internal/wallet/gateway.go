// Package wallet talks to the custodial wallet that pays for checkouts.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// ErrNotReady is returned by wallet calls made before Init completed.
var ErrNotReady = errors.New("wallet gateway not initialised")

// Gateway is the custody surface used by checkout and the wallet page.
type Gateway interface {
	Address(ctx context.Context) (string, error)
	Balance(ctx context.Context, tokenSymbol string) (string, error)
	SendPayment(ctx context.Context, to, tokenID string, amount decimal.Decimal) (string, error)
}

// ValidateAddress reports whether addr is a base58 Solana public key.
func ValidateAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid solana address %q: %w", addr, err)
	}
	return nil
}
