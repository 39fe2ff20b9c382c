package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `order_id, wallet_address, full_name, email, street, city, state, zip_code, country, items, total::text, transaction_hash, order_date`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal order items: %w", err)
	}

	const q = `
INSERT INTO orders (order_id, wallet_address, full_name, email, street, city, state, zip_code, country, items, total, transaction_hash, order_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12, $13)
ON CONFLICT (transaction_hash) DO NOTHING
RETURNING ` + orderColumns

	a := o.ShippingAddress
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.OrderID, o.WalletAddress, a.FullName, a.Email, a.Street, a.City, a.State, a.ZipCode, a.Country,
		items, o.Total.String(), o.TransactionHash, o.OrderDate,
	))
	if err == nil {
		r.logger.Info("order stored", zap.String("order_id", created.OrderID), zap.String("tx", created.TransactionHash))
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("order insert failed", zap.String("tx", o.TransactionHash), zap.Error(err))
		return nil, err
	}

	// The hash is already recorded; hand back the original order.
	existing, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE transaction_hash = $1`, o.TransactionHash))
	if err != nil {
		return nil, err
	}
	r.logger.Info("order already stored for transaction", zap.String("order_id", existing.OrderID), zap.String("tx", existing.TransactionHash))
	return existing, nil
}

func (r *postgresRepo) ListByWallet(ctx context.Context, walletAddress string) ([]domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE wallet_address = $1
ORDER BY order_date DESC, order_id DESC, transaction_hash
`
	rows, err := r.pool.Query(ctx, q, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("orders listed", zap.String("wallet", walletAddress), zap.Int("count", len(result)))
	return result, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		a     = &o.ShippingAddress
		items []byte
		total string
	)
	if err := row.Scan(&o.OrderID, &o.WalletAddress, &a.FullName, &a.Email, &a.Street, &a.City, &a.State, &a.ZipCode, &a.Country,
		&items, &total, &o.TransactionHash, &o.OrderDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", o.OrderID, err)
	}
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total of %s: %w", o.OrderID, err)
	}
	return &o, nil
}
