package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, sessionID string) (*domain.CartState, error) {
	const cartQuery = `
SELECT total::text, is_open
FROM carts
WHERE session_id = $1
`
	var (
		state domain.CartState
		total string
	)
	err := r.pool.QueryRow(ctx, cartQuery, sessionID).Scan(&total, &state.IsOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if state.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse cart total %q: %w", total, err)
	}

	const linesQuery = `
SELECT item_id, size, name, unit_price::text, image_ref, quantity
FROM cart_lines
WHERE session_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	state.Lines = []domain.CartLine{}
	for rows.Next() {
		var (
			line  domain.CartLine
			price string
		)
		if err := rows.Scan(&line.ItemID, &line.Size, &line.Name, &price, &line.ImageRef, &line.Quantity); err != nil {
			return nil, err
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price %q: %w", price, err)
		}
		state.Lines = append(state.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &state, nil
}

// Save replaces the stored cart with state. The stored total is recomputed from the lines.
func (r *postgresRepo) Save(ctx context.Context, sessionID string, state domain.CartState) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO carts (session_id, total, is_open, updated_at)
VALUES ($1, 0, $2, now())
ON CONFLICT (session_id) DO UPDATE
SET is_open = EXCLUDED.is_open,
    updated_at = now()
`, sessionID, state.IsOpen); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE session_id = $1`, sessionID); err != nil {
		return err
	}

	for i, line := range state.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (session_id, position, item_id, size, name, unit_price, image_ref, quantity)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
`, sessionID, i, line.ItemID, line.Size, line.Name, line.UnitPrice.String(), line.ImageRef, line.Quantity); err != nil {
			return err
		}
	}

	if err := updateCartTotal(ctx, tx, sessionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID)
	return err
}

func updateCartTotal(ctx context.Context, tx pgx.Tx, sessionID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET total = COALESCE((
	SELECT SUM(unit_price * quantity)
	FROM cart_lines
	WHERE session_id = $1
), 0)
WHERE session_id = $1
`, sessionID)
	return err
}
