// Package pending holds the single-slot checkout mailbox: the PendingOrder written after
// payment and read back, then deleted, by the confirmation step. It also keeps the
// confirmation receipt for a short window so a repeated confirmation does not resubmit
// the order. Once the receipt expires the session has nothing left to confirm.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyTxnHash      = "pendingTxnHash"
	keyOrderDetails = "pendingOrderDetails"
	keyReceipt      = "confirmation"
)

type Mailbox interface {
	Put(ctx context.Context, sessionID string, order domain.PendingOrder) error
	Get(ctx context.Context, sessionID string) (*domain.PendingOrder, error)
	Delete(ctx context.Context, sessionID string) error
	SaveReceipt(ctx context.Context, sessionID string, receipt []byte) error
	Receipt(ctx context.Context, sessionID string) ([]byte, error)
	ClearReceipt(ctx context.Context, sessionID string) error
}

const DefaultReceiptTTL = 30 * time.Second

type RedisMailbox struct {
	client     *redis.Client
	ttl        time.Duration
	receiptTTL time.Duration
}

func NewRedisMailbox(client *redis.Client, ttl, receiptTTL time.Duration) *RedisMailbox {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if receiptTTL <= 0 {
		receiptTTL = DefaultReceiptTTL
	}
	return &RedisMailbox{client: client, ttl: ttl, receiptTTL: receiptTTL}
}

// Put writes the hash and the serialized order together.
func (m *RedisMailbox) Put(ctx context.Context, sessionID string, order domain.PendingOrder) error {
	details, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal pending order failed: %w", err)
	}
	_, err = m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key(sessionID, keyTxnHash), order.TransactionHash, m.ttl)
		pipe.Set(ctx, key(sessionID, keyOrderDetails), details, m.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put pending order failed: %w", err)
	}
	return nil
}

// Get returns domain.ErrNotFound unless both keys are present and agree.
func (m *RedisMailbox) Get(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	vals, err := m.client.MGet(ctx, key(sessionID, keyTxnHash), key(sessionID, keyOrderDetails)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get pending order failed: %w", err)
	}
	hash, okHash := vals[0].(string)
	details, okDetails := vals[1].(string)
	if !okHash || !okDetails || hash == "" {
		return nil, domain.ErrNotFound
	}

	var order domain.PendingOrder
	if err := json.Unmarshal([]byte(details), &order); err != nil {
		return nil, fmt.Errorf("unmarshal pending order failed: %w", err)
	}
	if order.TransactionHash != hash {
		return nil, fmt.Errorf("pending order hash mismatch: %q vs %q", order.TransactionHash, hash)
	}
	return &order, nil
}

func (m *RedisMailbox) Delete(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, key(sessionID, keyTxnHash), key(sessionID, keyOrderDetails)).Err(); err != nil {
		return fmt.Errorf("redis delete pending order failed: %w", err)
	}
	return nil
}

func (m *RedisMailbox) SaveReceipt(ctx context.Context, sessionID string, receipt []byte) error {
	if err := m.client.Set(ctx, key(sessionID, keyReceipt), receipt, m.receiptTTL).Err(); err != nil {
		return fmt.Errorf("redis set receipt failed: %w", err)
	}
	return nil
}

func (m *RedisMailbox) Receipt(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := m.client.Get(ctx, key(sessionID, keyReceipt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get receipt failed: %w", err)
	}
	return data, nil
}

func (m *RedisMailbox) ClearReceipt(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, key(sessionID, keyReceipt)).Err(); err != nil {
		return fmt.Errorf("redis delete receipt failed: %w", err)
	}
	return nil
}

func key(sessionID, name string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, name)
}
