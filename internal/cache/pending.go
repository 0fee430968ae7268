package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("pending transaction not found")

// DefaultTTL bounds how long an in-flight push is tracked. A record
// still present after this long means the callback never arrived.
const DefaultTTL = time.Hour

// PendingTransaction is the ephemeral record bridging a push
// acknowledgment and its result callback. Amount and PhoneNumber here
// are the authoritative values for the final ledger row; the callback
// is never trusted for them. Written exactly once, never mutated.
type PendingTransaction struct {
	CheckoutRequestID string  `json:"CheckoutRequestID"`
	MerchantRequestID string  `json:"MerchantRequestID"`
	Amount            float64 `json:"Amount"`
	PhoneNumber       string  `json:"PhoneNumber"`
	Status            string  `json:"status"`
}

type PendingStore interface {
	Put(ctx context.Context, txn PendingTransaction, ttl time.Duration) error
	Get(ctx context.Context, checkoutRequestID string) (*PendingTransaction, error)
	Delete(ctx context.Context, checkoutRequestID string) error
}

// RedisPendingStore keys JSON-serialized records by checkout request ID
// with a TTL, so abandoned entries expire without a sweeper.
type RedisPendingStore struct {
	client *redis.Client
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func pendingKey(checkoutRequestID string) string {
	return "express:pending:" + checkoutRequestID
}

func (s *RedisPendingStore) Put(ctx context.Context, txn PendingTransaction, ttl time.Duration) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal pending transaction: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(txn.CheckoutRequestID), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache pending transaction: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Get(ctx context.Context, checkoutRequestID string) (*PendingTransaction, error) {
	data, err := s.client.Get(ctx, pendingKey(checkoutRequestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read pending transaction: %w", err)
	}

	var txn PendingTransaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal pending transaction: %w", err)
	}
	return &txn, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, checkoutRequestID string) error {
	if err := s.client.Del(ctx, pendingKey(checkoutRequestID)).Err(); err != nil {
		return fmt.Errorf("delete pending transaction: %w", err)
	}
	return nil
}
