// Package checkout remembers which account started a payment so the gateway
// callback, which only carries the transaction id, can credit the right one.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

const ttl = 24 * time.Hour

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Pending struct {
	Email  string `json:"email"`
	Amount int    `json:"amount"`
}

type Store interface {
	Save(ctx context.Context, transactionID string, p Pending) error
	Get(ctx context.Context, transactionID string) (Pending, bool, error)
	Finish(ctx context.Context, transactionID, status string) error
}

type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, transactionID string, p Pending) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, checkoutKey(transactionID), b, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, transactionID string) (Pending, bool, error) {
	v, err := r.client.Get(ctx, checkoutKey(transactionID)).Result()
	if err == redis.Nil {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, err
	}

	var p Pending
	if err := json.Unmarshal([]byte(v), &p); err != nil {
		return Pending{}, false, err
	}
	return p, true, nil
}

// Finish drops the key; the outcome itself lives on the account.
func (r *RedisStore) Finish(ctx context.Context, transactionID, _ string) error {
	return r.client.Del(ctx, checkoutKey(transactionID)).Err()
}

func checkoutKey(transactionID string) string {
	return fmt.Sprintf("checkout:%s", transactionID)
}

// DBStore keeps checkouts in the payment_transactions table. It is used
// when no redis address is configured.
type DBStore struct {
	db *gormdb.DB
}

var _ Store = (*DBStore)(nil)

func NewDBStore(db *gormdb.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Save(ctx context.Context, transactionID string, p Pending) error {
	txn := &gorm.PaymentTransaction{
		TransactionID: transactionID,
		Email:         p.Email,
		Amount:        p.Amount,
		Status:        StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to save checkout: %w", err)
	}
	return nil
}

func (s *DBStore) Get(ctx context.Context, transactionID string) (Pending, bool, error) {
	var txn gorm.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, StatusPending).
		First(&txn).Error
	if errors.Is(err, gormdb.ErrRecordNotFound) {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("failed to get checkout: %w", err)
	}
	return Pending{Email: txn.Email, Amount: txn.Amount}, true, nil
}

func (s *DBStore) Finish(ctx context.Context, transactionID, status string) error {
	err := s.db.WithContext(ctx).
		Model(&gorm.PaymentTransaction{}).
		Where("transaction_id = ?", transactionID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to finish checkout: %w", err)
	}
	return nil
}
