package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCounterKeyPrefix = "docseq:"
	seedLockTTL             = 10 * time.Second
)

// SeedFunc returns the highest number already issued for a tenant and type.
// The Redis counter starts from it the first time a key is used.
type SeedFunc func(ctx context.Context, tenantID uuid.UUID, docType document.Type) (int64, error)

// RedisDocumentCounter allocates document numbers with INCR. A missing key
// is seeded once from the database under a distributed lock, so numbers
// continue from documents issued before Redis held the sequence.
//
// Numbers taken by a transaction that later rolls back are not returned,
// which leaves a gap. Numbers are never reused.
type RedisDocumentCounter struct {
	client    redis.Cmdable
	locker    *redislock.Client
	seed      SeedFunc
	keyPrefix string
	retry     redislock.RetryStrategy
}

// RedisCounterOption configures a RedisDocumentCounter
type RedisCounterOption func(*RedisDocumentCounter)

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) RedisCounterOption {
	return func(c *RedisDocumentCounter) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithLockRetry sets how long to wait for another instance's seed
func WithLockRetry(strategy redislock.RetryStrategy) RedisCounterOption {
	return func(c *RedisDocumentCounter) {
		c.retry = strategy
	}
}

// NewRedisDocumentCounter creates a counter over an existing client
func NewRedisDocumentCounter(client *redis.Client, locker *redislock.Client, seed SeedFunc, opts ...RedisCounterOption) *RedisDocumentCounter {
	c := &RedisDocumentCounter{
		client:    client,
		locker:    locker,
		seed:      seed,
		keyPrefix: defaultCounterKeyPrefix,
		retry:     redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allocate returns the next number for the tenant and type
func (c *RedisDocumentCounter) Allocate(ctx context.Context, tenantID uuid.UUID, docType document.Type, prefix string) (document.Number, error) {
	key := c.key(tenantID, docType)

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return document.Number{}, fmt.Errorf("check document counter: %w", err)
	}
	if exists == 0 {
		if err := c.seedKey(ctx, key, tenantID, docType); err != nil {
			return document.Number{}, err
		}
	}

	seq, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return document.Number{}, fmt.Errorf("increment document counter: %w", err)
	}
	return document.Number{Sequence: seq, Value: document.FormatNumber(prefix, seq)}, nil
}

// seedKey sets the key to the database maximum unless another caller got
// there first
func (c *RedisDocumentCounter) seedKey(ctx context.Context, key string, tenantID uuid.UUID, docType document.Type) error {
	lock, err := c.locker.Obtain(ctx, key+":seed", seedLockTTL, &redislock.Options{RetryStrategy: c.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("document counter %s is being seeded elsewhere: %w", key, err)
	}
	if err != nil {
		return fmt.Errorf("lock document counter: %w", err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	highest, err := c.seed(ctx, tenantID, docType)
	if err != nil {
		return fmt.Errorf("read highest document number: %w", err)
	}
	if err := c.client.SetNX(ctx, key, highest, 0).Err(); err != nil {
		return fmt.Errorf("seed document counter: %w", err)
	}
	return nil
}

func (c *RedisDocumentCounter) key(tenantID uuid.UUID, docType document.Type) string {
	return c.keyPrefix + tenantID.String() + ":" + string(docType)
}

var _ document.Counter = (*RedisDocumentCounter)(nil)
