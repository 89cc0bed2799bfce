package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T, seed SeedFunc) (*RedisDocumentCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDocumentCounter(client, redislock.New(client), seed), mr
}

func zeroSeed(context.Context, uuid.UUID, document.Type) (int64, error) { return 0, nil }

func TestRedisDocumentCounter_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("starts at one when nothing was issued", func(t *testing.T) {
		counter, _ := newTestCounter(t, zeroSeed)
		tenantID := uuid.New()

		n, err := counter.Allocate(ctx, tenantID, document.TypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Sequence)
		assert.Equal(t, "INV-000001", n.Value)

		n, err = counter.Allocate(ctx, tenantID, document.TypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n.Sequence)
	})

	t.Run("continues from the database maximum", func(t *testing.T) {
		calls := 0
		counter, mr := newTestCounter(t, func(context.Context, uuid.UUID, document.Type) (int64, error) {
			calls++
			return 41, nil
		})
		tenantID := uuid.New()

		n, err := counter.Allocate(ctx, tenantID, document.TypeDepositReceipt, "DR")
		require.NoError(t, err)
		assert.Equal(t, "DR-000042", n.Value)

		_, err = counter.Allocate(ctx, tenantID, document.TypeDepositReceipt, "DR")
		require.NoError(t, err)
		assert.Equal(t, 1, calls)

		stored, err := mr.Get(defaultCounterKeyPrefix + tenantID.String() + ":DEPOSIT_RECEIPT")
		require.NoError(t, err)
		assert.Equal(t, "43", stored)
	})

	t.Run("keeps tenants and types apart", func(t *testing.T) {
		counter, _ := newTestCounter(t, zeroSeed)
		a, b := uuid.New(), uuid.New()

		_, err := counter.Allocate(ctx, a, document.TypeInvoice, "INV")
		require.NoError(t, err)
		n, err := counter.Allocate(ctx, b, document.TypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Sequence)
		n, err = counter.Allocate(ctx, a, document.TypePaymentReceipt, "RC")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Sequence)
	})

	t.Run("concurrent callers never share a number", func(t *testing.T) {
		counter, _ := newTestCounter(t, zeroSeed)
		tenantID := uuid.New()

		const workers = 20
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = make(map[int64]bool)
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := counter.Allocate(ctx, tenantID, document.TypeInvoice, "INV")
				assert.NoError(t, err)
				mu.Lock()
				seen[n.Sequence] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, workers)
		for i := int64(1); i <= workers; i++ {
			assert.True(t, seen[i], "missing %d", i)
		}
	})

	t.Run("seed failure is returned", func(t *testing.T) {
		boom := errors.New("db down")
		counter, _ := newTestCounter(t, func(context.Context, uuid.UUID, document.Type) (int64, error) {
			return 0, boom
		})

		_, err := counter.Allocate(ctx, uuid.New(), document.TypeInvoice, "INV")
		assert.ErrorIs(t, err, boom)
	})
}
