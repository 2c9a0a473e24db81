package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/logger"
	"github.com/wonny/aegis-signal/pkg/redis"
)

func TestMemoryStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	snap, err := store.Load(ctx, []string{"005930"})
	require.NoError(t, err)
	_, ok := snap.Prior("005930")
	assert.False(t, ok)

	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, []contracts.Evaluation{
		{Instrument: "005930", EvaluatedAt: at, FiltersPassed: 5, ContextValue: 3.1},
		{Instrument: "000660", EvaluatedAt: at, FiltersPassed: 2, ContextValue: 1.9},
	}))
	assert.Equal(t, 2, store.Len())

	snap, err = store.Load(ctx, []string{"005930", "035720"})
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	prior, ok := snap.Prior("005930")
	require.True(t, ok)
	assert.Equal(t, 5, prior.FiltersPassed)
	assert.Equal(t, 3.1, prior.ContextValue)
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, []contracts.Evaluation{{Instrument: "A", FiltersPassed: 3}}))

	snap, err := store.Load(ctx, []string{"A"})
	require.NoError(t, err)

	// 배치 종료 후 저장해도 이미 받은 스냅샷은 그대로
	require.NoError(t, store.Save(ctx, []contracts.Evaluation{{Instrument: "A", FiltersPassed: 7}}))
	prior, _ := snap.Prior("A")
	assert.Equal(t, 3, prior.FiltersPassed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Save(ctx, []contracts.Evaluation{{Instrument: "X", FiltersPassed: i % 8}})
			_, _ = store.Load(ctx, []string{"X"})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, store.Len())
}

func TestRedisStore_Disabled(t *testing.T) {
	ctx := context.Background()
	cache := redis.NewCache(redis.NewFromRedis(nil), "aegis")
	store := NewRedisStore(cache, 0, logger.Nop())

	assert.Equal(t, redis.TTLWeekly, store.ttl)

	snap, err := store.Load(ctx, []string{"005930"})
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)

	assert.NoError(t, store.Save(ctx, []contracts.Evaluation{{Instrument: "005930", FiltersPassed: 4}}))
}
