package questionbank

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/metrics"
	"resume-insight/internal/types"
)

// countingStore 记录底层读取次数
type countingStore struct {
	*MemoryStore
	loads atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.LoadBanks(ctx)
}

// readOnlyStore 只实现 Store
type readOnlyStore struct{ inner Store }

func (s readOnlyStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	return s.inner.LoadBanks(ctx)
}

// memorySnapshot 模拟 Redis 快照缓存
type memorySnapshot struct {
	mu   sync.Mutex
	data []byte
	ttl  time.Duration
	err  error
}

func (c *memorySnapshot) GetBankSnapshot(ctx context.Context) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	if c.data == nil {
		return nil, false, nil
	}
	return c.data, true, nil
}

func (c *memorySnapshot) SetBankSnapshot(ctx context.Context, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append([]byte(nil), data...)
	c.ttl = ttl
	return nil
}

func (c *memorySnapshot) DeleteBankSnapshot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	return nil
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore(types.BankRecord{
		Key:       "python",
		Skill:     "Python",
		Questions: []types.QuestionRecord{{ID: "py-1", Question: "What is a list?"}},
	})}
}

func TestCachedStore_ZeroTTLReadsThrough(t *testing.T) {
	inner := newCountingStore()
	store := NewCachedStore(inner, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.LoadBanks(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), inner.loads.Load())
}

func TestCachedStore_LocalTTL(t *testing.T) {
	inner := newCountingStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := metrics.New()
	store := NewCachedStore(inner, time.Minute, withClock(func() time.Time { return now }), WithMetrics(m))
	ctx := context.Background()

	_, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	_, err = store.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.loads.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BankCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BankCacheMisses))

	// 超过 ttl 后重新读取
	now = now.Add(61 * time.Second)
	_, err = store.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.loads.Load())
}

func TestCachedStore_UpsertInvalidates(t *testing.T) {
	inner := newCountingStore()
	store := NewCachedStore(inner, time.Hour)
	ctx := context.Background()

	banks, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.True(t, store.Writable())

	require.NoError(t, store.UpsertBank(ctx, types.BankRecord{
		Key:       "go",
		Skill:     "Go",
		Questions: []types.QuestionRecord{{ID: "go-1", Question: "What is a channel?"}},
	}))

	banks, err = store.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Len(t, banks, 2, "写入后立即可见")
	assert.Equal(t, int32(2), inner.loads.Load())
}

func TestCachedStore_ReadOnly(t *testing.T) {
	store := NewCachedStore(readOnlyStore{inner: newCountingStore()}, time.Minute)
	assert.False(t, store.Writable())
	err := store.UpsertBank(context.Background(), types.BankRecord{Key: "x"})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestCachedStore_RemoteSnapshot(t *testing.T) {
	inner := newCountingStore()
	remote := &memorySnapshot{}
	store := NewCachedStore(inner, 30*time.Second, WithSnapshotCache(remote))
	ctx := context.Background()

	first, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, remote.ttl)
	require.NotNil(t, remote.data)

	// 另一个实例共享同一份快照，不再访问底层存储
	other := NewCachedStore(inner, 30*time.Second, WithSnapshotCache(remote))
	second, err := other.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.loads.Load())

	require.NoError(t, other.Invalidate(ctx))
	assert.Nil(t, remote.data)
}

func TestCachedStore_RemoteErrorFallsBack(t *testing.T) {
	inner := newCountingStore()
	remote := &memorySnapshot{err: errors.New("redis down")}
	store := NewCachedStore(inner, time.Minute, WithSnapshotCache(remote))

	banks, err := store.LoadBanks(context.Background())
	require.NoError(t, err)
	assert.Len(t, banks, 1)
}

func TestCachedStore_SingleFlight(t *testing.T) {
	inner := newCountingStore()
	inner.delay = 50 * time.Millisecond
	store := NewCachedStore(inner, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.LoadBanks(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), inner.loads.Load())
}

func TestCachedStore_PropagatesError(t *testing.T) {
	inner := newCountingStore()
	inner.err = errors.New("boom")
	store := NewCachedStore(inner, time.Minute)

	_, err := store.LoadBanks(context.Background())
	assert.EqualError(t, err, "boom")
}
