package questionbank

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"resume-insight/internal/logger"
	"resume-insight/internal/metrics"
	"resume-insight/internal/types"
)

const snapshotFlightKey = "banks"

// SnapshotCache 题库快照的外部缓存，由 storage.Redis 实现
// GetBankSnapshot 未命中时返回 (nil, false, nil)。
type SnapshotCache interface {
	GetBankSnapshot(ctx context.Context) ([]byte, bool, error)
	SetBankSnapshot(ctx context.Context, data []byte, ttl time.Duration) error
	DeleteBankSnapshot(ctx context.Context) error
}

// CachedStore 在 Store 外加一层有时限的快照缓存
// 题库更新最迟在 ttl 之后可见；调用 Invalidate 后立即可见。ttl 为 0 时每次都读底层存储。
// 配置了 SnapshotCache 时快照存放在 Redis，多个实例共享；否则存放在进程内。
type CachedStore struct {
	inner   Store
	remote  SnapshotCache
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	local    []types.BankRecord
	localExp time.Time
}

// CachedStoreOption 配置 CachedStore
type CachedStoreOption func(*CachedStore)

// WithSnapshotCache 使用外部缓存保存快照
func WithSnapshotCache(c SnapshotCache) CachedStoreOption {
	return func(s *CachedStore) {
		s.remote = c
	}
}

// WithMetrics 记录缓存命中率
func WithMetrics(m *metrics.Metrics) CachedStoreOption {
	return func(s *CachedStore) {
		s.metrics = m
	}
}

func withClock(now func() time.Time) CachedStoreOption {
	return func(s *CachedStore) {
		s.now = now
	}
}

// NewCachedStore 创建带缓存的题库存储
func NewCachedStore(inner Store, ttl time.Duration, opts ...CachedStoreOption) *CachedStore {
	s := &CachedStore{inner: inner, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadBanks 实现 Store，命中缓存时返回共享快照，调用方不得修改
func (s *CachedStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	if s.ttl <= 0 {
		return s.inner.LoadBanks(ctx)
	}
	if banks, ok := s.lookup(ctx); ok {
		s.metrics.ObserveBankCache(true)
		return banks, nil
	}
	s.metrics.ObserveBankCache(false)

	v, err, _ := s.group.Do(snapshotFlightKey, func() (interface{}, error) {
		if banks, ok := s.lookup(ctx); ok {
			return banks, nil
		}
		banks, err := s.inner.LoadBanks(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, banks)
		return banks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.BankRecord), nil
}

// UpsertBank 写入底层存储并使缓存失效
func (s *CachedStore) UpsertBank(ctx context.Context, bank types.BankRecord) error {
	w, ok := s.inner.(Writer)
	if !ok {
		return ErrReadOnly
	}
	if err := w.UpsertBank(ctx, bank); err != nil {
		return err
	}
	return s.Invalidate(ctx)
}

// Writable 底层存储是否支持写入
func (s *CachedStore) Writable() bool {
	_, ok := s.inner.(Writer)
	return ok
}

// Invalidate 丢弃进程内和外部缓存中的快照
func (s *CachedStore) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.local = nil
	s.localExp = time.Time{}
	s.mu.Unlock()

	if s.remote != nil {
		if err := s.remote.DeleteBankSnapshot(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *CachedStore) lookup(ctx context.Context) ([]types.BankRecord, bool) {
	if s.remote == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.local != nil && s.now().Before(s.localExp) {
			return s.local, true
		}
		return nil, false
	}

	data, ok, err := s.remote.GetBankSnapshot(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("读取题库缓存失败，回退到底层存储")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var banks []types.BankRecord
	if err := json.Unmarshal(data, &banks); err != nil {
		logger.Warn().Err(err).Msg("题库缓存数据损坏")
		return nil, false
	}
	return banks, true
}

func (s *CachedStore) store(ctx context.Context, banks []types.BankRecord) {
	if s.remote == nil {
		s.mu.Lock()
		s.local = banks
		s.localExp = s.now().Add(s.ttl)
		s.mu.Unlock()
		return
	}

	data, err := json.Marshal(banks)
	if err != nil {
		logger.Warn().Err(err).Msg("序列化题库快照失败")
		return
	}
	if err := s.remote.SetBankSnapshot(ctx, data, s.ttl); err != nil {
		logger.Warn().Err(err).Msg("写入题库缓存失败")
	}
}
