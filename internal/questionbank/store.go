package questionbank

import (
	"context"
	"errors"
	"sort"
	"sync"

	"resume-insight/internal/types"
)

var (
	// ErrReadOnly 当前存储不支持写入
	ErrReadOnly = errors.New("question bank store is read-only")
	// ErrInvalidBank 写入的题库缺少存储键或题目
	ErrInvalidBank = errors.New("invalid question bank")
)

// Store 题库存储，每次调用返回全部题库的完整快照
type Store interface {
	LoadBanks(ctx context.Context) ([]types.BankRecord, error)
}

// Writer 可写入的题库存储
type Writer interface {
	UpsertBank(ctx context.Context, bank types.BankRecord) error
}

// Invalidator 缓存层在题库变更后需要失效
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ValidateBank 写入前的基本校验
func ValidateBank(bank types.BankRecord) error {
	if bank.Key == "" {
		return errors.Join(ErrInvalidBank, errors.New("key is required"))
	}
	if len(bank.Questions) == 0 {
		return errors.Join(ErrInvalidBank, errors.New("at least one question is required"))
	}
	return nil
}

// MemoryStore 内存题库，按存储键排序返回，用于测试和无外部依赖的部署
type MemoryStore struct {
	mu    sync.RWMutex
	banks map[string]types.BankRecord
}

// NewMemoryStore 使用初始题库创建内存存储
func NewMemoryStore(banks ...types.BankRecord) *MemoryStore {
	s := &MemoryStore{banks: make(map[string]types.BankRecord, len(banks))}
	for _, b := range banks {
		s.banks[b.Key] = cloneBank(b)
	}
	return s
}

// LoadBanks 实现 Store
func (s *MemoryStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.banks))
	for k := range s.banks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.BankRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneBank(s.banks[k]))
	}
	return out, nil
}

// UpsertBank 实现 Writer
func (s *MemoryStore) UpsertBank(ctx context.Context, bank types.BankRecord) error {
	if err := ValidateBank(bank); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank.Key] = cloneBank(bank)
	return nil
}

func cloneBank(b types.BankRecord) types.BankRecord {
	out := types.BankRecord{Key: b.Key, Skill: b.Skill}
	if b.Questions != nil {
		out.Questions = make([]types.QuestionRecord, len(b.Questions))
		for i, q := range b.Questions {
			q.Keywords = append([]string(nil), q.Keywords...)
			out.Questions[i] = q
		}
	}
	return out
}
