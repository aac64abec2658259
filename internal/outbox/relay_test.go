package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/storage"
	"resume-insight/internal/storage/models"
)

// memStore 模拟 ProcessOutbox 的批处理语义
type memStore struct {
	mu       sync.Mutex
	messages []*models.OutboxMessage
	err      error
	calls    int
}

func (s *memStore) ProcessOutbox(ctx context.Context, batchSize int, handle storage.OutboxHandler) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, m := range s.messages {
		if n == batchSize {
			break
		}
		if m.Status != models.OutboxPending {
			continue
		}
		handle(ctx, m)
		n++
	}
	return n, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []string
	bodies [][]byte
}

func (p *fakePublisher) PublishMessage(ctx context.Context, exchange, routingKey string, body []byte, persistent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[routingKey] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, exchange+"/"+routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func newMessage(t *testing.T, id uint, routingKey string) *models.OutboxMessage {
	t.Helper()
	msg, err := models.NewOutboxMessage("a-1", "resume.analyzed", "events", routingKey, map[string]string{"analysis_id": "a-1"})
	require.NoError(t, err)
	msg.ID = id
	return msg
}

func TestProcessPendingDelivers(t *testing.T) {
	store := &memStore{messages: []*models.OutboxMessage{newMessage(t, 1, "ok.a"), newMessage(t, 2, "ok.b")}}
	pub := &fakePublisher{}
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewMessageRelay(store, pub)
	r.now = func() time.Time { return fixed }

	n, err := r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"events/ok.a", "events/ok.b"}, pub.sent)
	assert.JSONEq(t, `{"analysis_id":"a-1"}`, string(pub.bodies[0]))

	for _, m := range store.messages {
		assert.Equal(t, models.OutboxSent, m.Status)
		require.NotNil(t, m.ProcessedAt)
		assert.Equal(t, fixed, *m.ProcessedAt)
	}

	n, err = r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "已投递的消息不会再次处理")
}

func TestProcessPendingRetriesThenFails(t *testing.T) {
	msg := newMessage(t, 1, "down")
	store := &memStore{messages: []*models.OutboxMessage{msg}}
	pub := &fakePublisher{fail: map[string]bool{"down": true}}
	r := NewMessageRelay(store, pub, WithMaxRetries(3))

	for i := 1; i <= 2; i++ {
		_, err := r.ProcessPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.OutboxPending, msg.Status)
		assert.Equal(t, i, msg.RetryCount)
		assert.Equal(t, "broker unavailable", msg.ErrorMessage)
	}

	_, err := r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OutboxFailed, msg.Status)
	assert.Equal(t, 3, msg.RetryCount)
	assert.NotNil(t, msg.ProcessedAt)
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := &memStore{}
	for i := range 5 {
		store.messages = append(store.messages, newMessage(t, uint(i+1), "ok"))
	}
	r := NewMessageRelay(store, &fakePublisher{}, WithBatchSize(2))

	n, err := r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProcessPendingStoreError(t *testing.T) {
	r := NewMessageRelay(&memStore{err: errors.New("db down")}, &fakePublisher{})
	_, err := r.ProcessPending(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestStartAndStop(t *testing.T) {
	store := &memStore{messages: []*models.OutboxMessage{newMessage(t, 1, "ok")}}
	pub := &fakePublisher{}
	r := NewMessageRelay(store, pub, WithPollingInterval(10*time.Millisecond))

	r.Start(context.Background())
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.sent) == 1
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()

	store.mu.Lock()
	calls := store.calls
	store.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, calls, store.calls, "Stop 之后不再轮询")
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	r := NewMessageRelay(&memStore{}, &fakePublisher{}, WithPollingInterval(0), WithBatchSize(-1), WithMaxRetries(0))
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)
	assert.Equal(t, defaultMaxRetries, r.maxRetries)
}
