package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"

	"resume-insight/internal/metrics"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter 按客户端 IP 的令牌桶限流
// 超过 idleTTL 未访问的客户端在下一次清理时被移除。
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewClientRateLimiter 创建限流器，rps<=0 时不限流
func NewClientRateLimiter(rps float64, burst int, idleTTL time.Duration) *ClientRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &ClientRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow 消耗 key 的一个令牌
func (l *ClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweepLocked(now)
	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()
	return cl.limiter.AllowN(now, 1)
}

// Len 当前跟踪的客户端数量
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *ClientRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for key, cl := range l.clients {
		if now.Sub(cl.lastSeen) >= l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit 超出限额时返回 429
func RateLimit(l *ClientRateLimiter, m *metrics.Metrics) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if l == nil || l.Allow(c.ClientIP()) {
			c.Next(ctx)
			return
		}
		m.ObserveRateLimited()
		retryAfter := 1
		if l.limit > 0 && l.limit != rate.Inf {
			retryAfter = max(1, int(1/float64(l.limit)))
		}
		c.Response.Header.Set("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]string{"detail": "Rate limit exceeded"})
	}
}
