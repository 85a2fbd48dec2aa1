package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// userLimiter keeps one token bucket per user
type userLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

// newUserLimiter allows perMinute updates per user; perMinute <= 0 disables limiting
func newUserLimiter(perMinute float64, burst int) *userLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (l *userLimiter) Allow(userId int64) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userId]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userId] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
