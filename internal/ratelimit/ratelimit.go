// Package ratelimit throttles public endpoints per client.
package ratelimit

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client. Buckets for clients that have
// gone quiet are dropped after the idle period.
type Limiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients *gocache.Cache
}

// PerHour allows n requests per hour per client with a burst of n.
func PerHour(n int) *Limiter {
	return New(rate.Every(time.Hour/time.Duration(n)), n, time.Hour)
}

func New(limit rate.Limit, burst int, idle time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		clients: gocache.New(idle, idle),
	}
}

func (l *Limiter) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.clients.Get(client); ok {
		lim := v.(*rate.Limiter)
		// touch so the idle timer restarts
		l.clients.SetDefault(client, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.clients.SetDefault(client, lim)
	return lim
}

// Allow spends one token for client. When the bucket is empty it reports how
// long until the next token.
func (l *Limiter) Allow(client string) (bool, time.Duration) {
	lim := l.get(client)
	r := lim.Reserve()
	if !r.OK() {
		return false, 0
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}
