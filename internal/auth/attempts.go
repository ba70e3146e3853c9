package auth

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// AttemptLimiter counts login attempts per client over a sliding window. An
// attempt is counted when it starts and handed back if the login succeeds,
// so parallel guesses cannot slip past the limit while bcrypt runs.
type AttemptLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts *gocache.Cache // client -> []time.Time
}

func NewAttemptLimiter(max int, window time.Duration, now func() time.Time) *AttemptLimiter {
	if now == nil {
		now = time.Now
	}
	return &AttemptLimiter{
		max:      max,
		window:   window,
		now:      now,
		attempts: gocache.New(window, window),
	}
}

// Reserve counts an attempt for client unless the window is already full. It
// returns the attempt's timestamp for Release, or false and the time until
// the oldest attempt ages out.
func (l *AttemptLimiter) Reserve(client string) (time.Time, time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.recent(client, now)
	if len(recent) >= l.max {
		return time.Time{}, recent[0].Add(l.window).Sub(now), false
	}
	l.attempts.Set(client, append(recent, now), gocache.DefaultExpiration)
	return now, 0, true
}

// Release forgets the attempt reserved at "at", for logins that succeeded.
func (l *AttemptLimiter) Release(client string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recent(client, l.now())
	for i, t := range recent {
		if t.Equal(at) {
			recent = append(recent[:i], recent[i+1:]...)
			break
		}
	}
	if len(recent) == 0 {
		l.attempts.Delete(client)
		return
	}
	l.attempts.Set(client, recent, gocache.DefaultExpiration)
}

// recent returns the attempts still inside the window. Caller holds mu.
func (l *AttemptLimiter) recent(client string, now time.Time) []time.Time {
	v, ok := l.attempts.Get(client)
	if !ok {
		return nil
	}
	cutoff := now.Add(-l.window)
	var out []time.Time
	for _, t := range v.([]time.Time) {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}
