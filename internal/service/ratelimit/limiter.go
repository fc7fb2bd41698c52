package ratelimit

import (
	"sync"
	"time"
)

// bucket tracks a token-bucket state for one caller key.
type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-key token bucket used to throttle API callers.
// Buckets that have been idle longer than staleAfter are dropped on
// the next Allow call so the map does not grow unbounded.
type Limiter struct {
	mu         sync.Mutex
	m          map[string]*bucket
	staleAfter time.Duration
	lastSweep  time.Time
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket), staleAfter: 10 * time.Minute}
}

// Allow reports whether one token can be consumed for key. A missing
// bucket starts full.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops idle buckets. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.staleAfter {
		return
	}
	l.lastSweep = now
	for k, b := range l.m {
		if now.Sub(b.last) > l.staleAfter {
			delete(l.m, k)
		}
	}
}
