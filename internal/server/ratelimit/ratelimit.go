// Package ratelimit provides per-client request limiting using a token
// bucket.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket allows a number of requests per window, with tokens
// refilling at a steady rate.
type TokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// allow consumes a token if one is available.
func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool          `json:"enabled"`
	Limit           int           `json:"limit"`
	Window          time.Duration `json:"window"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DefaultConfig allows 120 requests per minute per client.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Limit:           120,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter manages one token bucket per client.
type Limiter struct {
	config     Config
	mu         sync.Mutex
	buckets    map[string]*TokenBucket
	lastAccess map[string]time.Time
	stop       chan struct{}
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup loop.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{
		config:     config,
		buckets:    make(map[string]*TokenBucket),
		lastAccess: make(map[string]time.Time),
		stop:       make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether a request from the client is within its limit.
func (l *Limiter) Allow(clientID string) bool {
	if !l.config.Enabled || l.config.Limit <= 0 {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.buckets[clientID]
	if !ok {
		refillRate := float64(l.config.Limit) / l.config.Window.Seconds()
		bucket = newTokenBucket(l.config.Limit, refillRate)
		l.buckets[clientID] = bucket
	}
	l.lastAccess[clientID] = time.Now()
	l.mu.Unlock()

	return bucket.allow()
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * l.config.CleanupInterval)
			l.mu.Lock()
			for id, last := range l.lastAccess {
				if last.Before(cutoff) {
					delete(l.buckets, id)
					delete(l.lastAccess, id)
				}
			}
			l.mu.Unlock()
		}
	}
}
