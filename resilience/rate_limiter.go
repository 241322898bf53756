package resilience

import (
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the refill rate in tokens per second.
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is the bucket capacity.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// RateLimiter is a token bucket.
type RateLimiter struct {
	rate  float64
	burst float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewRateLimiter creates a full bucket. Burst defaults to the rate, and to
// one when the rate is below one per second.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	rl := &RateLimiter{
		rate:  cfg.Rate,
		burst: float64(cfg.Burst),
		now:   time.Now,
	}
	rl.tokens = rl.burst
	rl.last = rl.now()
	return rl
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.burst, rl.tokens+now.Sub(rl.last).Seconds()*rl.rate)
	rl.last = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// full reports whether the bucket has refilled, meaning the limiter holds no
// state worth keeping.
func (rl *RateLimiter) full() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	elapsed := rl.now().Sub(rl.last).Seconds()
	return rl.tokens+elapsed*rl.rate >= rl.burst
}

// KeyedRateLimiter keeps one token bucket per key, e.g. per client IP.
type KeyedRateLimiter struct {
	cfg RateLimiterConfig

	mu      sync.Mutex
	buckets map[string]*RateLimiter
}

// NewKeyedRateLimiter creates an empty set of buckets sharing cfg.
func NewKeyedRateLimiter(cfg RateLimiterConfig) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*RateLimiter),
	}
}

// Allow takes one token from the bucket of key.
func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	rl, ok := k.buckets[key]
	if !ok {
		rl = NewRateLimiter(k.cfg)
		k.buckets[key] = rl
	}
	k.mu.Unlock()
	return rl.Allow()
}

// Prune drops buckets that have refilled and returns how many were removed.
func (k *KeyedRateLimiter) Prune() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for key, rl := range k.buckets {
		if rl.full() {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
