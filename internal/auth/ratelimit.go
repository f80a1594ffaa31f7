package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/hotsearch-web/internal/config"
)

// RateLimiter throttles login form submissions per IP+username. Failures are
// counted in a fixed window; reaching the limit locks the pair out.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord

	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time

	stop chan struct{}
	once sync.Once
}

type attemptRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

type RateLimitConfig struct {
	MaxAttempts     int
	Window          time.Duration
	Lockout         time.Duration
	CleanupInterval time.Duration
}

// RateLimitConfigFrom maps the AUTH_* settings, filling zero values with defaults.
func RateLimitConfigFrom(cfg config.Auth) RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts: cfg.MaxLoginAttempts,
		Window:      cfg.RateLimitWindow,
		Lockout:     cfg.LockoutDuration,
	}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		lockout:     cfg.Lockout,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func limiterKey(ip, username string) string {
	return ip + "|" + username
}

// Allow reports whether another attempt may be made and, if not, how long
// until the lockout ends.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[limiterKey(ip, username)]
	if !ok {
		return true, 0
	}

	now := rl.now()
	if now.Before(rec.lockedUntil) {
		return false, rec.lockedUntil.Sub(now)
	}
	if now.Sub(rec.windowStart) > rl.window {
		return true, 0
	}
	return rec.count < rl.maxAttempts, 0
}

// RecordFailure counts a rejected login and reports whether the pair is now
// locked out.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := limiterKey(ip, username)
	rec, ok := rl.attempts[key]
	if !ok || now.Sub(rec.windowStart) > rl.window {
		rec = &attemptRecord{windowStart: now}
		rl.attempts[key] = rec
	}

	rec.count++
	if rec.count >= rl.maxAttempts {
		rec.lockedUntil = now.Add(rl.lockout)
		return true, rl.lockout
	}
	return false, 0
}

func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, username))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, rec := range rl.attempts {
		if now.Sub(rec.windowStart) > rl.window && !now.Before(rec.lockedUntil) {
			delete(rl.attempts, key)
		}
	}
}

// Middleware rejects POSTs from a locked-out IP+username with 429. Handlers
// report outcomes through RecordFailure and RecordSuccess.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		username := c.PostForm("username")
		if username == "" {
			c.Next()
			return
		}

		if ok, retryAfter := rl.Allow(c.ClientIP(), username); !ok {
			c.Header("Retry-After", retryAfter.Round(time.Second).String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"retry_after": retryAfter.Round(time.Second).String(),
			})
			return
		}
		c.Next()
	}
}
