package ratelimit

import (
	"sync"
	"time"
)

// PerUserLimiterConfig configures a PerUserLimiter instance.
type PerUserLimiterConfig struct {
	MaxTokens     float64       // Maximum tokens per user (burst capacity)
	RefillRate    float64       // Tokens refilled per second
	CleanupPeriod time.Duration // How often to clean up inactive limiters
}

// PerUserLimiter tracks rate limits per Telegram user ID.
// It creates a separate token bucket for each user and automatically
// cleans up buckets that have refilled to capacity.
type PerUserLimiter struct {
	mu       sync.RWMutex
	limiters map[int64]*Limiter
	config   PerUserLimiterConfig
	onDrop   func()          // Optional callback when a message is dropped
	onUpdate func(count int) // Optional callback when active count changes
	stopCh   chan struct{}
}

// NewPerUserLimiter creates a new per-user rate limiter.
//
// Example:
//
//	limiter := NewPerUserLimiter(PerUserLimiterConfig{
//	    MaxTokens:     15,
//	    RefillRate:    0.1, // 1 token per 10 seconds
//	    CleanupPeriod: 5 * time.Minute,
//	})
//	defer limiter.Stop()
//
//	if limiter.Allow(userID) {
//	    // Process message
//	}
func NewPerUserLimiter(cfg PerUserLimiterConfig) *PerUserLimiter {
	pul := &PerUserLimiter{
		limiters: make(map[int64]*Limiter),
		config:   cfg,
		stopCh:   make(chan struct{}),
	}

	go pul.cleanupLoop()

	return pul
}

// OnDrop sets a callback function that is called when a message is dropped due to rate limiting.
func (pul *PerUserLimiter) OnDrop(fn func()) {
	pul.onDrop = fn
}

// OnUpdate sets a callback function that is called when the active limiter count changes.
func (pul *PerUserLimiter) OnUpdate(fn func(count int)) {
	pul.onUpdate = fn
}

// Allow checks if a message from the given user is allowed.
// Returns true if allowed (token consumed), false if rate limit exceeded.
func (pul *PerUserLimiter) Allow(userID int64) bool {
	if userID == 0 {
		return true
	}

	pul.mu.RLock()
	limiter, exists := pul.limiters[userID]
	pul.mu.RUnlock()

	if !exists {
		pul.mu.Lock()
		// Double-check after acquiring write lock
		limiter, exists = pul.limiters[userID]
		if !exists {
			limiter = New(pul.config.MaxTokens, pul.config.RefillRate)
			pul.limiters[userID] = limiter
		}
		pul.mu.Unlock()
	}

	allowed := limiter.Allow()
	if !allowed && pul.onDrop != nil {
		pul.onDrop()
	}
	return allowed
}

// GetAvailable returns the number of available tokens for a user.
// Returns MaxTokens if the user has no limiter yet.
func (pul *PerUserLimiter) GetAvailable(userID int64) float64 {
	if userID == 0 {
		return pul.config.MaxTokens
	}

	pul.mu.RLock()
	limiter, exists := pul.limiters[userID]
	pul.mu.RUnlock()

	if !exists {
		return pul.config.MaxTokens
	}

	return limiter.Available()
}

// GetActiveCount returns the number of active limiters.
func (pul *PerUserLimiter) GetActiveCount() int {
	pul.mu.RLock()
	defer pul.mu.RUnlock()
	return len(pul.limiters)
}

// cleanupLoop periodically removes inactive limiters.
func (pul *PerUserLimiter) cleanupLoop() {
	ticker := time.NewTicker(pul.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-pul.stopCh:
			return
		case <-ticker.C:
			pul.mu.Lock()
			for userID, limiter := range pul.limiters {
				if limiter.IsFull() {
					delete(pul.limiters, userID)
				}
			}
			activeCount := len(pul.limiters)
			pul.mu.Unlock()

			if pul.onUpdate != nil {
				pul.onUpdate(activeCount)
			}
		}
	}
}

// Stop gracefully stops the cleanup goroutine.
// Safe to call multiple times.
func (pul *PerUserLimiter) Stop() {
	select {
	case <-pul.stopCh:
		// Already stopped
	default:
		close(pul.stopCh)
	}
}
