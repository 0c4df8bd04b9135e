package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestPerUserLimiter_Allow(t *testing.T) {
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     3,
		RefillRate:    1.0,
		CleanupPeriod: 1 * time.Minute,
	})
	defer limiter.Stop()

	// First 3 messages should be allowed
	for i := 0; i < 3; i++ {
		if !limiter.Allow(1001) {
			t.Errorf("Message %d should be allowed", i+1)
		}
	}

	// 4th message should be denied
	if limiter.Allow(1001) {
		t.Error("4th message should be denied")
	}

	// Different user should still be allowed
	if !limiter.Allow(1002) {
		t.Error("Different user should be allowed")
	}
}

func TestPerUserLimiter_ZeroUserID(t *testing.T) {
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.1,
		CleanupPeriod: 1 * time.Minute,
	})
	defer limiter.Stop()

	// Zero user ID should always be allowed
	for i := 0; i < 10; i++ {
		if !limiter.Allow(0) {
			t.Error("Zero user ID should always be allowed")
		}
	}
}

func TestPerUserLimiter_OnDrop(t *testing.T) {
	dropCount := 0
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.001,
		CleanupPeriod: 1 * time.Minute,
	})
	limiter.OnDrop(func() {
		dropCount++
	})
	defer limiter.Stop()

	// First message allowed
	limiter.Allow(1001)

	// Second message dropped
	limiter.Allow(1001)

	if dropCount != 1 {
		t.Errorf("Expected 1 drop, got %d", dropCount)
	}
}

func TestPerUserLimiter_GetAvailable(t *testing.T) {
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     10,
		RefillRate:    1.0,
		CleanupPeriod: 1 * time.Minute,
	})
	defer limiter.Stop()

	if got := limiter.GetAvailable(1001); got != 10 {
		t.Errorf("Unused user should have full tokens, got %f", got)
	}

	limiter.Allow(1001)

	if got := limiter.GetAvailable(1001); got >= 10 {
		t.Errorf("Expected fewer than 10 tokens after consume, got %f", got)
	}
}

func TestPerUserLimiter_GetActiveCount(t *testing.T) {
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     5,
		RefillRate:    1.0,
		CleanupPeriod: 1 * time.Minute,
	})
	defer limiter.Stop()

	limiter.Allow(1001)
	limiter.Allow(1002)
	limiter.Allow(1003)

	if got := limiter.GetActiveCount(); got != 3 {
		t.Errorf("Expected 3 active limiters, got %d", got)
	}
}

func TestPerUserLimiter_Concurrent(t *testing.T) {
	limiter := NewPerUserLimiter(PerUserLimiterConfig{
		MaxTokens:     100,
		RefillRate:    10,
		CleanupPeriod: 1 * time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				limiter.Allow(userID)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if got := limiter.GetActiveCount(); got != 10 {
		t.Errorf("Expected 10 active limiters, got %d", got)
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter := New(1, 100) // fast refill for test

	if !limiter.Allow() {
		t.Fatal("First request should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("Second immediate request should be denied")
	}

	time.Sleep(20 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Request after refill should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	limiter := New(2, 0.001)
	limiter.Allow()
	limiter.Allow()

	if limiter.Allow() {
		t.Fatal("Bucket should be empty")
	}

	limiter.Reset()
	if !limiter.Allow() {
		t.Error("Request after reset should be allowed")
	}
}
