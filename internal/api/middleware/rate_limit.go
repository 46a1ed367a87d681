package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	apiContext "opsdeck/internal/api/context"
	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/config"
)

// RateLimiter applies per-organization token buckets, one bucket per
// (org, class) pair. Reads and writes get separate budgets.
type RateLimiter struct {
	store  *sync.Map // map[string]*bucket
	limits map[string]int
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		store: &sync.Map{},
		limits: map[string]int{
			"api_read":  cfg.APIReadPerMinute,
			"api_write": cfg.APIWritePerMinute,
		},
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.store.Range(func(key, value interface{}) bool {
			b := value.(*bucket)
			b.mu.Lock()
			if now.Sub(b.lastAccess) > 10*time.Minute {
				rl.store.Delete(key)
			}
			b.mu.Unlock()
			return true
		})
	}
}

func (rl *RateLimiter) allow(orgID, class string) bool {
	limit, ok := rl.limits[class]
	if !ok || limit <= 0 {
		return true
	}

	key := fmt.Sprintf("%s:%s", orgID, class)
	value, _ := rl.store.LoadOrStore(key, &bucket{tokens: limit, lastRefill: time.Now()})
	b := value.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.lastAccess = now

	if now.Sub(b.lastRefill) >= time.Minute {
		b.tokens = limit
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Limit wraps a handler with the given class budget. It runs after
// auth, so claims are available for the org key.
func (rl *RateLimiter) Limit(class string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			orgID := "anonymous"
			if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok {
				orgID = claims.OrganizationID
			}

			if !rl.allow(orgID, class) {
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}

			next(w, r)
		}
	}
}
