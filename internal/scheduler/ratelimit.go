package scheduler

import (
	"fmt"
	"sync"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/tools"
)

// toolError converts a failed tools.Result into an error carrying the same
// cocoerr.Kind, so template callers can branch on RateLimited the same way
// the Consciousness Engine does.
func toolError(name string, res tools.Result) error {
	return &cocoerr.Error{Kind: res.ErrorKind, Message: fmt.Sprintf("%s: %s", name, res.ErrorMessage)}
}

// RateSnapshot reports how much quota a service has left in its current
// window.
type RateSnapshot struct {
	Service       string
	Remaining     int
	WindowResetAt time.Time
}

// RateLimiter tracks a simple fixed-window quota per external service
// (email sends, tweet posts). Templates call Consume before acting to record
// usage; Snapshot reports the current counts. When a window is exhausted, Consume returns
// false and the template must short-circuit without acting, per spec's
// rate-limit-awareness requirement.
type RateLimiter struct {
	mu     sync.Mutex
	quotas map[string]int
	window time.Duration
	used   map[string]int
	resets map[string]time.Time
}

// NewRateLimiter builds a limiter from a per-service quota-per-window map.
func NewRateLimiter(quotas map[string]int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		quotas: quotas,
		window: window,
		used:   map[string]int{},
		resets: map[string]time.Time{},
	}
}

func (r *RateLimiter) rollWindow(service string, now time.Time) {
	reset, ok := r.resets[service]
	if !ok || now.After(reset) {
		r.used[service] = 0
		r.resets[service] = now.Add(r.window)
	}
}

// Snapshot reports the current remaining quota for service.
func (r *RateLimiter) Snapshot(service string) RateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.rollWindow(service, now)
	quota := r.quotas[service]
	return RateSnapshot{
		Service:       service,
		Remaining:     quota - r.used[service],
		WindowResetAt: r.resets[service],
	}
}

// Consume attempts to use one unit of service's quota, returning false
// without consuming anything if the window is already exhausted.
func (r *RateLimiter) Consume(service string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.rollWindow(service, now)
	if r.used[service] >= r.quotas[service] {
		return false
	}
	r.used[service]++
	return true
}
