package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterConsumeExhaustsQuota(t *testing.T) {
	rl := NewRateLimiter(map[string]int{"email": 2}, time.Hour)
	assert.True(t, rl.Consume("email"))
	assert.True(t, rl.Consume("email"))
	assert.False(t, rl.Consume("email"))
}

func TestRateLimiterSnapshotReflectsUsage(t *testing.T) {
	rl := NewRateLimiter(map[string]int{"twitter": 5}, time.Hour)
	rl.Consume("twitter")
	rl.Consume("twitter")

	snap := rl.Snapshot("twitter")
	assert.Equal(t, 3, snap.Remaining)
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(map[string]int{"email": 1}, 5*time.Millisecond)
	assert.True(t, rl.Consume("email"))
	assert.False(t, rl.Consume("email"))

	time.Sleep(10 * time.Millisecond)
	assert.True(t, rl.Consume("email"))
}
