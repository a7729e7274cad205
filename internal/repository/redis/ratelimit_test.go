package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_WindowKey(t *testing.T) {
	rl := NewRateLimiter(nil, 30, 10)
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 40, rl.Limit())
	assert.Equal(t, "caremind:ratelimit:user-1:1714557600", rl.windowKey("user-1", start))
	assert.NotEqual(t, rl.windowKey("user-1", start), rl.windowKey("user-1", start.Add(time.Minute)))
}
