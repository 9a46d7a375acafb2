package httpx

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/pkg/logger"
)

// TestRedisRateLimiterWindow runs when REDIS_TEST_ADDR points at a disposable
// Redis 7 server.
func TestRedisRateLimiterWindow(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rl, err := NewRedisRateLimiter(addr, "", 0, logger.Discard())
	require.NoError(t, err)
	defer rl.Close()

	key := "login:ip:test-" + uuid.NewString()
	first := rl.Allow(key, 2, time.Minute)
	assert.True(t, first.allowed)
	assert.Equal(t, 1, first.count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), first.windowEnd, 5*time.Second)

	second := rl.Allow(key, 2, time.Minute)
	assert.True(t, second.allowed)
	assert.WithinDuration(t, first.windowEnd, second.windowEnd, 2*time.Second, "the window is armed once")

	third := rl.Allow(key, 2, time.Minute)
	assert.False(t, third.allowed)
	assert.Equal(t, 3, third.count)

	other := rl.Allow("login:ip:test-"+uuid.NewString(), 2, time.Minute)
	assert.True(t, other.allowed)
}

func TestRedisRateLimiterFailsOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	rl := &redisRateLimiter{
		client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}),
		logger: logger.Discard(),
	}
	defer rl.Close()
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("login:ip:unreachable", 1, time.Minute).allowed)
	}
}

func TestNewRedisRateLimiterFailsFastWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := NewRedisRateLimiter("127.0.0.1:1", "", 0, logger.Discard())
	assert.Error(t, err)
}
