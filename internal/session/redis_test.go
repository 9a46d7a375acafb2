package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/pkg/logger"
)

// TestRedisStoreRoundTrip runs when REDIS_TEST_ADDR points at a disposable server.
func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	store, err := NewRedisStore(addr, "", 0, logger.Discard())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "test-session", Data{UserID: "u1", Page: "tasks"}, time.Minute))
	got, err := store.Get(ctx, "test-session")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "tasks", got.Page)

	require.NoError(t, store.Delete(ctx, "test-session"))
	_, err = store.Get(ctx, "test-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStoreFailsFastWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := NewRedisStore("127.0.0.1:1", "", 0, logger.Discard())
	assert.Error(t, err)
}
