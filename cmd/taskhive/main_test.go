package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/logger"
)

func TestRunReturnsFailureForUnknownStore(t *testing.T) {
	cfg := config.AppConfig{StoreDriver: "sqlite", Addr: "127.0.0.1:0"}
	assert.Equal(t, 1, run(context.Background(), cfg, logger.Discard()))
}

func TestRunReturnsFailureForBadPasswordScheme(t *testing.T) {
	cfg := config.AppConfig{StoreDriver: config.DriverMemory, PasswordScheme: "md5", Addr: "127.0.0.1:0"}
	assert.Equal(t, 1, run(context.Background(), cfg, logger.Discard()))
}

func TestRunShutsDownCleanly(t *testing.T) {
	cfg := config.AppConfig{
		StoreDriver:    config.DriverMemory,
		PasswordScheme: "plaintext",
		SessionSecret:  "test-secret",
		Addr:           "127.0.0.1:0",
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- run(ctx, cfg, logger.Discard()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
