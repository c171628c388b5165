package config

import (
	"context"
	"testing"
	"time"
)

func TestConnectRedisWithRetryStopsOnCancel(t *testing.T) {
	// Reserved port, nothing listens there; every attempt fails fast.
	t.Setenv("REDIS_ADDRESS", "127.0.0.1:1")

	connCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ConnectRedisWithRetry(connCtx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ConnectRedisWithRetry kept retrying after its context was cancelled")
	}

	if GetRedisDB() != nil {
		t.Error("a failed connect left a dead client behind; helpers must stay memory-only")
	}
}
