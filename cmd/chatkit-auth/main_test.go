package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hilthontt/chatkit/internal/infrastructure/ratelimiter"
	"github.com/spf13/pflag"
)

func TestRun_StopsBeforeServing(t *testing.T) {
	if err := run([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("--help returned %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := run([]string{"--config", missing}); err == nil {
		t.Error("a missing config file should fail")
	}

	t.Setenv("CHATKIT_CONFIG", "")
	t.Setenv("CHATKIT_INSTANCE_LOCATOR", "not-a-locator")
	t.Setenv("CHATKIT_INSTANCE_KEY", "id:secret")
	t.Setenv("LOGGER_LEVEL", "fatal")
	if err := run([]string{"--config", writeEmptyConfig(t)}); err == nil {
		t.Error("an invalid locator should fail before the server starts")
	}
}

func TestRun_RejectsZeroRateLimitWindow(t *testing.T) {
	t.Setenv("CHATKIT_CONFIG", "")
	t.Setenv("LOGGER_LEVEL", "fatal")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "chatkit:\n  instance_locator: v1:us1:abc\n  key: id:secret\nrate_limiter:\n  requests_per_time_frame: 5\n  time_frame: 0s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"--config", path}); err == nil {
		t.Fatal("a zero rate limit window should fail before the server starts")
	}
}

func TestCleanupLoop_StopsWithContext(t *testing.T) {
	rl := ratelimiter.NewFixedWindowRateLimiter(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cleanupLoop(ctx, rl, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanupLoop kept running after cancel")
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
