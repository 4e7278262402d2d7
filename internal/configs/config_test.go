package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hilthontt/chatkit/internal/requestconfig"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
chatkit:
  instance_locator: v1:us1:abc
  key: id:secret
  timeout: 5s
http:
  port: 9090
logger:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Chatkit.InstanceLocator != "v1:us1:abc" || cfg.Chatkit.Key != "id:secret" {
		t.Errorf("unexpected chatkit config %+v", cfg.Chatkit)
	}
	if cfg.Chatkit.Timeout != 5*time.Second {
		t.Errorf("expected file timeout to win, got %v", cfg.Chatkit.Timeout)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Encoding != "json" {
		t.Errorf("unexpected logger config %+v", cfg.Logger)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be off by default")
	}
	if cfg.RateLimiter.RequestsPerTimeFrame != 20 || cfg.RateLimiter.TimeFrame != time.Minute {
		t.Errorf("unexpected rate limiter defaults %+v", cfg.RateLimiter)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "chatkit:\n  instance_locator: v1:us1:file\n")
	t.Setenv("CHATKIT_INSTANCE_LOCATOR", "v1:us1:env")
	t.Setenv("CHATKIT_INSTANCE_KEY", "id:secret")
	t.Setenv("AUTH_HTTP_PORT", "7070")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("AUTH_RATE_LIMIT", "0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chatkit.InstanceLocator != "v1:us1:env" {
		t.Errorf("expected env to override the file, got %s", cfg.Chatkit.InstanceLocator)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("unexpected port %d", cfg.HTTP.Port)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing to be enabled from env")
	}
	if cfg.RateLimiter.RequestsPerTimeFrame != 0 {
		t.Errorf("expected AUTH_RATE_LIMIT=0 to disable limiting, got %d", cfg.RateLimiter.RequestsPerTimeFrame)
	}
}

func TestLoad_EnvConversions(t *testing.T) {
	t.Setenv("CHATKIT_HTTP_TIMEOUT_SECONDS", "12")
	t.Setenv("CHATKIT_TOKEN_CACHE", "10m")
	t.Setenv("AUTH_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("LOGGER_LEVEL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chatkit.Timeout != 12*time.Second {
		t.Errorf("timeout = %v, want 12s", cfg.Chatkit.Timeout)
	}
	if cfg.Chatkit.TokenCache != 10*time.Minute {
		t.Errorf("token cache = %v, want 10m", cfg.Chatkit.TokenCache)
	}
	if cfg.RateLimiter.TimeFrame != 30*time.Second {
		t.Errorf("rate limit window = %v, want 30s", cfg.RateLimiter.TimeFrame)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("an empty variable should keep the default, got %q", cfg.Logger.Level)
	}
}

func TestLoad_RejectsZeroRateLimitWindow(t *testing.T) {
	tests := map[string]string{
		"zero window":    "rate_limiter:\n  requests_per_time_frame: 5\n  time_frame: 0s\n",
		"negative limit": "rate_limiter:\n  requests_per_time_frame: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected an invalid rate limiter to be rejected")
			}
		})
	}

	cfg, err := Load(writeConfig(t, "rate_limiter:\n  requests_per_time_frame: 0\n  time_frame: 0s\n"))
	if err != nil {
		t.Fatalf("a disabled limiter needs no window: %v", err)
	}
	if cfg.RateLimiter.RequestsPerTimeFrame != 0 {
		t.Errorf("limit = %d", cfg.RateLimiter.RequestsPerTimeFrame)
	}
}

func TestLoad_WithoutFile(t *testing.T) {
	t.Setenv("CHATKIT_INSTANCE_LOCATOR", "v1:us1:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chatkit.InstanceLocator != "v1:us1:abc" || cfg.Chatkit.Timeout != 30*time.Second {
		t.Errorf("unexpected config %+v", cfg.Chatkit)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("an explicit missing file should be an error")
	}
}

func TestDetermineConfigPath(t *testing.T) {
	t.Setenv("CHATKIT_CONFIG", "/from/env.yaml")

	if got := DetermineConfigPath("/from/flag.yaml"); got != "/from/flag.yaml" {
		t.Errorf("flag should win, got %s", got)
	}
	if got := DetermineConfigPath(""); got != "/from/env.yaml" {
		t.Errorf("expected env path, got %s", got)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &Config{Chatkit: ChatkitConfig{
		InstanceLocator: "v1:us1:abc",
		Key:             "id:secret",
		BaseURL:         "http://localhost:9000",
		Timeout:         time.Second,
		TokenCache:      time.Minute,
	}}

	rc, err := requestconfig.NewConfig(cfg.ClientOptions()...)
	if err != nil {
		t.Fatalf("apply options: %v", err)
	}
	if rc.InstanceLocator != "v1:us1:abc" || rc.Key != "id:secret" {
		t.Errorf("unexpected credentials %+v", rc)
	}
	if rc.BaseURL.String() != "http://localhost:9000" || rc.RequestTimeout != time.Second || rc.TokenCacheMargin != time.Minute {
		t.Errorf("unexpected connection settings %+v", rc)
	}
}
