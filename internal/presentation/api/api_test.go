package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/chatkittest"
	"github.com/hilthontt/chatkit/internal/configs"
	"github.com/hilthontt/chatkit/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/chatkit/internal/logging"
	authHandler "github.com/hilthontt/chatkit/internal/presentation/handler/auth"
	healthHandler "github.com/hilthontt/chatkit/internal/presentation/handler/health"
	"github.com/hilthontt/chatkit/internal/platform"
	"github.com/hilthontt/chatkit/option"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestServer(t *testing.T, limiter ratelimiter.Limiter) (*httptest.Server, *chatkittest.Server) {
	t.Helper()

	instance := chatkittest.NewServer()
	t.Cleanup(instance.Close)

	client, err := chatkit.NewClient(append(instance.ClientOptions(), option.WithHTTPClient(instance.Client()))...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	logger := logging.NewLogger(configs.LoggerConfig{Level: "fatal"}, "chatkit-auth-test")
	app := NewApplication(
		configs.Config{},
		*authHandler.NewHandler(client, logger),
		*healthHandler.NewHandler(),
		logger,
		limiter,
		prometheus.NewRegistry(),
		noop.NewTracerProvider(),
	)

	srv := httptest.NewServer(app.Mount())
	t.Cleanup(srv.Close)
	return srv, instance
}

func postToken(t *testing.T, srv *httptest.Server, userID string) *http.Response {
	t.Helper()
	form := url.Values{"grant_type": {"client_credentials"}}
	resp, err := http.Post(srv.URL+"/auth?user_id="+userID, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthEndpoint_IssuesVerifiableTokens(t *testing.T) {
	srv, instance := newTestServer(t, nil)

	resp := postToken(t, srv, "ham")
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q", got)
	}

	var body chatkit.AuthenticationBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	key, _ := platform.ParseKey(instance.Key)
	locator, _ := platform.ParseLocator(instance.InstanceLocator)
	claims, err := platform.ParseToken(body.AccessToken, key, locator.InstanceID)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != "ham" || claims.Su {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuthEndpoint_Preflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/auth", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("preflight answered %d %v", resp.StatusCode, resp.Header)
	}
}

func TestAuthEndpoint_RateLimited(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimiter.NewFixedWindowRateLimiter(1, time.Minute, ratelimiter.WithClock(func() time.Time { return now }))
	srv, _ := newTestServer(t, limiter)

	if resp := postToken(t, srv, "ham"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request answered %d", resp.StatusCode)
	}
	resp := postToken(t, srv, "ham")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request answered %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q", got)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer metrics.Body.Close()
	text, _ := io.ReadAll(metrics.Body)
	if !strings.Contains(string(text), "chatkit_auth_rate_limited_total 1") {
		t.Errorf("metrics do not count the rejection:\n%s", text)
	}
	if !strings.Contains(string(text), `chatkit_auth_token_requests_total{status="200"} 1`) {
		t.Errorf("metrics do not count the issued token:\n%s", text)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Version == "" {
		t.Fatalf("health answered %d %+v", resp.StatusCode, body)
	}
}
