package requestconfig

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/hilthontt/chatkit/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// This interface is primarily used to describe an [*http.Client], but also
// supports custom HTTP implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds everything a client needs to reach its service instances.
//
// Editing the variables inside Config directly is unstable api. Prefer
// composing the RequestOption instead if possible.
type Config struct {
	InstanceLocator string
	Key             string
	Host            string
	Port            int
	// BaseURL replaces the scheme, host and port derived from the locator.
	BaseURL        *url.URL
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	CustomHTTPDoer HTTPDoer
	Middlewares    []middleware
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	// TokenCacheMargin enables token reuse when positive. Tokens are dropped
	// this long before they expire.
	TokenCacheMargin time.Duration
	Now              func() time.Time
}

// middleware is exactly the same type as the Middleware type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middleware = func(*http.Request, middlewareNext) (*http.Response, error)

// middlewareNext is exactly the same type as the MiddlewareNext type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middlewareNext = func(*http.Request) (*http.Response, error)

type RequestOption interface {
	Apply(*Config) error
}

type RequestOptionFunc func(*Config) error

func (s RequestOptionFunc) Apply(r *Config) error {
	return s(r)
}

func NewConfig(opts ...RequestOption) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.Apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return cfg, nil
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Doer returns the HTTP client wrapped by every configured middleware, the
// first registered middleware being the outermost.
func (cfg *Config) Doer(fallback HTTPDoer) HTTPDoer {
	var base HTTPDoer = fallback
	if cfg.HTTPClient != nil {
		base = cfg.HTTPClient
	}
	if cfg.CustomHTTPDoer != nil {
		base = cfg.CustomHTTPDoer
	}

	handler := base.Do
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		mw, next := cfg.Middlewares[i], handler
		handler = func(req *http.Request) (*http.Response, error) {
			return mw(req, next)
		}
	}

	return doerFunc(handler)
}

func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":     fmt.Sprintf("chatkit-server-go/%s", internal.PackageVersion),
		"X-SDK-Product":  "chatkit",
		"X-SDK-Version":  internal.PackageVersion,
		"X-SDK-Language": "go",
		"X-SDK-Platform": getNormalizedOS() + "/" + getNormalizedArchitecture(),
	}
}

func getNormalizedOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "linux":
		return "Linux"
	default:
		return fmt.Sprintf("Other:%s", runtime.GOOS)
	}
}

func getNormalizedArchitecture() string {
	switch runtime.GOARCH {
	case "386":
		return "x32"
	case "amd64":
		return "x64"
	case "arm", "arm64":
		return runtime.GOARCH
	default:
		return fmt.Sprintf("other:%s", runtime.GOARCH)
	}
}
