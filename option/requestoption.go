package option

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hilthontt/chatkit/internal/requestconfig"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestOption configures a [chatkit.Client]. Options are applied in order,
// later options overriding earlier ones.
type RequestOption = requestconfig.RequestOption

type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)

type MiddlewareNext = func(*http.Request) (*http.Response, error)

func WithInstanceLocator(locator string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.InstanceLocator = locator
		return nil
	})
}

// WithKey sets the instance key, in the "key_id:key_secret" form shown in the dashboard.
func WithKey(key string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.Key = key
		return nil
	})
}

func WithHost(host string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.Host = host
		return nil
	})
}

func WithPort(port int) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("option: invalid port %d", port)
		}
		r.Port = port
		return nil
	})
}

// WithBaseURL points every service at base instead of the host derived from
// the instance locator.
func WithBaseURL(base string) RequestOption {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		if err != nil {
			return fmt.Errorf("option: failed to parse base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("option: base url %q must be absolute", base)
		}
		r.BaseURL = u
		return nil
	})
}

func WithHTTPClient(client *http.Client) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		if client == nil {
			return fmt.Errorf("option: custom http client cannot be nil")
		}
		r.HTTPClient = client
		return nil
	})
}

// WithHTTPDoer replaces the HTTP client with any implementation of Do.
// It takes precedence over WithHTTPClient.
func WithHTTPDoer(doer requestconfig.HTTPDoer) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		if doer == nil {
			return fmt.Errorf("option: custom http doer cannot be nil")
		}
		r.CustomHTTPDoer = doer
		return nil
	})
}

// WithRequestTimeout bounds each round trip made by the default HTTP client.
func WithRequestTimeout(d time.Duration) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.RequestTimeout = d
		return nil
	})
}

func WithMiddleware(middlewares ...Middleware) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.Middlewares = append(r.Middlewares, middlewares...)
		return nil
	})
}

func WithLogger(logger *zap.Logger) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.Logger = logger
		return nil
	})
}

func WithTracerProvider(tp trace.TracerProvider) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.TracerProvider = tp
		return nil
	})
}

// WithTokenCache lets the client reuse access tokens until margin before
// they expire, instead of minting one per request.
func WithTokenCache(margin time.Duration) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		if margin <= 0 {
			return fmt.Errorf("option: token cache margin must be positive")
		}
		r.TokenCacheMargin = margin
		return nil
	})
}

// WithClock overrides the time source used for token minting and caching.
func WithClock(now func() time.Time) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.Config) error {
		r.Now = now
		return nil
	})
}
