package option

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hilthontt/chatkit/internal/requestconfig"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var sensitiveHeaderRegex = regexp.MustCompile(`(?im)^(Authorization|Cookie|Set-Cookie|X-Api-Key): .+$`)

func redactSensitiveHeaders(s string) string {
	return sensitiveHeaderRegex.ReplaceAllString(s, "$1: [REDACTED]")
}

// WithDebugLog dumps every request and response at debug level, with
// credentials redacted.
func WithDebugLog(logger *zap.Logger) RequestOption {
	if logger == nil {
		logger = zap.NewNop()
	}

	return WithMiddleware(func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
		if dump, err := httputil.DumpRequestOut(r, true); err == nil {
			logger.Debug("chatkit request", zap.String("dump", redactSensitiveHeaders(string(dump))))
		}

		resp, err := next(r)

		if resp != nil {
			if dump, err := httputil.DumpResponse(resp, true); err == nil {
				logger.Debug("chatkit response", zap.String("dump", redactSensitiveHeaders(string(dump))))
			}
		}

		if err != nil {
			logger.Debug("chatkit request error", zap.Error(err))
		}

		return resp, err
	})
}

// WithRateLimit makes every round trip wait for a token from a limiter
// allowing r events per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) RequestOption {
	limiter := rate.NewLimiter(r, burst)

	return WithMiddleware(func(req *http.Request, next MiddlewareNext) (*http.Response, error) {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("option: rate limiter: %w", err)
		}
		return next(req)
	})
}

// WithMetrics records a request counter and a latency histogram on reg,
// labelled by service, method and status code.
func WithMetrics(reg prometheus.Registerer) RequestOption {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatkit",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Requests issued to Chatkit services.",
	}, []string{"service", "method", "code"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chatkit",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Round trip latency of requests to Chatkit services.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "method"})

	return requestconfig.RequestOptionFunc(func(cfg *requestconfig.Config) error {
		if reg == nil {
			return fmt.Errorf("option: metrics registerer cannot be nil")
		}

		counter, err := register(reg, requests)
		if err != nil {
			return err
		}
		histogram, err := register(reg, latency)
		if err != nil {
			return err
		}

		cfg.Middlewares = append(cfg.Middlewares, func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
			service := serviceLabel(r)
			start := time.Now()

			resp, err := next(r)

			histogram.WithLabelValues(service, r.Method).Observe(time.Since(start).Seconds())
			code := "error"
			if resp != nil {
				code = strconv.Itoa(resp.StatusCode)
			}
			counter.WithLabelValues(service, r.Method, code).Inc()

			return resp, err
		})
		return nil
	})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("option: register metrics: %w", err)
	}
	return c, nil
}

// serviceLabel extracts "name/version" from /services/{name}/{version}/...;
// anything else (attachment uploads) is labelled "upload".
func serviceLabel(r *http.Request) string {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "services" {
		return parts[1] + "/" + parts[2]
	}
	return "upload"
}
