package chatkit

import (
	"context"
	"errors"
	"net/http"

	"github.com/hilthontt/chatkit/internal/platform"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Request sends opts to target as is. The caller supplies the JWT.
func (c *Client) Request(ctx context.Context, target Target, opts RequestOptions) (*Response, error) {
	return c.request(ctx, target, opts)
}

// APIRequest sends a raw request to the core API (v2).
func (c *Client) APIRequest(ctx context.Context, opts RequestOptions) (*Response, error) {
	return c.request(ctx, TargetAPIV2, opts)
}

// AuthorizerRequest sends a raw request to the roles and permissions service.
func (c *Client) AuthorizerRequest(ctx context.Context, opts RequestOptions) (*Response, error) {
	return c.request(ctx, TargetAuthorizer, opts)
}

// CursorsRequest sends a raw request to the read cursors service.
func (c *Client) CursorsRequest(ctx context.Context, opts RequestOptions) (*Response, error) {
	return c.request(ctx, TargetCursors, opts)
}

func (c *Client) request(ctx context.Context, target Target, opts RequestOptions) (*Response, error) {
	inst, ok := c.instances[target]
	if !ok {
		return nil, &Error{Message: "no instance configured for " + target.String()}
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range opts.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	opts.Headers = headers

	ctx, span := c.tracer.Start(ctx, "chatkit "+opts.Method+" "+target.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("chatkit.target", target.String()),
			attribute.String("http.request.method", opts.Method),
			attribute.String("url.path", opts.Path),
		),
	)
	defer span.End()

	start := c.now()
	raw, err := inst.Request(ctx, opts)
	latency := c.now().Sub(start)

	if err != nil {
		translated := translateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, translated.Error())
		c.logger.Warn("request failed",
			zap.Stringer("target", target),
			zap.String("method", opts.Method),
			zap.String("path", opts.Path),
			zap.Duration("latency", latency),
			zap.Error(translated),
		)
		return nil, translated
	}

	span.SetAttributes(attribute.Int("http.response.status_code", raw.Status))
	c.logger.Debug("request completed",
		zap.Stringer("target", target),
		zap.String("method", opts.Method),
		zap.String("path", opts.Path),
		zap.Int("status", raw.Status),
		zap.Duration("latency", latency),
	)

	return newResponse(raw), nil
}

func translateError(err error) error {
	var errResp *platform.ErrorResponse
	if errors.As(err, &errResp) {
		return &ResponseError{
			Status:      errResp.Status,
			Headers:     errResp.Headers,
			ErrorType:   errResp.ErrorType,
			Description: errResp.ErrorDescription,
			URI:         errResp.ErrorURI,
		}
	}
	return &Error{Message: err.Error(), Err: err}
}
