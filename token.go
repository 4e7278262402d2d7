package chatkit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GenerateAccessToken mints a token for a user, a super user, or a super
// user acting as a user. At least one of UserID and Su must be set.
func (c *Client) GenerateAccessToken(ctx context.Context, opts TokenOptions) (TokenPayload, error) {
	if opts.UserID == "" && !opts.Su {
		return TokenPayload{}, &Error{Message: "must provide either user_id or su:true"}
	}
	if err := ctx.Err(); err != nil {
		return TokenPayload{}, &Error{Message: err.Error(), Err: err}
	}

	if c.tokens != nil {
		if payload, ok := c.tokens.get(opts); ok {
			return payload, nil
		}
	}

	inst, err := c.tokenInstance()
	if err != nil {
		return TokenPayload{}, err
	}

	payload, err := inst.GenerateAccessToken(opts)
	if err != nil {
		c.logger.Warn("failed to generate access token", zap.String("user_id", opts.UserID), zap.Bool("su", opts.Su), zap.Error(err))
		return TokenPayload{}, &Error{Message: "generate access token: " + err.Error(), Err: err}
	}

	if c.tokens != nil {
		c.tokens.put(opts, payload)
	}
	return payload, nil
}

// GenerateSuToken is GenerateAccessToken with Su forced on. UserID may be
// set to act on behalf of that user.
func (c *Client) GenerateSuToken(ctx context.Context, opts TokenOptions) (TokenPayload, error) {
	opts.Su = true
	return c.GenerateAccessToken(ctx, opts)
}

// Authenticate answers a token request from an end client, typically from
// an HTTP auth endpoint. The response should be relayed as is.
func (c *Client) Authenticate(payload AuthenticatePayload, opts TokenOptions) (*AuthenticationResponse, error) {
	inst, err := c.tokenInstance()
	if err != nil {
		return nil, err
	}

	res, err := inst.Authenticate(payload, opts)
	if err != nil {
		return nil, &Error{Message: "authenticate: " + err.Error(), Err: err}
	}
	return res, nil
}

func (c *Client) suToken(ctx context.Context, userID string) (string, error) {
	payload, err := c.GenerateSuToken(ctx, TokenOptions{UserID: userID})
	if err != nil {
		return "", err
	}
	return payload.Token, nil
}

type cachedToken struct {
	payload TokenPayload
	expires time.Time
}

type tokenCache struct {
	mu      sync.Mutex
	margin  time.Duration
	now     func() time.Time
	entries map[TokenOptions]cachedToken
}

func newTokenCache(margin time.Duration, now func() time.Time) *tokenCache {
	return &tokenCache{
		margin:  margin,
		now:     now,
		entries: make(map[TokenOptions]cachedToken),
	}
}

func (t *tokenCache) get(opts TokenOptions) (TokenPayload, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[opts]
	if !ok {
		return TokenPayload{}, false
	}
	if !t.now().Before(entry.expires) {
		delete(t.entries, opts)
		return TokenPayload{}, false
	}
	return entry.payload, true
}

func (t *tokenCache) put(opts TokenOptions, payload TokenPayload) {
	ttl := time.Duration(payload.ExpiresIn)*time.Second - t.margin
	if ttl <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[opts] = cachedToken{payload: payload, expires: t.now().Add(ttl)}
}
