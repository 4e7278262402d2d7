package chatkit

import (
	"context"
	"fmt"
	"net/url"
)

// pathf formats a request path, escaping every segment argument.
func pathf(format string, segments ...string) string {
	escaped := make([]any, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, escaped...)
}

// asSu sends opts to target with a super user token, acting as userID
// when it is set.
func (c *Client) asSu(ctx context.Context, target Target, userID string, opts RequestOptions) (*Response, error) {
	jwt, err := c.suToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	opts.JWT = jwt
	return c.request(ctx, target, opts)
}
