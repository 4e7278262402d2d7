// Package chatkit is a server-side client for Chatkit. It mints access
// tokens for an instance and wraps the users, rooms, messages, roles and
// read cursor APIs behind typed, validated operations.
package chatkit

import (
	"context"
	"os"
	"slices"
	"time"

	"github.com/hilthontt/chatkit/internal/platform"
	"github.com/hilthontt/chatkit/internal/requestconfig"
	"github.com/hilthontt/chatkit/option"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	RequestOptions         = platform.RequestOptions
	RawResponse            = platform.Response
	TokenOptions           = platform.TokenOptions
	TokenPayload           = platform.TokenPayload
	AuthenticatePayload    = platform.AuthenticatePayload
	AuthenticationResponse = platform.AuthenticationResponse
	AuthenticationBody     = platform.AuthenticationBody
)

const GrantTypeClientCredentials = platform.GrantTypeClientCredentials

// Instance is one service of a platform instance. The client keeps one per
// Target; *platform.Instance is the production implementation.
type Instance interface {
	Request(ctx context.Context, opts RequestOptions) (*RawResponse, error)
	GenerateAccessToken(opts TokenOptions) (TokenPayload, error)
	Authenticate(payload AuthenticatePayload, opts TokenOptions) (*AuthenticationResponse, error)
}

type Instances map[Target]Instance

type Client struct {
	Options  []option.RequestOption
	Users    *UserService
	Rooms    *RoomService
	Messages *MessageService
	Roles    *RoleService
	Cursors  *CursorService

	instances Instances
	uploader  requestconfig.HTTPDoer
	logger    *zap.Logger
	tracer    trace.Tracer
	tokens    *tokenCache
	now       func() time.Time
}

// DefaultClientOptions reads the instance credentials from the environment
// (CHATKIT_INSTANCE_LOCATOR, CHATKIT_INSTANCE_KEY, CHATKIT_BASE_URL). This
// is automatically called by NewClient, options passed there take
// precedence.
func DefaultClientOptions() []option.RequestOption {
	var defaults []option.RequestOption
	if o, ok := os.LookupEnv("CHATKIT_INSTANCE_LOCATOR"); ok {
		defaults = append(defaults, option.WithInstanceLocator(o))
	}
	if o, ok := os.LookupEnv("CHATKIT_INSTANCE_KEY"); ok {
		defaults = append(defaults, option.WithKey(o))
	}
	if o, ok := os.LookupEnv("CHATKIT_BASE_URL"); ok {
		defaults = append(defaults, option.WithBaseURL(o))
	}
	return defaults
}

// NewClient builds a client with one platform instance per service target.
func NewClient(opts ...option.RequestOption) (*Client, error) {
	opts = slices.Concat(DefaultClientOptions(), opts)

	cfg, err := requestconfig.NewConfig(opts...)
	if err != nil {
		return nil, &Error{Message: "invalid client options: " + err.Error(), Err: err}
	}
	if cfg.InstanceLocator == "" || cfg.Key == "" {
		return nil, &Error{Message: "an instance locator and key are required"}
	}

	doer := cfg.Doer(platform.NewHTTPClient(cfg.RequestTimeout))
	headers := requestconfig.DefaultHeaders()

	instances := make(Instances, len(targets))
	for _, target := range targets {
		name, version := target.Service()
		inst, err := platform.NewInstance(platform.Config{
			Locator:        cfg.InstanceLocator,
			Key:            cfg.Key,
			ServiceName:    name,
			ServiceVersion: version,
			Host:           cfg.Host,
			Port:           cfg.Port,
			BaseURL:        cfg.BaseURL,
			Client:         doer,
			Headers:        headers,
			Now:            cfg.Now,
		})
		if err != nil {
			return nil, &Error{Message: "configure " + target.String() + ": " + err.Error(), Err: err}
		}
		instances[target] = inst
	}

	return newClient(cfg, opts, instances, doer), nil
}

// NewClientWithInstances builds a client over caller-provided instances.
// Connection options are ignored; logging, tracing, middleware and the
// token cache still apply. Attachment uploads use the configured HTTP
// client.
func NewClientWithInstances(instances Instances, opts ...option.RequestOption) (*Client, error) {
	cfg, err := requestconfig.NewConfig(opts...)
	if err != nil {
		return nil, &Error{Message: "invalid client options: " + err.Error(), Err: err}
	}
	if len(instances) == 0 {
		return nil, &Error{Message: "at least one instance is required"}
	}

	return newClient(cfg, opts, instances, cfg.Doer(platform.NewHTTPClient(cfg.RequestTimeout))), nil
}

func newClient(cfg *requestconfig.Config, opts []option.RequestOption, instances Instances, uploader requestconfig.HTTPDoer) *Client {
	c := &Client{
		Options:   opts,
		instances: instances,
		uploader:  uploader,
		logger:    cfg.Logger.Named("chatkit"),
		tracer:    cfg.TracerProvider.Tracer("github.com/hilthontt/chatkit"),
		now:       cfg.Now,
	}
	if cfg.TokenCacheMargin > 0 {
		c.tokens = newTokenCache(cfg.TokenCacheMargin, cfg.Now)
	}

	c.Users = &UserService{client: c}
	c.Rooms = &RoomService{client: c}
	c.Messages = &MessageService{client: c}
	c.Roles = &RoleService{client: c}
	c.Cursors = &CursorService{client: c}

	return c
}

// Instance returns the instance serving target.
func (c *Client) Instance(target Target) (Instance, bool) {
	inst, ok := c.instances[target]
	return inst, ok
}

// tokenInstance is the instance used to mint tokens. Every instance shares
// the same key, so any configured one will do.
func (c *Client) tokenInstance() (Instance, error) {
	if inst, ok := c.instances[TargetAPIV2]; ok {
		return inst, nil
	}
	for _, target := range targets {
		if inst, ok := c.instances[target]; ok {
			return inst, nil
		}
	}
	return nil, &Error{Message: "no instance configured to issue tokens"}
}
