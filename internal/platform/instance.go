package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPDoer is satisfied by [*http.Client] and by middleware chains built on top of it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes one service instance. BaseURL, when set, replaces the
// scheme, host and port derived from the locator.
type Config struct {
	Locator        string
	Key            string
	ServiceName    string
	ServiceVersion string
	Host           string
	Port           int
	BaseURL        *url.URL
	Client         HTTPDoer
	Headers        map[string]string
	Now            func() time.Time
}

// Instance talks to a single versioned service of a platform instance.
type Instance struct {
	locator        Locator
	key            Key
	serviceName    string
	serviceVersion string
	baseURL        *url.URL
	client         HTTPDoer
	headers        map[string]string
	now            func() time.Time
}

type RequestOptions struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
	JWT     string
}

type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

func NewInstance(cfg Config) (*Instance, error) {
	locator, err := ParseLocator(cfg.Locator)
	if err != nil {
		return nil, err
	}
	key, err := ParseKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" || cfg.ServiceVersion == "" {
		return nil, fmt.Errorf("platform: service name and version are required")
	}

	base := cfg.BaseURL
	if base == nil {
		host := locator.Host()
		if cfg.Host != "" {
			host = cfg.Host
		}
		if cfg.Port != 0 {
			host = host + ":" + strconv.Itoa(cfg.Port)
		}
		base = &url.URL{Scheme: "https", Host: host}
	}

	client := cfg.Client
	if client == nil {
		client = NewHTTPClient(0)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Instance{
		locator:        locator,
		key:            key,
		serviceName:    cfg.ServiceName,
		serviceVersion: cfg.ServiceVersion,
		baseURL:        base,
		client:         client,
		headers:        cfg.Headers,
		now:            now,
	}, nil
}

func (i *Instance) Locator() Locator {
	return i.locator
}

// ServiceURL joins path onto the service prefix. path must already be escaped.
func (i *Instance) ServiceURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/services/%s/%s/%s%s",
		i.baseURL.String(), i.serviceName, i.serviceVersion, i.locator.InstanceID, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (i *Instance) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("platform: encode body for %s %s: %w", opts.Method, opts.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, i.ServiceURL(opts.Path, opts.Query), body)
	if err != nil {
		return nil, fmt.Errorf("platform: build request %s %s: %w", opts.Method, opts.Path, err)
	}

	for k, v := range i.headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+opts.JWT)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform: %s %s: %w", opts.Method, opts.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("platform: read response for %s %s: %w", opts.Method, opts.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newErrorResponse(resp.StatusCode, resp.Header, raw)
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    raw,
	}, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(encoded), nil
	}
}
