package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestInstance(t *testing.T, srv *httptest.Server) *Instance {
	t.Helper()

	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}

	inst, err := NewInstance(Config{
		Locator:        "v1:test:instance-1",
		Key:            "key-id:key-secret",
		ServiceName:    "chatkit",
		ServiceVersion: "v2",
		BaseURL:        base,
		Client:         srv.Client(),
		Headers:        map[string]string{"X-SDK-Language": "go"},
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	return inst
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
		host    string
	}{
		{raw: "v1:us1:abc", host: "us1.pusherplatform.io"},
		{raw: "v1:us1", wantErr: true},
		{raw: "v1::abc", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		loc, err := ParseLocator(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLocator) {
				t.Errorf("ParseLocator(%q): expected ErrInvalidLocator, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLocator(%q): %v", tt.raw, err)
		}
		if loc.Host() != tt.host {
			t.Errorf("expected host %s, got %s", tt.host, loc.Host())
		}
	}
}

func TestParseKey(t *testing.T) {
	if _, err := ParseKey("no-secret"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	key, err := ParseKey("id:se:cret")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key.ID != "id" || key.Secret != "se:cret" {
		t.Errorf("unexpected key %+v", key)
	}
}

func TestServiceURL_DefaultHost(t *testing.T) {
	inst, err := NewInstance(Config{
		Locator:        "v1:us1:abc",
		Key:            "id:secret",
		ServiceName:    "chatkit_cursors",
		ServiceVersion: "v2",
		Port:           8443,
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	got := inst.ServiceURL("/cursors/0/users/ham", url.Values{"limit": {"2"}})
	want := "https://us1.pusherplatform.io:8443/services/chatkit_cursors/v2/abc/cursors/0/users/ham?limit=2"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRequest_Success(t *testing.T) {
	var gotPath, gotRawPath, gotAuth, gotSDK, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRawPath = r.URL.RawPath
		gotAuth = r.Header.Get("Authorization")
		gotSDK = r.Header.Get("X-SDK-Language")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a/b"}`))
	}))
	defer srv.Close()

	inst := newTestInstance(t, srv)
	resp, err := inst.Request(context.Background(), RequestOptions{
		Method: http.MethodPost,
		Path:   "/users/" + url.PathEscape("a/b"),
		Body:   map[string]string{"name": "Ham"},
		JWT:    "tok",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if resp.Status != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.Status)
	}
	if gotPath != "/services/chatkit/v2/instance-1/users/a/b" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotRawPath != "/services/chatkit/v2/instance-1/users/a%2Fb" {
		t.Errorf("expected escaped raw path, got %q", gotRawPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
	if gotSDK != "go" {
		t.Errorf("expected default headers to be sent, got %q", gotSDK)
	}
	if gotBody != `{"name":"Ham"}` {
		t.Errorf("unexpected body %s", gotBody)
	}
}

func TestRequest_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"services/chatkit/not_found/user_not_found","error_description":"User not found","error_uri":"https://docs.pusher.com/errors/services/chatkit/not_found/user_not_found"}`))
	}))
	defer srv.Close()

	inst := newTestInstance(t, srv)
	_, err := inst.Request(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/users/ham"})

	var errResp *ErrorResponse
	if !errors.As(err, &errResp) {
		t.Fatalf("expected *ErrorResponse, got %T: %v", err, err)
	}
	if errResp.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", errResp.Status)
	}
	if errResp.ErrorType != "services/chatkit/not_found/user_not_found" {
		t.Errorf("unexpected error type %s", errResp.ErrorType)
	}
	if errResp.ErrorDescription != "User not found" {
		t.Errorf("unexpected description %s", errResp.ErrorDescription)
	}
	if errResp.ErrorURI == "" {
		t.Error("expected error uri")
	}
}

func TestRequest_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	inst := newTestInstance(t, srv)
	_, err := inst.Request(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/rooms"})

	var errResp *ErrorResponse
	if !errors.As(err, &errResp) {
		t.Fatalf("expected *ErrorResponse, got %v", err)
	}
	if errResp.ErrorDescription != "upstream down" {
		t.Errorf("unexpected description %q", errResp.ErrorDescription)
	}
}

func TestRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	inst := newTestInstance(t, srv)
	srv.Close()

	_, err := inst.Request(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/rooms"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var errResp *ErrorResponse
	if errors.As(err, &errResp) {
		t.Fatalf("transport failure must not be an *ErrorResponse")
	}
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	fixed := time.Now()
	inst, err := NewInstance(Config{
		Locator:        "v1:us1:abc",
		Key:            "id:secret",
		ServiceName:    "chatkit",
		ServiceVersion: "v2",
		Now:            func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	payload, err := inst.GenerateAccessToken(TokenOptions{UserID: "ham", Su: true})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if payload.ExpiresIn != 24*60*60 {
		t.Errorf("expected 86400, got %d", payload.ExpiresIn)
	}

	claims, err := inst.ParseToken(payload.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ham" || !claims.Su || claims.Instance != "abc" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := ParseToken(payload.Token, Key{ID: "id", Secret: "wrong"}, "abc"); err == nil {
		t.Error("expected verification failure with the wrong secret")
	}
	if _, err := ParseToken(payload.Token, Key{ID: "id", Secret: "secret"}, "other"); err == nil {
		t.Error("expected verification failure for another instance")
	}
}

func TestAuthenticate(t *testing.T) {
	inst, err := NewInstance(Config{Locator: "v1:us1:abc", Key: "id:secret", ServiceName: "chatkit", ServiceVersion: "v2"})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	resp, err := inst.Authenticate(AuthenticatePayload{GrantType: GrantTypeClientCredentials}, TokenOptions{UserID: "ham"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.Status)
	}
	body, ok := resp.Body.(AuthenticationBody)
	if !ok {
		t.Fatalf("unexpected body type %T", resp.Body)
	}
	if body.TokenType != "bearer" || body.ExpiresIn != 86400 || body.AccessToken == "" {
		t.Errorf("unexpected body %+v", body)
	}

	resp, err = inst.Authenticate(AuthenticatePayload{GrantType: "password"}, TokenOptions{UserID: "ham"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if resp.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unsupported grant type, got %d", resp.Status)
	}
}
