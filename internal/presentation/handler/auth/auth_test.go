package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/internal/configs"
	"github.com/hilthontt/chatkit/internal/logging"
)

type fakeAuthenticator struct {
	payload chatkit.AuthenticatePayload
	opts    chatkit.TokenOptions
	err     error
}

func (f *fakeAuthenticator) Authenticate(payload chatkit.AuthenticatePayload, opts chatkit.TokenOptions) (*chatkit.AuthenticationResponse, error) {
	f.payload, f.opts = payload, opts
	if f.err != nil {
		return nil, f.err
	}
	if payload.GrantType != chatkit.GrantTypeClientCredentials {
		return &chatkit.AuthenticationResponse{Status: http.StatusUnprocessableEntity, Headers: map[string]string{}, Body: map[string]string{"error": "bad grant"}}, nil
	}
	return &chatkit.AuthenticationResponse{
		Status:  http.StatusOK,
		Headers: map[string]string{"Cache-Control": "no-store"},
		Body:    chatkit.AuthenticationBody{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 86400},
	}, nil
}

func newHandler(a Authenticator) *Handler {
	return NewHandler(a, logging.NewLogger(configs.LoggerConfig{Level: "fatal"}, "test"))
}

func TestTokenHandler_Form(t *testing.T) {
	fake := &fakeAuthenticator{}
	req := httptest.NewRequest(http.MethodPost, "/auth?user_id=ham", strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	newHandler(fake).TokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if fake.opts.UserID != "ham" || fake.opts.Su {
		t.Errorf("token options = %+v", fake.opts)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("authenticator headers were not relayed")
	}

	var body chatkit.AuthenticationBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.AccessToken != "tok" || body.TokenType != "bearer" || body.ExpiresIn != 86400 {
		t.Errorf("body = %+v", body)
	}
}

func TestTokenHandler_JSON(t *testing.T) {
	fake := &fakeAuthenticator{}
	req := httptest.NewRequest(http.MethodPost, "/auth?user_id=ham", strings.NewReader(`{"grant_type":"client_credentials"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()

	newHandler(fake).TokenHandler(rec, req)

	if rec.Code != http.StatusOK || fake.payload.GrantType != chatkit.GrantTypeClientCredentials {
		t.Fatalf("status = %d, grant type = %q", rec.Code, fake.payload.GrantType)
	}
}

func TestTokenHandler_Rejections(t *testing.T) {
	tests := map[string]struct {
		target      string
		contentType string
		body        string
		err         error
		want        int
	}{
		"missing user":   {target: "/auth", contentType: "application/x-www-form-urlencoded", body: "grant_type=client_credentials", want: http.StatusBadRequest},
		"invalid json":   {target: "/auth?user_id=ham", contentType: "application/json", body: "{", want: http.StatusBadRequest},
		"wrong grant":    {target: "/auth?user_id=ham", contentType: "application/x-www-form-urlencoded", body: "grant_type=password", want: http.StatusUnprocessableEntity},
		"failing client": {target: "/auth?user_id=ham", contentType: "application/x-www-form-urlencoded", body: "grant_type=client_credentials", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			newHandler(&fakeAuthenticator{err: tt.err}).TokenHandler(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
