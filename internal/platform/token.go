package platform

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is the validity window of every token the platform mints.
const TokenLifetime = 24 * time.Hour

const GrantTypeClientCredentials = "client_credentials"

type TokenOptions struct {
	UserID string
	Su     bool
}

type TokenPayload struct {
	Token     string
	ExpiresIn int
}

// Claims is the body of a platform access token.
type Claims struct {
	Instance string `json:"instance"`
	Su       bool   `json:"su,omitempty"`
	jwt.RegisteredClaims
}

func IssuerFor(keyID string) string {
	return "api_keys/" + keyID
}

func (i *Instance) GenerateAccessToken(opts TokenOptions) (TokenPayload, error) {
	now := i.now()
	claims := Claims{
		Instance: i.locator.InstanceID,
		Su:       opts.Su,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    IssuerFor(i.key.ID),
			Subject:   opts.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.key.Secret))
	if err != nil {
		return TokenPayload{}, fmt.Errorf("platform: sign token: %w", err)
	}

	return TokenPayload{
		Token:     signed,
		ExpiresIn: int(TokenLifetime / time.Second),
	}, nil
}

// ParseToken verifies a token minted for this instance and returns its claims.
func (i *Instance) ParseToken(raw string) (*Claims, error) {
	return ParseToken(raw, i.key, i.locator.InstanceID)
}

func ParseToken(raw string, key Key, instanceID string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(key.Secret), nil
	}, jwt.WithIssuer(IssuerFor(key.ID)))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Instance != instanceID {
		return nil, fmt.Errorf("platform: token issued for instance %q: %w", claims.Instance, jwt.ErrTokenInvalidClaims)
	}

	return claims, nil
}

type AuthenticatePayload struct {
	GrantType string
}

// AuthenticationResponse is what an auth endpoint should relay to the end client.
type AuthenticationResponse struct {
	Status  int
	Headers map[string]string
	Body    any
}

type AuthenticationBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type authenticationError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (i *Instance) Authenticate(payload AuthenticatePayload, opts TokenOptions) (*AuthenticationResponse, error) {
	if payload.GrantType != GrantTypeClientCredentials {
		return &AuthenticationResponse{
			Status:  http.StatusUnprocessableEntity,
			Headers: map[string]string{},
			Body: authenticationError{
				Error:            "token_provider/invalid_grant_type",
				ErrorDescription: fmt.Sprintf("The grant_type provided, %q, is unsupported", payload.GrantType),
			},
		}, nil
	}

	token, err := i.GenerateAccessToken(opts)
	if err != nil {
		return nil, err
	}

	return &AuthenticationResponse{
		Status:  http.StatusOK,
		Headers: map[string]string{},
		Body: AuthenticationBody{
			AccessToken: token.Token,
			TokenType:   "bearer",
			ExpiresIn:   token.ExpiresIn,
		},
	}, nil
}
