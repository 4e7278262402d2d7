// Package auth serves the token endpoint Chatkit client SDKs call to obtain
// user tokens.
package auth

import (
	"io"
	"mime"
	"net/http"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/internal/infrastructure/json"
	"github.com/hilthontt/chatkit/internal/logging"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 16

// Authenticator is satisfied by *chatkit.Client.
type Authenticator interface {
	Authenticate(payload chatkit.AuthenticatePayload, opts chatkit.TokenOptions) (*chatkit.AuthenticationResponse, error)
}

type Handler struct {
	authenticator Authenticator
	logger        logging.Logger
}

func NewHandler(authenticator Authenticator, logger logging.Logger) *Handler {
	return &Handler{authenticator: authenticator, logger: logger}
}

// TokenHandler issues a token for the user named by the user_id query
// parameter. grant_type is read from a form or JSON body.
func (h *Handler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		json.WriteBadRequestError(w, "The user_id query parameter is required")
		return
	}

	grantType, err := grantType(r)
	if err != nil {
		json.WriteBadRequestError(w, err.Error())
		return
	}

	res, err := h.authenticator.Authenticate(
		chatkit.AuthenticatePayload{GrantType: grantType},
		chatkit.TokenOptions{UserID: userID},
	)
	if err != nil {
		h.logger.Error(logging.Chatkit, logging.TokenIssue, "failed to issue token", map[logging.ExtraKey]any{
			logging.UserID:       userID,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	h.logger.Info(logging.Chatkit, logging.TokenIssue, "token request answered", map[logging.ExtraKey]any{
		logging.UserID:     userID,
		logging.StatusCode: res.Status,
	})

	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}
	json.Write(w, res.Status, res.Body)
}

type requestError string

func (e requestError) Error() string { return string(e) }

func grantType(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return "", requestError("The request body could not be read")
		}
		if !gjson.ValidBytes(body) {
			return "", requestError("The request body is not valid JSON")
		}
		return gjson.GetBytes(body, "grant_type").String(), nil
	default:
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return "", requestError("The request body is not a valid form")
		}
		return r.PostForm.Get("grant_type"), nil
	}
}
