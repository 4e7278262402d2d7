package platform

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorResponse is a non-2xx answer from a platform service. Services
// answer errors as {"error", "error_description", "error_uri"}.
type ErrorResponse struct {
	Status           int
	Headers          http.Header
	ErrorType        string
	ErrorDescription string
	ErrorURI         string
}

func (e *ErrorResponse) Error() string {
	if e.ErrorURI != "" {
		return fmt.Sprintf("platform: status %d: %s (%s)", e.Status, e.ErrorDescription, e.ErrorURI)
	}
	return fmt.Sprintf("platform: status %d: %s", e.Status, e.ErrorDescription)
}

func newErrorResponse(status int, headers http.Header, body []byte) *ErrorResponse {
	errResp := &ErrorResponse{
		Status:  status,
		Headers: headers,
	}

	if !gjson.ValidBytes(body) {
		errResp.ErrorDescription = string(body)
		if errResp.ErrorDescription == "" {
			errResp.ErrorDescription = http.StatusText(status)
		}
		return errResp
	}

	parsed := gjson.ParseBytes(body)
	errResp.ErrorType = parsed.Get("error").String()
	errResp.ErrorDescription = parsed.Get("error_description").String()
	errResp.ErrorURI = parsed.Get("error_uri").String()
	if errResp.ErrorDescription == "" {
		errResp.ErrorDescription = http.StatusText(status)
	}

	return errResp
}
