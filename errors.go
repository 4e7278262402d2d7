package chatkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrChatkit matches every error produced by this package with errors.Is.
var ErrChatkit = errors.New("chatkit")

// Error is a generic failure, usually a transport problem. Err holds the
// underlying cause when there is one.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return "chatkit: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrChatkit
}

// MissingParameterError reports a required parameter that was not
// provided. Nothing is sent to the server when it is returned.
type MissingParameterError struct {
	Message string
}

func missingParameter(operation, format string, args ...any) *MissingParameterError {
	return &MissingParameterError{Message: fmt.Sprintf("%s: %s", operation, fmt.Sprintf(format, args...))}
}

func (e *MissingParameterError) Error() string {
	return "chatkit: missing parameter - " + e.Message
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrChatkit
}

// ResponseError is a structured error answered by a Chatkit service.
type ResponseError struct {
	Status      int
	Headers     http.Header
	ErrorType   string
	Description string
	URI         string
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("chatkit: response error - status: %d description: %s.", e.Status, e.Description)
	if e.URI != "" {
		msg += " Find out more at " + e.URI
	}
	return msg
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrChatkit
}

func (e *ResponseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status           int         `json:"status"`
		Headers          http.Header `json:"headers"`
		Error            string      `json:"error"`
		ErrorDescription string      `json:"error_description"`
		ErrorURI         string      `json:"error_uri,omitempty"`
	}{
		Status:           e.Status,
		Headers:          e.Headers,
		Error:            e.ErrorType,
		ErrorDescription: e.Description,
		ErrorURI:         e.URI,
	})
}

// UploadError is returned when an attachment could not be stored at its
// upload URL. Response is the failed upload response. Its body has been
// buffered, up to 64 KiB, and can still be read; the start of it is also
// quoted in Message.
type UploadError struct {
	Message  string
	Response *http.Response
}

func (e *UploadError) Error() string {
	return "chatkit: upload error - " + e.Message
}

func (e *UploadError) Is(target error) bool {
	return target == ErrChatkit
}
