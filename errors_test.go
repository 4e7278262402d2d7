package chatkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"
)

func TestResponseError_Format(t *testing.T) {
	err := &ResponseError{Status: 404, Description: "User not found"}
	if got := err.Error(); got != "chatkit: response error - status: 404 description: User not found." {
		t.Errorf("unexpected message %q", got)
	}

	err.URI = "https://docs.pusher.com/errors/x"
	want := "chatkit: response error - status: 404 description: User not found. Find out more at https://docs.pusher.com/errors/x"
	if got := err.Error(); got != want {
		t.Errorf("unexpected message %q", got)
	}
}

func TestResponseError_JSON(t *testing.T) {
	err := &ResponseError{
		Status:      http.StatusConflict,
		Headers:     http.Header{"Content-Type": {"application/json"}},
		ErrorType:   "services/chatkit/user_already_exists",
		Description: "User with given id already exists",
	}

	b, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("marshal: %v", mErr)
	}
	if gjson.GetBytes(b, "status").Int() != 409 {
		t.Errorf("missing status in %s", b)
	}
	if gjson.GetBytes(b, "error").String() != err.ErrorType {
		t.Errorf("missing error type in %s", b)
	}
	if gjson.GetBytes(b, "error_description").String() != err.Description {
		t.Errorf("missing description in %s", b)
	}
	if gjson.GetBytes(b, "error_uri").Exists() {
		t.Errorf("empty uri should be omitted, got %s", b)
	}
	if gjson.GetBytes(b, "headers.Content-Type.0").String() != "application/json" {
		t.Errorf("missing headers in %s", b)
	}
}

func TestErrors_MatchSentinel(t *testing.T) {
	for _, err := range []error{
		&Error{Message: "x"},
		missingParameter("op", "a %s is required", "thing"),
		&ResponseError{Status: 500},
		&UploadError{Message: "x"},
	} {
		if !errors.Is(err, ErrChatkit) {
			t.Errorf("%T should match ErrChatkit", err)
		}
	}

	if got := missingParameter("get user", "an id is required").Error(); got != "chatkit: missing parameter - get user: an id is required" {
		t.Errorf("unexpected message %q", got)
	}
}
