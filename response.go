package chatkit

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/hilthontt/chatkit/internal/platform"
	"github.com/tidwall/gjson"
)

// Response is the normalized result of every operation. Body is nil when
// the service answered with an empty payload.
type Response struct {
	Status  int
	Headers http.Header
	Body    json.RawMessage
}

func newResponse(raw *platform.Response) *Response {
	res := &Response{
		Status:  raw.Status,
		Headers: raw.Headers,
	}
	if body := bytes.TrimSpace(raw.Body); len(body) > 0 {
		res.Body = json.RawMessage(body)
	}
	return res
}

// Decode unmarshals the body into v. It is a no-op for empty bodies.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Message: "decode response body: " + err.Error(), Err: err}
	}
	return nil
}

// Get reads a value out of the body using gjson path syntax, for example
// "0.id" or "member_user_ids.#".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}
