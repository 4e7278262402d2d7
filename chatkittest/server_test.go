package chatkittest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/chatkit/internal/platform"
	"github.com/tidwall/gjson"
)

func newInstance(t *testing.T, s *Server, service, version string) *platform.Instance {
	t.Helper()

	base, err := url.Parse(s.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	inst, err := platform.NewInstance(platform.Config{
		Locator:        s.InstanceLocator,
		Key:            s.Key,
		ServiceName:    service,
		ServiceVersion: version,
		BaseURL:        base,
		Client:         s.Client(),
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	return inst
}

func suToken(t *testing.T, inst *platform.Instance, userID string) string {
	t.Helper()
	payload, err := inst.GenerateAccessToken(platform.TokenOptions{UserID: userID, Su: true})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return payload.Token
}

func do(t *testing.T, inst *platform.Instance, opts platform.RequestOptions) (*platform.Response, error) {
	t.Helper()
	return inst.Request(context.Background(), opts)
}

func statusOf(err error) int {
	var errResp *platform.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.Status
	}
	return 0
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	s := NewServer()
	defer s.Close()
	api := newInstance(t, s, "chatkit", "v2")

	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/users"}); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %v", err)
	}

	user, err := api.GenerateAccessToken(platform.TokenOptions{UserID: "ham"})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/users", JWT: user.Token}); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403 for a non su token, got %v", err)
	}

	other := NewServer()
	defer other.Close()
	foreign := suToken(t, newInstance(t, other, "chatkit", "v2"), "")
	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/users", JWT: foreign}); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("expected 401 for a token from another instance, got %v", err)
	}
}

func TestUsersAndRooms(t *testing.T) {
	s := NewServer()
	defer s.Close()
	api := newInstance(t, s, "chatkit", "v2")
	su := suToken(t, api, "")

	res, err := do(t, api, platform.RequestOptions{
		Method: http.MethodPost,
		Path:   "/users",
		Body:   map[string]any{"id": "ham", "name": "Ham", "custom_data": map[string]any{"age": 3}},
		JWT:    su,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if res.Status != http.StatusCreated {
		t.Errorf("expected 201, got %d", res.Status)
	}
	if gjson.GetBytes(res.Body, "custom_data.age").Int() != 3 {
		t.Errorf("custom data not echoed: %s", res.Body)
	}

	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodPost, Path: "/users", Body: map[string]any{"id": "ham", "name": "Ham"}, JWT: su}); statusOf(err) != http.StatusConflict {
		t.Errorf("expected 409 for a duplicate user, got %v", err)
	}

	res, err = do(t, api, platform.RequestOptions{
		Method: http.MethodPost,
		Path:   "/rooms",
		Body:   map[string]any{"id": "a/b", "name": "Kitchen"},
		JWT:    suToken(t, api, "ham"),
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if got := gjson.GetBytes(res.Body, "member_user_ids").String(); got != `["ham"]` {
		t.Errorf("expected the creator to be a member, got %s", got)
	}

	res, err = do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/rooms/" + url.PathEscape("a/b"), JWT: su})
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if gjson.GetBytes(res.Body, "id").String() != "a/b" {
		t.Errorf("escaped room id not resolved: %s", res.Body)
	}

	res, err = do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/users/ham/rooms", JWT: su})
	if err != nil {
		t.Fatalf("user rooms: %v", err)
	}
	if gjson.GetBytes(res.Body, "0.unread_count").Int() != 0 || !gjson.GetBytes(res.Body, "0.unread_count").Exists() {
		t.Errorf("expected unread_count on user rooms, got %s", res.Body)
	}
}

func TestMessagesAndCursors(t *testing.T) {
	s := NewServer()
	defer s.Close()
	api := newInstance(t, s, "chatkit", "v2")
	v3 := newInstance(t, s, "chatkit", "v3")
	cursors := newInstance(t, s, "chatkit_cursors", "v2")
	su := suToken(t, api, "")
	ham := suToken(t, api, "ham")

	mustDo := func(inst *platform.Instance, opts platform.RequestOptions) *platform.Response {
		t.Helper()
		res, err := do(t, inst, opts)
		if err != nil {
			t.Fatalf("%s %s: %v", opts.Method, opts.Path, err)
		}
		return res
	}

	mustDo(api, platform.RequestOptions{Method: http.MethodPost, Path: "/users", Body: map[string]any{"id": "ham", "name": "Ham"}, JWT: su})
	mustDo(api, platform.RequestOptions{Method: http.MethodPost, Path: "/rooms", Body: map[string]any{"id": "r1", "name": "R"}, JWT: ham})

	for _, text := range []string{"one", "two", "three"} {
		res := mustDo(api, platform.RequestOptions{Method: http.MethodPost, Path: "/rooms/r1/messages", Body: map[string]any{"text": text}, JWT: ham})
		if !gjson.GetBytes(res.Body, "message_id").Exists() {
			t.Fatalf("expected a message id, got %s", res.Body)
		}
	}

	res := mustDo(api, platform.RequestOptions{Method: http.MethodGet, Path: "/rooms/r1/messages", Query: url.Values{"limit": {"2"}}, JWT: su})
	if got := gjson.GetBytes(res.Body, "#.text").String(); got != `["three","two"]` {
		t.Errorf("expected newest first, got %s", got)
	}

	res = mustDo(v3, platform.RequestOptions{Method: http.MethodGet, Path: "/rooms/r1/messages", Query: url.Values{"direction": {"newer"}, "initial_id": {"1"}}, JWT: su})
	if got := gjson.GetBytes(res.Body, "#.parts.0.content").String(); got != `["two","three"]` {
		t.Errorf("expected ascending parts after id 1, got %s", got)
	}

	res = mustDo(cursors, platform.RequestOptions{Method: http.MethodPut, Path: "/cursors/0/rooms/r1/users/ham", Body: map[string]any{"position": 2}, JWT: su})
	if res.Status != http.StatusCreated {
		t.Errorf("expected 201 for a cursor, got %d", res.Status)
	}

	res = mustDo(api, platform.RequestOptions{Method: http.MethodGet, Path: "/users/ham/rooms", JWT: su})
	if got := gjson.GetBytes(res.Body, "0.unread_count").Int(); got != 1 {
		t.Errorf("expected 1 unread message, got %d", got)
	}

	mustDo(api, platform.RequestOptions{Method: http.MethodPut, Path: "/rooms/r1/users/remove", Body: map[string]any{"user_ids": []string{"ham"}}, JWT: su})
	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodPost, Path: "/rooms/r1/messages", Body: map[string]any{"text": "hi"}, JWT: ham}); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403 for a non member, got %v", err)
	}
}

func TestFailUploadsAndRequests(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.FailUploads(http.StatusServiceUnavailable)

	req, err := http.NewRequest(http.MethodPut, s.URL+"/uploads/missing", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	reqs := s.Requests()
	if len(reqs) != 1 || reqs[0].Service != "uploads" || reqs[0].Method != http.MethodPut {
		t.Errorf("unexpected request log %+v", reqs)
	}

	s.Reset()
	if len(s.Requests()) != 0 {
		t.Error("expected Reset to clear the request log")
	}
}

func TestSchedulerDeletes(t *testing.T) {
	s := NewServer()
	defer s.Close()
	api := newInstance(t, s, "chatkit", "v2")
	scheduler := newInstance(t, s, "chatkit_scheduler", "v1")
	su := suToken(t, api, "")

	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodPost, Path: "/users", Body: map[string]any{"id": "ham", "name": "Ham"}, JWT: su}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	res, err := do(t, scheduler, platform.RequestOptions{Method: http.MethodPut, Path: "/users/ham", JWT: su})
	if err != nil {
		t.Fatalf("async delete: %v", err)
	}
	if res.Status != http.StatusAccepted {
		t.Errorf("expected 202, got %d", res.Status)
	}

	jobID := gjson.GetBytes(res.Body, "id").String()
	res, err = do(t, scheduler, platform.RequestOptions{Method: http.MethodGet, Path: "/status/" + jobID, JWT: su})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if gjson.GetBytes(res.Body, "status").String() != "completed" {
		t.Errorf("unexpected job %s", res.Body)
	}

	if _, err := do(t, api, platform.RequestOptions{Method: http.MethodGet, Path: "/users/ham", JWT: su}); statusOf(err) != http.StatusNotFound {
		t.Errorf("expected the user to be gone, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewServer(WithRateLimit(2, time.Minute), WithClock(clock.Now))
	defer s.Close()

	get := func() *http.Response {
		resp, err := s.Client().Get(s.URL + "/downloads/none")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		return resp
	}

	get()
	get()
	resp := get()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "60" {
		t.Errorf("unexpected Retry-After %q", resp.Header.Get("Retry-After"))
	}

	clock.Advance(time.Minute)
	if resp := get(); resp.StatusCode == http.StatusTooManyRequests {
		t.Error("expected a new window to admit the request")
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
