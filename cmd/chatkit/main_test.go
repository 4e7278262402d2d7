package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/chatkittest"
	"github.com/hilthontt/chatkit/option"
	"github.com/spf13/pflag"
)

type cli struct {
	t      *testing.T
	srv    *chatkittest.Server
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	srv := chatkittest.NewServer()
	t.Cleanup(srv.Close)

	config := filepath.Join(t.TempDir(), "config.yaml")
	body := "chatkit:\n  instance_locator: v1:test:unused\n  key: unused:unused\nlogger:\n  level: error\n"
	if err := os.WriteFile(config, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OTEL_ENABLED", "false")

	return &cli{t: t, srv: srv, config: config}
}

func (c *cli) run(args ...string) (map[string]any, error) {
	c.t.Helper()

	var out bytes.Buffer
	extra := append(c.srv.ClientOptions(), option.WithHTTPClient(c.srv.Client()))
	err := run(context.Background(), append([]string{"--config", c.config}, args...), &out, extra...)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		var list []any
		if err := json.Unmarshal(out.Bytes(), &list); err != nil {
			c.t.Fatalf("output is not JSON: %q", out.String())
		}
		return map[string]any{"items": list}, nil
	}
	return doc, nil
}

func (c *cli) mustRun(args ...string) map[string]any {
	c.t.Helper()
	doc, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("chatkit %s: %v", strings.Join(args, " "), err)
	}
	return doc
}

func TestRun_UsersAndRooms(t *testing.T) {
	c := newCLI(t)

	user := c.mustRun("users", "create", "--id", "ham", "--name", "Ham", "--custom-data", `{"team":"blue"}`)
	if user["id"] != "ham" {
		t.Fatalf("created user = %v", user)
	}
	c.mustRun("users", "create", "--id", "cheese", "--name", "Cheese")

	got := c.mustRun("users", "get", "--id", "ham")
	if got["name"] != "Ham" {
		t.Fatalf("name = %v, want Ham", got["name"])
	}

	room := c.mustRun("rooms", "create", "--id", "lunch", "--creator", "ham", "--name", "Lunch", "--members", "cheese")
	if room["id"] != "lunch" {
		t.Fatalf("created room = %v", room)
	}

	rooms := c.mustRun("users", "rooms", "--id", "cheese")
	items, _ := rooms["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("cheese is in %d rooms, want 1", len(items))
	}

	status := c.mustRun("rooms", "remove-users", "--room", "lunch", "--users", "cheese")
	if status["status"] != float64(204) {
		t.Fatalf("remove users printed %v, want status 204", status)
	}
}

func TestRun_MessagesAndCursors(t *testing.T) {
	c := newCLI(t)

	c.mustRun("users", "create", "--id", "ham", "--name", "Ham")
	c.mustRun("rooms", "create", "--id", "lunch", "--creator", "ham", "--name", "Lunch")

	sent := c.mustRun("messages", "send", "--room", "lunch", "--sender", "ham", "--text", "hello")
	id, ok := sent["message_id"].(float64)
	if !ok {
		t.Fatalf("send printed %v", sent)
	}

	listed := c.mustRun("messages", "list", "--room", "lunch", "--limit", "5")
	if items, _ := listed["items"].([]any); len(items) != 1 {
		t.Fatalf("listed %d messages, want 1", len(items))
	}

	c.mustRun("cursors", "set", "--room", "lunch", "--user", "ham", "--position", strconv.Itoa(int(id)))
	cursor := c.mustRun("cursors", "get", "--room", "lunch", "--user", "ham")
	if cursor["position"] != id {
		t.Fatalf("cursor position = %v, want %v", cursor["position"], id)
	}
}

func TestRun_Token(t *testing.T) {
	c := newCLI(t)

	doc := c.mustRun("token", "issue", "--user", "ham")
	if tok, _ := doc["token"].(string); tok == "" {
		t.Fatalf("token issue printed %v", doc)
	}
	if doc["expires_in"] != float64(24*60*60) {
		t.Fatalf("expires_in = %v", doc["expires_in"])
	}
}

func TestRun_Errors(t *testing.T) {
	c := newCLI(t)

	tests := map[string]struct {
		args []string
		want func(error) bool
	}{
		"missing verb": {
			args: []string{"users"},
			want: func(err error) bool { return strings.Contains(err.Error(), "resource and a verb") },
		},
		"unknown command": {
			args: []string{"users", "explode"},
			want: func(err error) bool { return strings.Contains(err.Error(), "unknown command") },
		},
		"bad custom data": {
			args: []string{"users", "create", "--id", "ham", "--name", "Ham", "--custom-data", "[1]"},
			want: func(err error) bool { return strings.Contains(err.Error(), "--custom-data") },
		},
		"missing parameter": {
			args: []string{"users", "get"},
			want: func(err error) bool {
				var missing *chatkit.MissingParameterError
				return errors.As(err, &missing)
			},
		},
		"service error": {
			args: []string{"users", "get", "--id", "nobody"},
			want: func(err error) bool {
				var res *chatkit.ResponseError
				return errors.As(err, &res) && res.Status == 404
			},
		},
		"help": {
			args: []string{"users", "get", "--help"},
			want: func(err error) bool { return errors.Is(err, pflag.ErrHelp) },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.run(tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.want(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)

	for name := range commands {
		if !strings.Contains(out.String(), name) {
			t.Errorf("usage is missing %q", name)
		}
	}
}
