// Package chatkittest runs an in-memory Chatkit instance over HTTP for
// tests. It serves the API, authorizer, cursors and scheduler services,
// plus attachment storage, and checks every token against its key.
package chatkittest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hilthontt/chatkit/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/chatkit/internal/platform"
	"github.com/hilthontt/chatkit/option"
	"go.uber.org/zap"
)

// Request is a request received by the server. Path is escaped and, for
// service requests, relative to the instance.
type Request struct {
	Service string
	Method  string
	Path    string
}

type Server struct {
	// URL is the base URL of the server, suitable for option.WithBaseURL.
	URL             string
	InstanceLocator string
	Key             string

	srv        *httptest.Server
	store      *store
	key        platform.Key
	instanceID string
	now        func() time.Time
	logger     *zap.Logger
	limiter    ratelimiter.Limiter

	mu           sync.Mutex
	requests     []Request
	uploadStatus int
}

type Option func(*Server)

// WithClock sets the time source used for created_at, updated_at and
// cursor timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithRateLimit answers 429 once a client address has made limit requests
// in the current window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.limiter = ratelimiter.NewFixedWindowRateLimiter(limit, window, ratelimiter.WithClock(func() time.Time { return s.now() }))
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer starts a server with a fresh instance and key. Callers should
// Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		instanceID: uuid.NewString(),
		key:        platform.Key{ID: "chatkittest", Secret: uuid.NewString()},
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = newStore(func() time.Time { return s.now() })
	s.InstanceLocator = "v1:test:" + s.instanceID
	s.Key = s.key.ID + ":" + s.key.Secret

	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL

	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

// Client returns an HTTP client that trusts the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// ClientOptions configures a chatkit client against this server.
func (s *Server) ClientOptions() []option.RequestOption {
	return []option.RequestOption{
		option.WithInstanceLocator(s.InstanceLocator),
		option.WithKey(s.Key),
		option.WithBaseURL(s.URL),
	}
}

// Requests returns the requests received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// FailUploads makes attachment uploads answer status. Zero restores
// normal uploads.
func (s *Server) FailUploads(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadStatus = status
}

// Reset drops every resource and the request log.
func (s *Server) Reset() {
	s.store.reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "services/chatkit/not_found/resource_not_found", "No route for "+r.Method+" "+r.URL.EscapedPath())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "services/chatkit/method_not_allowed", "Method not allowed")
	})

	r.Put("/uploads/{attachmentID}", s.uploadAttachment)
	r.Get("/downloads/{attachmentID}", s.downloadAttachment)

	r.Route("/services/chatkit/v1/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Delete("/messages/{messageID}", s.deleteMessage)
	})

	r.Route("/services/chatkit/v2/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Delete("/resources", s.deleteResources)
		s.userRoutes(r)
		s.roomRoutes(r)
		r.Post("/rooms/{roomID}/messages", s.sendMessageV2)
		r.Get("/rooms/{roomID}/messages", s.listMessagesV2)
	})

	r.Route("/services/chatkit/v3/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/rooms/{roomID}/messages", s.sendMessageV3)
		r.Get("/rooms/{roomID}/messages", s.listMessagesV3)
		r.Delete("/rooms/{roomID}/messages/{messageID}", s.deleteMessage)
		r.Post("/rooms/{roomID}/attachments", s.createAttachment)
	})

	r.Route("/services/chatkit_authorizer/v2/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		s.roleRoutes(r)
	})

	r.Route("/services/chatkit_cursors/v2/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		s.cursorRoutes(r)
	})

	r.Route("/services/chatkit_scheduler/v1/{instance}", func(r chi.Router) {
		r.Use(s.authenticate)
		s.schedulerRoutes(r)
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Method: r.Method, Path: r.URL.EscapedPath()}

		parts := strings.SplitN(strings.TrimPrefix(req.Path, "/"), "/", 5)
		switch {
		case len(parts) >= 4 && parts[0] == "services":
			req.Service = parts[1] + "/" + parts[2]
			req.Path = "/"
			if len(parts) == 5 {
				req.Path += parts[4]
			}
		case len(parts) > 0:
			req.Service = parts[0]
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		s.logger.Debug("chatkittest request",
			zap.String("service", req.Service),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
		)

		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "instance") != s.instanceID {
			writeError(w, http.StatusNotFound, "services/chatkit/not_found/instance_not_found", "Instance not found")
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeUnauthorized(w, "A bearer token is required")
			return
		}

		claims, err := platform.ParseToken(raw, s.key, s.instanceID)
		if err != nil {
			writeUnauthorized(w, "Invalid token: "+err.Error())
			return
		}
		if !claims.Su {
			writeError(w, http.StatusForbidden, "services/chatkit/forbidden/su_token_required", "This endpoint requires a super user token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// actingUser is the subject of the request token, if any.
func actingUser(r *http.Request) string {
	claims, _ := r.Context().Value(claimsKey{}).(*platform.Claims)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// param returns an unescaped path parameter. Routing happens on the raw
// path, so identifiers containing reserved characters arrive escaped.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) deleteResources(w http.ResponseWriter, r *http.Request) {
	s.store.reset()
	w.WriteHeader(http.StatusNoContent)
}
