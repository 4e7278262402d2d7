package chatkittest

import (
	"net/http"
	"time"

	"github.com/hilthontt/chatkit/internal/infrastructure/ratelimiter"
)

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allow, retryAfter := s.limiter.Allow(ratelimiter.SourceKey(r)); !allow {
			writeRateLimitError(w, int(retryAfter.Round(time.Second)/time.Second))
			return
		}
		next.ServeHTTP(w, r)
	})
}
