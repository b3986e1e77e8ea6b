package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"papertrail-server/internal/http/response"
)

// rateLimitScript is a fixed window counter: the first hit in a window sets
// the expiry, later hits ride it. Returns the remaining window in milliseconds
// when the caller is over the limit, 0 otherwise.
var rateLimitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
  return redis.call('PTTL', KEYS[1])
end
return 0
`)

// RateLimiter throttles a route per client IP, backed by Redis so all
// instances share one window. Credential endpoints sit behind it to slow
// online password guessing.
type RateLimiter struct {
	client redis.UniversalClient
	scope  string
	limit  int
	window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, scope string, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, scope: scope, limit: limit, window: window}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s", rl.scope, clientIP(r))
			retryMillis, err := rateLimitScript.Run(r.Context(), rl.client,
				[]string{key}, rl.limit, rl.window.Milliseconds()).Int64()
			if err != nil {
				// Fail open: losing the limiter must not take sign-in down
				// with it.
				slog.WarnContext(r.Context(), "rate limiter unavailable", "scope", rl.scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if retryMillis > 0 {
				retryAfter := time.Duration(retryMillis) * time.Millisecond
				seconds := int(retryAfter.Round(time.Second).Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				response.Error(w, r, http.StatusTooManyRequests, response.CodeRateLimited, "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
