package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Redis, when set, shares counters across instances. Otherwise counters live in process memory.
	Redis    *redis.Client
	Prefix   string
	FailOpen bool
}

// NewRateLimit picks the Redis fixed-window limiter when a client is configured
// and falls back to an in-memory sliding window per client IP.
func NewRateLimit(cfg RateLimitConfig, logger *slog.Logger) Middleware {
	if cfg.Limit <= 0 {
		cfg.Limit = 120
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Redis != nil {
		return NewRedisRateLimiter(cfg.Redis, cfg.Limit, cfg.Window, cfg.Prefix).Middleware(logger, cfg.FailOpen)
	}
	return httprate.Limit(cfg.Limit, cfg.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return clientKey(r), nil }),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
