package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/datamatch/datamatch/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// PerMinute returns a limit of n requests per minute.
func PerMinute(n int) RateLimitConfig {
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// Default limits.
var (
	// AuthRateLimit applies per IP to token issuance.
	AuthRateLimit = PerMinute(10)

	// SearchRateLimit applies per member to ranking, suggestion and nearby
	// endpoints, which score the whole pool.
	SearchRateLimit = PerMinute(60)

	// StandardRateLimit applies per member to everything else.
	StandardRateLimit = PerMinute(100)
)

// RateLimitByIP limits by client IP as resolved by chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByUser limits by authenticated profile, falling back to the
// client IP for anonymous requests.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByProfileOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByProfileOrIP(r *http.Request) (string, error) {
	if id := GetProfileID(r.Context()); id != "" {
		return "profile:" + id, nil
	}
	return httprate.KeyByRealIP(r)
}

func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	// httprate does not expose the reset time, so advertise the full window.
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))

	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
