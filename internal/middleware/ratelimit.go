// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

const (
	keyPrefix      = "ratelimit:"
	maxPeekBytes   = 64 << 10
	counterIdleTTL = 10 * time.Minute
)

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	BypassFunc func(*http.Request) bool
}

// RateLimiter counts requests in Redis when a client is configured and
// in process otherwise. A Redis error degrades that request to the
// in-process count instead of rejecting it.
type RateLimiter struct {
	shared *redis_rate.Limiter
	local  *localCounters
	cfg    RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Limit.Period <= 0 {
		cfg.Limit.Period = time.Minute
	}

	rl := &RateLimiter{
		local: &localCounters{buckets: make(map[string]*bucket)},
		cfg:   cfg,
	}
	if rdb != nil {
		rl.shared = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.BypassFunc != nil && rl.cfg.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		d := rl.decide(r.Context(), rl.cfg.KeyFunc(r))

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit.Rate))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(ceilSeconds(d.resetAfter)))

		if !d.allowed {
			retryAfter := max(ceilSeconds(d.retryAfter), 1)
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			core.JSONError(w, core.NewAppError(
				nil,
				fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
				http.StatusTooManyRequests,
				"RATE_LIMITED",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	resetAfter time.Duration
}

func (rl *RateLimiter) decide(ctx context.Context, key string) decision {
	if rl.shared != nil {
		res, err := rl.shared.Allow(ctx, key, rl.cfg.Limit)
		if err == nil {
			return decision{
				allowed:    res.Allowed > 0,
				remaining:  res.Remaining,
				retryAfter: res.RetryAfter,
				resetAfter: res.ResetAfter,
			}
		}
		slog.WarnContext(ctx, "redis rate limit unavailable, counting in process",
			"error", err,
			"key", key,
		)
	}
	return rl.local.take(key, rl.cfg.Limit, time.Now())
}

// localCounters holds one token bucket per key. Buckets idle for longer
// than counterIdleTTL are dropped by the next sweep.
type localCounters struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	every   time.Duration
	seen    time.Time
}

func (c *localCounters) take(key string, limit redis_rate.Limit, now time.Time) decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) > counterIdleTTL {
		for k, b := range c.buckets {
			if now.Sub(b.seen) > counterIdleTTL {
				delete(c.buckets, k)
			}
		}
		c.lastSweep = now
	}

	b, ok := c.buckets[key]
	if !ok {
		every := limit.Period / time.Duration(max(limit.Rate, 1))
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(every), max(limit.Burst, 1)),
			every:   every,
		}
		c.buckets[key] = b
	}
	b.seen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
		res.CancelAt(now)
		if !res.OK() {
			delay = limit.Period
		}
		return decision{retryAfter: delay, resetAfter: delay}
	}

	tokens := b.limiter.TokensAt(now)
	missing := float64(b.limiter.Burst()) - tokens
	return decision{
		allowed:    true,
		remaining:  max(int(tokens), 0),
		resetAfter: time.Duration(missing * float64(b.every)),
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// clientIP expects chi's RealIP to have already rewritten RemoteAddr
// from proxy headers.
func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func KeyByIP(r *http.Request) string {
	return keyPrefix + "ip:" + clientIP(r)
}

// KeyByUser buckets signed-in callers by user id. It needs OptionalAuth
// or Authenticator earlier in the chain and falls back to the address.
func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return keyPrefix + "user:" + userID
	}
	return KeyByIP(r)
}

// KeyByIPAndEndpoint gives credential endpoints their own bucket per
// client so login attempts do not drain the general budget.
func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":endpoint:" + routeKey(r.URL.Path)
}

// KeyByAccount buckets credential attempts by the email in the JSON body,
// so one account cannot be guessed at from many addresses. Bodies without
// an email fall back to KeyByIPAndEndpoint.
func KeyByAccount(r *http.Request) string {
	email := peekEmail(r)
	if email == "" {
		return KeyByIPAndEndpoint(r)
	}
	return keyPrefix + "account:" + email + ":endpoint:" + routeKey(r.URL.Path)
}

// peekEmail reads the email field from a JSON body and puts the body
// back for the handler.
func peekEmail(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	rest := r.Body
	raw, err := io.ReadAll(io.LimitReader(rest, maxPeekBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil {
		return ""
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return core.NormalizeEmail(body.Email)
}

// idCollections lists path segments followed by a record id, with the
// static routes that share that position.
var idCollections = map[string]map[string]bool{
	"courses": nil,
	"users": {
		"register":     true,
		"login":        true,
		"access-token": true,
		"profile":      true,
	},
}

// routeKey collapses /courses/{id} and /users/{id} so per-endpoint
// buckets do not multiply per record.
func routeKey(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 1; i < len(parts); i++ {
		static, ok := idCollections[parts[i-1]]
		if ok && parts[i] != "" && !static[parts[i]] {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// Per allows rate requests every window, with bursts up to burst. A
// non-positive window means one minute.
func Per(window time.Duration, rate, burst int) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: window,
	}
}
