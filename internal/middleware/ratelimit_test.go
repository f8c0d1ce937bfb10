// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func hit(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(h http.Handler, email, remoteAddr string) *httptest.ResponseRecorder {
	body := `{"email":"` + email + `","password":"pw"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(body))
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLocalRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Limit: Per(time.Hour, 1, 2)})
	h := rl.Handler(http.HandlerFunc(okHandler))

	rec := hit(h, "/login", "10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, hit(h, "/login", "10.0.0.1:1234").Code)

	rec = hit(h, "/login", "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	assert.Equal(t, http.StatusOK, hit(h, "/login", "10.0.0.2:1234").Code)
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() }) //nolint:errcheck // test teardown

	rl := NewRateLimiter(rdb, RateLimitConfig{Limit: Per(time.Hour, 1, 1)})
	h := rl.Handler(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, hit(h, "/login", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/login", "10.0.0.1:1").Code)
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      Per(time.Hour, 1, 1),
		BypassFunc: func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	for range 3 {
		assert.Equal(t, http.StatusOK, hit(h, "/healthz", "10.0.0.1:1").Code)
	}
}

func TestKeyByIPAndEndpointSeparatesBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:   Per(time.Hour, 1, 1),
		KeyFunc: KeyByIPAndEndpoint,
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, hit(h, "/users/login", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "/users/register", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/users/login", "10.0.0.1:1").Code)
}

func TestKeyByAccountLimitsAcrossAddresses(t *testing.T) {
	var bodies []string
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:   Per(time.Hour, 1, 2),
		KeyFunc: KeyByAccount,
	})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(raw))
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, login(h, "Alice@X.com", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, login(h, " alice@x.com", "10.0.0.2:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, login(h, "alice@x.com", "10.0.0.3:1").Code)
	assert.Equal(t, http.StatusOK, login(h, "bob@x.com", "10.0.0.3:1").Code)

	require.Len(t, bodies, 3)
	assert.Equal(t, `{"email":"Alice@X.com","password":"pw"}`, bodies[0])
}

func TestKeyFunctions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/123", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "ratelimit:ip:192.0.2.7", KeyByIP(req))
	assert.Equal(t, "ratelimit:ip:192.0.2.7:endpoint:/api/v1/courses/{id}", KeyByIPAndEndpoint(req))
	assert.Equal(t, "ratelimit:ip:192.0.2.7:endpoint:/api/v1/courses/{id}", KeyByAccount(req))

	authed := req.WithContext(WithIdentity(req.Context(), "u1", "user"))
	assert.Equal(t, "ratelimit:user:u1", KeyByUser(authed))
	assert.Equal(t, "ratelimit:ip:192.0.2.7", KeyByUser(req))

	body := strings.NewReader(`{"email":" Carol@X.com "}`)
	withEmail := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	assert.Equal(t, "ratelimit:account:carol@x.com:endpoint:/api/v1/users/register", KeyByAccount(withEmail))
}

func TestKeyByIPUsesRealIP(t *testing.T) {
	var key string
	h := chimw.RealIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		key = KeyByIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "ratelimit:ip:198.51.100.1", key)
}

func TestRouteKey(t *testing.T) {
	tests := map[string]string{
		"/api/v1/courses":                         "/api/v1/courses",
		"/api/v1/courses/0b7c6e52-6a8e-4a51-9d1e": "/api/v1/courses/{id}",
		"/api/v1/users/login":                     "/api/v1/users/login",
		"/api/v1/users/access-token":              "/api/v1/users/access-token",
		"/api/v1/users/profile":                   "/api/v1/users/profile",
		"/api/v1/users/u-42":                      "/api/v1/users/{id}",
		"/api/v1/admin/stats":                     "/api/v1/admin/stats",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeKey(path), path)
	}
}

func TestPerDefaultsWindow(t *testing.T) {
	assert.Equal(t, time.Minute, Per(0, 10, 5).Period)
	assert.Equal(t, 30*time.Second, Per(30*time.Second, 10, 5).Period)
}
