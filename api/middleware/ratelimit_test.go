package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/angelmondragon/cellar-backend/pkg/redis"
)

func newLimiterStore(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return pkgredis.Wrap(raw), mr
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store, mr := newLimiterStore(t)
	policy := RateLimitPolicy{Name: "cart", Window: time.Minute, Limit: 2}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req.RemoteAddr = ip + ":5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if got := send("10.0.0.1"); got != http.StatusNoContent {
		t.Fatalf("first request: expected 204 got %d", got)
	}
	if got := send("10.0.0.1"); got != http.StatusNoContent {
		t.Fatalf("second request: expected 204 got %d", got)
	}
	if got := send("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429 got %d", got)
	}
	if got := send("10.0.0.2"); got != http.StatusNoContent {
		t.Fatalf("other caller: expected 204 got %d", got)
	}

	mr.FastForward(time.Minute + time.Second)
	if got := send("10.0.0.1"); got != http.StatusNoContent {
		t.Fatalf("after window: expected 204 got %d", got)
	}
}

func TestRateLimitKeysSignedInUsers(t *testing.T) {
	store, _ := newLimiterStore(t)
	policy := RateLimitPolicy{Name: "cart", Window: time.Minute, Limit: 1}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if got := send("user-1"); got != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", got)
	}
	if got := send("user-2"); got != http.StatusNoContent {
		t.Fatalf("distinct user should have own window, got %d", got)
	}
	if got := send("user-1"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", got)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	store, mr := newLimiterStore(t)
	mr.Close()
	policy := RateLimitPolicy{Name: "cart", Window: time.Minute, Limit: 1}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected fail-open 204 got %d", resp.Code)
	}
}
