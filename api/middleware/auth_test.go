package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/auth"
	"github.com/angelmondragon/cellar-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "identity", ExpirationMinutes: 60}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID string) string {
	t.Helper()
	token, err := auth.MintIdentityToken(cfg, time.Now(), auth.IdentityPayload{UserID: userID, Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func captureUser(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityLetsGuestsThrough(t *testing.T) {
	captured := "unset"
	handler := Identity(testJWT, nil)(captureUser(&captured))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured != "" {
		t.Fatalf("expected guest request without user, got %q", captured)
	}
}

func TestIdentityRejectsInvalidToken(t *testing.T) {
	var captured string
	handler := Identity(testJWT, nil)(captureUser(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentityRejectsForeignIssuer(t *testing.T) {
	var captured string
	handler := Identity(testJWT, nil)(captureUser(&captured))
	other := testJWT
	other.Issuer = "someone-else"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, other, "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentitySeedsUser(t *testing.T) {
	var captured string
	var email string
	handler := Identity(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
		email = EmailFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, testJWT, "user-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "user-1" {
		t.Fatalf("expected user-1 got %q", captured)
	}
	if email != "ana@example.com" {
		t.Fatalf("expected email from claims got %q", email)
	}
}

func TestRequireIdentityRejectsGuests(t *testing.T) {
	var captured string
	handler := RequireIdentity(testJWT, nil)(captureUser(&captured))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
