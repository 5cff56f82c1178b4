package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"backend-skillpath/internal/session"
)

func TestAuthHandlersVerifyAndLogout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	sessions := session.NewStore(client, time.Hour)

	if err := sessions.Save(context.Background(), "jti-1", session.Session{StudentID: "6612345678", Name: "Somchai", YearLevel: 3}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	svc := NewService("test-secret", sessions)
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)

	claims := Claims{StudentID: "6612345678"}
	claims.ID = "jti-1"
	token, err := Sign("test-secret", claims, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status: %v", err)
	}
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["year_level"] != float64(3) || body["name"] != "Somchai" || body["role"] != RoleStudent {
		t.Fatalf("expected claims enriched from session, got %v", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked session to be unauthorized, got %d", resp.StatusCode)
	}
}

func TestAuthSessionOwnerMismatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	sessions := session.NewStore(client, time.Hour)
	_ = sessions.Save(context.Background(), "jti-2", session.Session{StudentID: "someone-else"})

	svc := NewService("test-secret", sessions)
	claims := Claims{StudentID: "6612345678"}
	claims.ID = "jti-2"
	token, _ := Sign("test-secret", claims, time.Minute)

	if _, err := svc.Verify(context.Background(), token); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestAuthSessionStoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := NewService("test-secret", session.NewStore(client, time.Hour))
	mr.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)
	token, _ := Sign("test-secret", Claims{StudentID: "s1"}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req, 5000)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable, got %d", resp.StatusCode)
	}
}
