package auth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-campaign-platform/internal/config"

	"github.com/gin-gonic/gin"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:        "secret",
		JWTIssuer:        "issuer",
		JWTAudience:      "aud",
		AccessTokenTTL:   15 * time.Minute,
		OperatorUser:     "ops",
		OperatorPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestLoginAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	token, err := m.Login(now, "ops", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(token, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.User != "ops" || claims.Role != RoleOperator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := testManager(t)
	if _, err := m.Login(time.Now(), "ops", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := m.Login(time.Now(), "someone", "hunter2"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()
	token, err := m.Login(now, "ops", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := m.Verify(token, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := testManager(t)

	token, err := m.Login(time.Now(), "ops", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		user, err := User(c.Request.Context())
		if err != nil {
			c.Status(500)
			return
		}
		c.JSON(200, gin.H{"user": user})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}

func TestLoginHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := testManager(t)

	r := gin.New()
	r.POST("/v1/auth/login", LoginHandler(m))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", jsonBody(`{"user":"ops","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/login", jsonBody(`{"user":"ops","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
