package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestJWTVerifierStringUserID(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"user_id": "user-42"})

	userID, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Expected user-42, got %s", userID)
	}
}

func TestJWTVerifierNumericUserID(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"user_id": float64(42)})

	userID, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "42" {
		t.Errorf("Expected 42, got %s", userID)
	}
}

func TestJWTVerifierRejectsWrongSecret(t *testing.T) {
	v := NewJWTVerifier("other-secret")
	token := signToken(t, jwt.MapClaims{"user_id": "user-42"})

	if _, err := v.Verify(context.Background(), token); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTVerifierRejectsExpired(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), token); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestJWTVerifierRejectsGarbage(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := v.Verify(context.Background(), token); err != ErrTokenInvalid {
			t.Errorf("Token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestJWTVerifierRejectsMissingClaim(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"email": "x@example.com"})

	if _, err := v.Verify(context.Background(), token); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid without user_id claim, got %v", err)
	}
}

func TestHTTPVerifierSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token != "valid-token-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"userId": "user-42"})
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)
	userID, err := v.Verify(context.Background(), "valid-token-abc")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Expected user-42, got %s", userID)
	}
}

func TestHTTPVerifierRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)
	if _, err := v.Verify(context.Background(), "whatever"); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestHTTPVerifierUnreachable(t *testing.T) {
	v := NewHTTPVerifier("http://127.0.0.1:1")
	if _, err := v.Verify(context.Background(), "whatever"); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid when identity service is down, got %v", err)
	}
}
