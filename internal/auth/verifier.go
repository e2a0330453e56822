package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is the only error the socket layer ever sees from a
// verifier. Expired, malformed and wrongly-signed tokens all collapse into
// it so a client cannot probe which check failed.
var ErrTokenInvalid = errors.New("invalid token")

// TokenVerifier resolves an opaque bearer token to a user id. The real
// implementation is owned by the identity service; the gateway treats it as
// a possibly-failing, possibly-slow collaborator.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier validates HMAC-signed tokens issued by the identity service
// with a shared secret. The user id is carried in the user_id claim.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}

	// The identity service has issued both string and numeric user ids over
	// time; accept either.
	switch id := claims["user_id"].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	}
	return "", ErrTokenInvalid
}

// HTTPVerifier asks the identity service to verify the token. Used when the
// gateway does not share the signing secret with the identity service.
type HTTPVerifier struct {
	verifyURL string
	client    *http.Client
}

func NewHTTPVerifier(verifyURL string) *HTTPVerifier {
	return &HTTPVerifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", ErrTokenInvalid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(body))
	if err != nil {
		return "", ErrTokenInvalid
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", ErrTokenInvalid
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrTokenInvalid
	}

	var result struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.UserID == "" {
		return "", ErrTokenInvalid
	}
	return result.UserID, nil
}
