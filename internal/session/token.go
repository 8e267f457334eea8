package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "blue session token v1"

// Claims is carried in the session cookie
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed session cookies
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token issuer. The signing key is derived from secret
// with HKDF-SHA256; secret must not be empty.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("session: failed to derive signing key: %w", err)
	}
	return &Tokens{secret: key, ttl: ttl}, nil
}

// NewID returns a fresh random session id
func NewID() string {
	return uuid.NewString()
}

// Issue signs a token for sid
func (t *Tokens) Issue(sid string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its session id
func (t *Tokens) Parse(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("session: token is not valid")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", errors.New("session: malformed session id")
	}
	return claims.SessionID, nil
}

// TTL returns the token lifetime
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}
