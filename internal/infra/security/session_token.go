package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionTokenInvalid indicates the cookie value failed signature or
// claim validation.
var ErrSessionTokenInvalid = errors.New("session token invalid")

// SessionClaims is the payload carried by the signed session cookie. The
// session record itself lives server-side; the cookie only proves the
// browser was handed this session ID.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenCodec mints and verifies HS256 session cookies.
type SessionTokenCodec struct {
	secret []byte
	issuer string
}

// NewSessionTokenCodec constructs a codec from the configured secret.
func NewSessionTokenCodec(secret, issuer string) (*SessionTokenCodec, error) {
	trimmed := strings.TrimSpace(secret)
	if len(trimmed) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	return &SessionTokenCodec{secret: []byte(trimmed), issuer: issuer}, nil
}

// Mint signs a cookie value binding the browser to the session record.
func (c *SessionTokenCodec) Mint(sessionID, userID string, expiresAt time.Time) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Parse verifies the cookie value and returns its claims.
func (c *SessionTokenCodec) Parse(value string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrSessionTokenInvalid
	}

	if strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrSessionTokenInvalid
	}

	return claims, nil
}
