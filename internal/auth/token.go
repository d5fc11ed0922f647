package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkarlsen/payflow/internal/config"
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// accepted: bad signature, structural malformation, or expiry. Callers that
// need to distinguish expiry can check ErrTokenExpired first.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned when the token was well-formed and correctly
// signed but its expiry has passed.
var ErrTokenExpired = errors.New("token expired")

// Claims carries the identity claim embedded in access tokens. The user ID
// rides in the registered Subject claim alongside issued-at and expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies signed, time-limited bearer tokens.
// The signing secret and TTL are fixed at construction from the process
// configuration; rotating the secret invalidates every outstanding token.
// Stateless and safe for unbounded concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer from the loaded auth configuration.
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// WithClock overrides the issuer's time source. Useful for expiry tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue signs a token for the given user ID, expiring TTL from now.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns the embedded user
// ID. Only HMAC-signed tokens are accepted; an "alg" header swap to RSA or
// none is rejected before any signature check.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
