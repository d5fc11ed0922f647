package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// userIDKey is the echo context key under which the middleware stores the
// authenticated user's ID.
const userIDKey = "auth.user_id"

// RequireAuth returns middleware that rejects requests without a valid
// bearer token. On success the user ID from the token is stored on the
// context for handlers to read via GetUserID.
func RequireAuth(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return apperror.NewUnauthorized("missing or malformed authorization header")
			}

			userID, err := issuer.Verify(token)
			if err != nil {
				return apperror.NewUnauthorized("invalid or expired token")
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// GetUserID returns the authenticated user's ID set by RequireAuth, or the
// empty string if the request did not pass through the middleware.
func GetUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive per RFC 9110.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
