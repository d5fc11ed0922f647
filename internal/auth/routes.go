package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nkarlsen/payflow/internal/middleware"
)

// RegisterRoutes mounts the auth endpoints under the given group. The
// credential endpoints carry per-IP rate limits so a single client cannot
// brute-force logins or mass-register accounts.
func RegisterRoutes(g *echo.Group, h *Handler, issuer *TokenIssuer, rdb *redis.Client) {
	g.POST("/register", h.Register, middleware.RateLimit(rdb, "register", 5, time.Minute))
	g.POST("/login", h.Login, middleware.RateLimit(rdb, "login", 10, time.Minute))
	g.GET("/protected", h.Protected, RequireAuth(issuer))
}
