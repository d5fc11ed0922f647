package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nkarlsen/payflow/internal/audit"
	"github.com/nkarlsen/payflow/internal/auth"
)

// setupRoutes wires all services and mounts every route. This is the single
// place where routes are aggregated.
func (a *App) setupRoutes() {
	e := a.Echo

	// Health check endpoint for load balancers and Docker health monitoring.
	e.GET("/health", a.health)

	// --- Auth ---
	issuer := auth.NewTokenIssuer(a.Config.Auth)

	activityRepo := audit.NewRepository(a.DB)
	activity := audit.NewService(activityRepo)

	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, issuer, activity)
	authHandler := auth.NewHandler(authService, issuer)

	authGroup := e.Group("/auth")
	auth.RegisterRoutes(authGroup, authHandler, issuer, a.Redis)
	audit.RegisterRoutes(authGroup, audit.NewHandler(activity), issuer)
}

// health reports liveness plus DB and Redis connectivity. A failing
// dependency turns the response into a 503 so orchestrators can act on it.
func (a *App) health(c echo.Context) error {
	ctx := c.Request().Context()

	code := http.StatusOK
	status := "ok"
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		code, status = http.StatusServiceUnavailable, "degraded"
	}

	return c.JSON(code, map[string]any{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}
