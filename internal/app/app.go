// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires together the API services and routes.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nkarlsen/payflow/internal/apperror"
	"github.com/nkarlsen/payflow/internal/config"
	"github.com/nkarlsen/payflow/internal/middleware"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all services.
	DB *sql.DB

	// Redis is the Redis client used for rate limiting.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// verbose controls whether error responses include internal detail.
	// Decided once at startup from the environment, never per request.
	verbose bool
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware, error handling, and all routes.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. Critical for rate limiting and
	// the activity log.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Echo:    e,
		verbose: cfg.IsDevelopment(),
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	app.setupRoutes()

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- the browser client is served from a different origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.CORSOrigin},
		AllowCredentials: true,
	}))
}

// errorResponse is the JSON envelope for every error response. Status is
// "fail" for client errors (4xx) and "error" for server errors (5xx).
// Errors carries per-field validation messages when present, and Detail
// carries the internal cause in development only.
type errorResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Detail  string               `json:"detail,omitempty"`
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to the JSON error envelope, logs server-side causes, and never
// leaks internal detail outside development.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	resp := errorResponse{
		Status:  "error",
		Message: "an unexpected error occurred",
	}
	code := http.StatusInternalServerError

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		resp.Status = appErr.Status()
		resp.Message = appErr.Message
		resp.Errors = appErr.Fields

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
			if a.verbose {
				resp.Detail = appErr.Internal.Error()
			}
		}
	case errors.As(err, &echoErr):
		// Echo's built-in errors (e.g., 404 from the router, 405).
		code = echoErr.Code
		resp.Status = statusLabel(code)
		if msg, ok := echoErr.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(code)
		}
	default:
		// Truly unexpected error -- log it.
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
		if a.verbose {
			resp.Detail = err.Error()
		}
	}

	if writeErr := c.JSON(code, resp); writeErr != nil {
		slog.Error("failed to write error response", slog.Any("error", writeErr))
	}
}

// statusLabel maps an HTTP status code to the envelope's status field.
func statusLabel(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting payflow server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
