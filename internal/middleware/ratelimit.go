// ratelimit.go implements a per-IP fixed-window rate limiter backed by
// Redis. Designed for the auth endpoints, where brute-force and credential
// stuffing attempts must be throttled across all server replicas.
package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration. Exceeding the limit yields the
// rate-limited domain error, which the central error handler renders as 429.
//
// The counter lives in Redis under "ratelimit:<scope>:<ip>" with the window
// as its TTL, so limits hold across restarts and multiple instances. If
// Redis is unavailable the request is allowed through: availability of the
// auth endpoints wins over strict limiting.
func RateLimit(rdb *redis.Client, scope string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:%s:%s", scope, c.RealIP())
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				return next(c)
			}

			// First hit in this window opens it; the TTL closes it.
			if count == 1 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					slog.Warn("rate limiter expire failed",
						slog.String("scope", scope),
						slog.Any("error", err),
					)
				}
			}

			if count > int64(maxRequests) {
				return apperror.NewRateLimited()
			}

			return next(c)
		}
	}
}
