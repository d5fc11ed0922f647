package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nkarlsen/payflow/internal/apperror"
)

func rateLimitedHandler(t *testing.T, rdb *redis.Client, maxRequests int, window time.Duration) (*echo.Echo, echo.HandlerFunc) {
	t.Helper()
	e := echo.New()
	// The limiter signals its domain error; render its code so response
	// assertions see what the central handler would produce.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			_ = c.JSON(appErr.Code, map[string]string{"message": appErr.Message})
			return
		}
		_ = c.NoContent(http.StatusInternalServerError)
	}
	handler := RateLimit(rdb, "test", maxRequests, window)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e, handler
}

func doRequest(e *echo.Echo, handler echo.HandlerFunc, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e, handler := rateLimitedHandler(t, rdb, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := doRequest(e, handler, "10.0.0.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e, handler := rateLimitedHandler(t, rdb, 2, time.Minute)

	doRequest(e, handler, "10.0.0.1")
	doRequest(e, handler, "10.0.0.1")
	rec := doRequest(e, handler, "10.0.0.1")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e, handler := rateLimitedHandler(t, rdb, 1, time.Minute)

	doRequest(e, handler, "10.0.0.1")
	rec := doRequest(e, handler, "10.0.0.2")

	if rec.Code != http.StatusOK {
		t.Errorf("a different IP must have its own window, got %d", rec.Code)
	}
}

func TestRateLimit_WindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e, handler := rateLimitedHandler(t, rdb, 1, time.Minute)

	doRequest(e, handler, "10.0.0.1")
	rec := doRequest(e, handler, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rec.Code)
	}

	mr.FastForward(time.Minute + time.Second)

	rec = doRequest(e, handler, "10.0.0.1")
	if rec.Code != http.StatusOK {
		t.Errorf("expected a fresh window after expiry, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e, handler := rateLimitedHandler(t, rdb, 1, time.Minute)

	mr.Close()

	rec := doRequest(e, handler, "10.0.0.1")
	if rec.Code != http.StatusOK {
		t.Errorf("expected fail-open when Redis is down, got %d", rec.Code)
	}
}
