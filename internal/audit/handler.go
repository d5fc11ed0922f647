package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nkarlsen/payflow/internal/auth"
)

// Handler exposes the activity log over HTTP.
type Handler struct {
	service Service
}

// NewHandler creates a new activity log HTTP handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// MyActivity handles GET /auth/activity. It returns the authenticated
// user's recent auth events, newest first. The optional limit query
// parameter caps the result size.
func (h *Handler) MyActivity(c echo.Context) error {
	userID := auth.GetUserID(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.service.UserActivity(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"activity": entries,
	})
}
