package audit

import (
	"github.com/labstack/echo/v4"

	"github.com/nkarlsen/payflow/internal/auth"
)

// RegisterRoutes mounts the activity log endpoints under the given group.
// All routes require authentication.
func RegisterRoutes(g *echo.Group, h *Handler, issuer *auth.TokenIssuer) {
	g.GET("/activity", h.MyActivity, auth.RequireAuth(issuer))
}
