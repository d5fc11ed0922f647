package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// Handler exposes the auth endpoints over HTTP. It binds requests, calls
// the service, and shapes responses; all business rules live in the service.
type Handler struct {
	service AuthService
	issuer  *TokenIssuer
}

// NewHandler creates a new auth HTTP handler.
func NewHandler(service AuthService, issuer *TokenIssuer) *Handler {
	return &Handler{
		service: service,
		issuer:  issuer,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, c.RealIP())
	if err != nil {
		return err
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return apperror.NewInternal(err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		User:        user,
		AccessToken: token,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, c.RealIP())
	if err != nil {
		return err
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return apperror.NewInternal(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		User:        user,
		AccessToken: token,
	})
}

// Protected handles GET /auth/protected. It demonstrates a route behind
// the auth middleware and returns the authenticated user's record.
func (h *Handler) Protected(c echo.Context) error {
	userID := GetUserID(c)

	user, err := h.service.FindUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Access granted",
		"user":    user,
	})
}
