package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tobiasmaugus/vendas-api/internal/logger"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

// AuthHandler exposes the Google login and credential verification endpoints
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Google handles POST /api/auth/google: it exchanges a Google ID token for a
// local session credential, creating or relinking the user record.
func (h *AuthHandler) Google(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Google token is required"})
	}

	token, user, err := h.auth.LoginWithGoogle(c.Request().Context(), req.Token)
	if err != nil {
		log.Warn("Google login failed", zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":       user.ID,
			"googleId": user.GoogleID,
			"name":     user.Name,
			"email":    user.Email,
		},
	})
}

// Verify handles POST /api/auth/verify: it reports whether a previously
// issued credential is still valid and its account still exists.
func (h *AuthHandler) Verify(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	user, err := h.auth.VerifyToken(c.Request().Context(), req.Token)
	if err != nil {
		log.Debug("Credential verification failed", zap.Error(err))
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"user": echo.Map{
			"id":    user.ID,
			"nome":  user.Name,
			"email": user.Email,
		},
	})
}

// Logout handles POST /api/auth/logout. Sessions are stateless, so logout is
// completed client-side by discarding the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}
