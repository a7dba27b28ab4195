package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tobiasmaugus/vendas-api/internal/jwtutil"
	"github.com/tobiasmaugus/vendas-api/internal/logger"
	"github.com/tobiasmaugus/vendas-api/internal/metrics"
	"github.com/tobiasmaugus/vendas-api/internal/model"
)

const (
	claimsContextKey = "user"
	userIDContextKey = "user_id"
)

// Auth creates a middleware that validates the bearer credential and
// re-resolves it against the user table. A syntactically valid token whose
// subject no longer matches a user row is rejected, so deleted accounts lose
// access immediately even though the credential itself is stateless.
func Auth(jwtUtil *jwtutil.JWTUtil, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Extract the token from the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				metrics.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				metrics.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				metrics.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Revocation check: the account behind the credential must still exist
			var user model.User
			result := db.WithContext(c.Request().Context()).
				Where("google_id = ?", claims.Subject).First(&user)
			if result.Error != nil {
				log.Warn("Token subject has no matching user",
					zap.String("subject", claims.Subject))
				metrics.RecordAuthError("unknown_user")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
			}

			c.Set(claimsContextKey, claims)
			c.Set(userIDContextKey, user.ID)
			log.Debug("Credential validated",
				zap.Uint("user_id", user.ID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user's local id from the echo context
func CurrentUserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDContextKey).(uint)
	return id, ok
}

// CurrentClaims returns the validated credential claims from the echo context
func CurrentClaims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsContextKey).(*jwtutil.UserClaims)
	return claims, ok
}
