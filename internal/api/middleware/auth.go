package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"hireflow/internal/auth"
	"hireflow/pkg/models"
)

const (
	claimsKey = "auth_claims"
	userIDKey = "user_id"
)

// RequireAuth validates the bearer token and stores the caller's
// identity in the request context.
func RequireAuth(verifier *auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return authError(c, "Missing bearer token")
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				return authError(c, "Invalid or expired token")
			}

			c.Set(claimsKey, claims)
			c.Set(userIDKey, claims.Subject)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose token carries a different role.
// Must run after RequireAuth.
func RequireRole(role auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil || claims.Role != role {
				requestID, _ := c.Get("request_id").(string)
				return c.JSON(http.StatusForbidden, models.ErrorResponse{
					Error:     "forbidden",
					Message:   "This endpoint is not available for your role",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
			return next(c)
		}
	}
}

// Claims returns the verified token claims, or nil when unauthenticated
func Claims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// UserID returns the authenticated caller's ID, empty when unauthenticated
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func authError(c echo.Context, message string) error {
	requestID, _ := c.Get("request_id").(string)
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:     "unauthorized",
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}
