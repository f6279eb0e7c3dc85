package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// RequestValidation middleware tags every request with an ID and
// rejects oversized bodies. maxBodySize should be at least the résumé
// upload limit since the apply endpoint takes multipart bodies.
func RequestValidation(maxBodySize int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := utils.GenerateRequestID()
			c.Set("request_id", requestID)
			c.Response().Header().Set("X-Request-ID", requestID)

			if c.Request().Method == http.MethodPost || c.Request().Method == http.MethodPut {
				if c.Request().ContentLength > maxBodySize {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
			}

			return next(c)
		}
	}
}
