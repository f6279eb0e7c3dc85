package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
)

// ListApplicationsHandler handles GET /api/v1/applications for the
// authenticated candidate.
func ListApplicationsHandler(apps *postgres.ApplicationRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		summaries, err := apps.ListByCandidate(c.Request().Context(), middleware.UserID(c))
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to list applications", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to list applications")
		}
		return c.JSON(http.StatusOK, summaries)
	}
}

// GetApplicationHandler handles GET /api/v1/applications/:id. Only the
// owning candidate can read it.
func GetApplicationHandler(apps *postgres.ApplicationRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		app, err := apps.GetByID(c.Request().Context(), c.Param("id"))
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Application not found")
		}
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to load application", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to load application")
		}
		if app.CandidateID != middleware.UserID(c) {
			return errorJSON(c, http.StatusForbidden, "forbidden", "This application belongs to another candidate")
		}
		return c.JSON(http.StatusOK, app)
	}
}
