package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/config"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
)

// ViolationStore is the slice of the application repository the
// violation endpoint needs.
type ViolationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	RecordViolation(ctx context.Context, id string, max int) (int, bool, error)
}

// ViolationLedger is the slice of the Redis client the violation
// endpoint needs: collapse reports arriving within the debounce window,
// and drop the conversation history once an application terminates.
type ViolationLedger interface {
	DebounceViolation(ctx context.Context, applicationID string, window time.Duration) (bool, error)
	DeleteConversationHistory(ctx context.Context, applicationID string) error
}

// ViolationHandler handles POST /api/v1/interview/violations. The
// response always carries the authoritative server-side state: the
// counter only grows, and once Terminated is true every further report
// returns the same frozen state.
//
// Reports landing inside the debounce window are acknowledged with the
// current state but do not increment the counter, so a client that
// fires twice for one real focus loss cannot burn two strikes.
func ViolationHandler(cfg *config.Config, apps ViolationStore, ledger ViolationLedger) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()
		ctx := c.Request().Context()

		var req models.ViolationRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		app, err := apps.GetByID(ctx, req.ApplicationID)
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Application not found")
		}
		if err != nil {
			logger.Error("Failed to load application", map[string]interface{}{
				"request_id":     reqID,
				"application_id": req.ApplicationID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to record violation")
		}
		if app.CandidateID != middleware.UserID(c) {
			return errorJSON(c, http.StatusForbidden, "forbidden", "This application belongs to another candidate")
		}

		accepted, err := ledger.DebounceViolation(ctx, app.ID, cfg.Interview.ViolationDebounce)
		if err != nil {
			// Redis being down must not let violations slip through;
			// fall back to counting every report.
			logger.Warn("Violation debounce check failed", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
			accepted = true
		}

		if !accepted {
			return c.JSON(http.StatusOK, models.ViolationResponse{
				Count:      app.ViolationCount,
				Terminated: app.Terminated,
			})
		}

		count, terminated, err := apps.RecordViolation(ctx, app.ID, cfg.Interview.MaxViolations)
		if err != nil {
			logger.Error("Failed to record violation", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to record violation")
		}

		if terminated {
			logger.Info("Application terminated for repeated violations", map[string]interface{}{
				"request_id":      reqID,
				"application_id":  app.ID,
				"violation_count": count,
			})
			// Best effort: the history has a TTL anyway.
			if err := ledger.DeleteConversationHistory(ctx, app.ID); err != nil {
				logger.Warn("Failed to delete conversation history", map[string]interface{}{
					"request_id":     reqID,
					"application_id": app.ID,
					"error":          err.Error(),
				})
			}
		}

		return c.JSON(http.StatusOK, models.ViolationResponse{
			Count:      count,
			Terminated: terminated,
		})
	}
}
