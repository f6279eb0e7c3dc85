package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
)

// DecisionStore is the slice of the application repository the decision
// endpoint needs.
type DecisionStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	SetStatus(ctx context.Context, id string, status models.ApplicationStatus) error
}

// JobLookup resolves a job for the ownership check.
type JobLookup interface {
	GetByID(ctx context.Context, id string) (*models.Job, error)
}

// DecisionHandler handles PUT /api/v1/applications/:id/decision: the
// recruiter accepts or rejects an application for one of their own job
// postings. Terminated applications are already rejected and cannot be
// decided again.
func DecisionHandler(apps DecisionStore, jobs JobLookup) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()
		ctx := c.Request().Context()

		var req models.DecisionRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		app, err := apps.GetByID(ctx, c.Param("id"))
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Application not found")
		}
		if err != nil {
			logger.Error("Failed to load application for decision", map[string]interface{}{
				"request_id":     reqID,
				"application_id": c.Param("id"),
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to record decision")
		}

		job, err := jobs.GetByID(ctx, app.JobID)
		if err != nil {
			logger.Error("Failed to load job for decision", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"job_id":         app.JobID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to record decision")
		}
		if job.CreatedBy != middleware.UserID(c) {
			return errorJSON(c, http.StatusForbidden, "forbidden", "This application is for another recruiter's job")
		}
		if app.Terminated {
			return errorJSON(c, http.StatusConflict, "interview_terminated", "This application was terminated and cannot be decided")
		}

		status := models.ApplicationStatus(req.Decision)
		if err := apps.SetStatus(ctx, app.ID, status); err != nil {
			logger.Error("Failed to set application status", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to record decision")
		}

		logger.Info("Application decided", map[string]interface{}{
			"request_id":     reqID,
			"application_id": app.ID,
			"status":         status,
		})

		app.Status = status
		return c.JSON(http.StatusOK, app)
	}
}
