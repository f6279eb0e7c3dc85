package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/background"
	"hireflow/internal/importer"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// ListJobsHandler handles GET /api/v1/jobs: the public job board
func ListJobsHandler(jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := models.JobFilter{
			Search:   c.QueryParam("search"),
			Location: c.QueryParam("location"),
			Company:  c.QueryParam("company"),
			JobType:  models.JobType(c.QueryParam("job_type")),
			WorkMode: models.WorkMode(c.QueryParam("work_mode")),
		}

		list, err := jobs.List(c.Request().Context(), filter)
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to list jobs", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to list jobs")
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GetJobHandler handles GET /api/v1/jobs/:id
func GetJobHandler(jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := jobs.GetByID(c.Request().Context(), c.Param("id"))
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Job not found")
		}
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to load job", map[string]interface{}{
				"request_id": requestID(c),
				"job_id":     c.Param("id"),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to load job")
		}
		return c.JSON(http.StatusOK, job)
	}
}

// CreateJobHandler handles POST /api/v1/jobs for recruiters
func CreateJobHandler(jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.CreateJobRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}
		if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMax < *req.SalaryMin {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "salary_max must not be below salary_min")
		}

		job := jobFromRequest(&req)
		job.ID = uuid.New().String()
		job.CreatedBy = middleware.UserID(c)
		job.CreatedAt = time.Now()

		if err := jobs.Create(c.Request().Context(), job); err != nil {
			logging.GetGlobalLogger().Error("Failed to create job", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to create job")
		}
		return c.JSON(http.StatusCreated, job)
	}
}

// UpdateJobHandler handles PUT /api/v1/jobs/:id. Recruiters can only
// touch their own postings.
func UpdateJobHandler(jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.CreateJobRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		job := jobFromRequest(&req)
		job.ID = c.Param("id")
		job.CreatedBy = middleware.UserID(c)

		err := jobs.Update(c.Request().Context(), job)
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Job not found or not yours")
		}
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to update job", map[string]interface{}{
				"request_id": requestID(c),
				"job_id":     job.ID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to update job")
		}
		return c.JSON(http.StatusOK, job)
	}
}

// DeleteJobHandler handles DELETE /api/v1/jobs/:id
func DeleteJobHandler(jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := jobs.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c))
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Job not found or not yours")
		}
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to delete job", map[string]interface{}{
				"request_id": requestID(c),
				"job_id":     c.Param("id"),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to delete job")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ImportJobHandler handles POST /api/v1/jobs/import: accepts a job
// posting URL and returns 202 with a process ID while the scrape and
// extraction run in the background.
func ImportJobHandler(taskManager background.TaskManager, imp *importer.Importer, jobs *postgres.JobRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ImportJobRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}
		if imp == nil {
			return errorJSON(c, http.StatusServiceUnavailable, "import_unavailable", "Job import is not configured")
		}

		processID := utils.GenerateImportProcessID()
		err := taskManager.SubmitImportTask(c.Request().Context(), processID, req.URL, middleware.UserID(c), imp, jobs)
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to submit import task", map[string]interface{}{
				"request_id": requestID(c),
				"url":        req.URL,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusServiceUnavailable, "import_unavailable", "Import queue is full, try again later")
		}

		return c.JSON(http.StatusAccepted, models.ImportJobResponse{
			ProcessID: processID,
			Status:    string(background.TaskStatusAccepted),
		})
	}
}

// ImportStatusHandler handles GET /api/v1/jobs/import/:process_id
func ImportStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := taskManager.GetTaskStatus(c.Request().Context(), c.Param("process_id"))
		if errors.Is(err, background.ErrTaskNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Import process not found")
		}
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to load import status")
		}
		return c.JSON(http.StatusOK, result)
	}
}

func jobFromRequest(req *models.CreateJobRequest) *models.Job {
	currency := req.Currency
	if currency == "" && (req.SalaryMin != nil || req.SalaryMax != nil) {
		currency = "USD"
	}
	return &models.Job{
		Title:              req.Title,
		Company:            req.Company,
		Location:           req.Location,
		SalaryMin:          req.SalaryMin,
		SalaryMax:          req.SalaryMax,
		Currency:           currency,
		JobType:            req.JobType,
		WorkMode:           req.WorkMode,
		MinExperienceYears: req.MinExperienceYears,
		Description:        req.Description,
		PolicyDocURL:       req.PolicyDocURL,
	}
}
