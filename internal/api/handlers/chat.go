package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/llm"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// ChatHandler handles POST /api/v1/interview/chat: one candidate turn
// of a live interview. The conversation history stored in Redis is the
// LLM context; both the candidate turn and the reply are appended to it.
func ChatHandler(apps *postgres.ApplicationRepo, jobs *postgres.JobRepo, llmManager *llm.Manager, redisClient *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()
		ctx := c.Request().Context()

		var req models.ChatRequest
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
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to process message")
		}

		if app.CandidateID != middleware.UserID(c) {
			return errorJSON(c, http.StatusForbidden, "forbidden", "This application belongs to another candidate")
		}
		if app.Terminated {
			return errorJSON(c, http.StatusConflict, "interview_terminated", "This interview has been terminated")
		}
		if app.Status != models.StatusInterviewing {
			return errorJSON(c, http.StatusConflict, "interview_closed", "This interview is no longer active")
		}

		job, err := jobs.GetByID(ctx, app.JobID)
		if err != nil {
			logger.Error("Failed to load job for chat", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"job_id":         app.JobID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to process message")
		}

		history, err := redisClient.GetConversationHistory(ctx, app.ID)
		if err != nil {
			logger.Warn("Failed to load conversation history", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}
		var entries []utils.ConversationEntry
		if history != nil {
			entries = history.Entries
		}

		// The résumé grounds the interviewer's follow-up questions; a
		// missing one degrades to a job-description-only prompt.
		resumeText, err := apps.GetResumeText(ctx, app.ID)
		if err != nil {
			logger.Warn("Failed to load resume text for chat", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}

		reply, err := llmManager.InterviewReply(ctx, job, resumeText, entries, req.Message)
		if err != nil {
			logger.Error("Failed to generate interview reply", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
			return errorJSON(c, http.StatusBadGateway, "llm_error", "Could not generate a reply, try again")
		}

		for _, entry := range []struct{ role, content string }{
			{"user", req.Message},
			{"assistant", reply},
		} {
			if err := redisClient.AppendConversationEntry(ctx, app.ID, entry.role, entry.content); err != nil {
				logger.Warn("Failed to persist conversation entry", map[string]interface{}{
					"request_id":     reqID,
					"application_id": app.ID,
					"role":           entry.role,
					"error":          err.Error(),
				})
			}
		}

		return c.JSON(http.StatusOK, models.ChatResponse{Reply: reply})
	}
}
