package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/config"
	"hireflow/internal/llm"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// ApplyHandler handles POST /api/v1/applications: the multipart résumé
// submission that creates the application, scores the résumé, and opens
// the interview with the first question.
func ApplyHandler(cfg *config.Config, apps *postgres.ApplicationRepo, jobs *postgres.JobRepo, candidates *postgres.CandidateRepo, llmManager *llm.Manager, redisClient *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()
		ctx := c.Request().Context()

		candidateID := middleware.UserID(c)
		claims := middleware.Claims(c)
		if err := candidates.Ensure(ctx, candidateID, claims.Name); err != nil {
			logger.Error("Failed to ensure candidate record", map[string]interface{}{
				"request_id": reqID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to process application")
		}

		jobID := c.FormValue("job_id")
		if err := validate.Var(jobID, "required,uuid4"); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "A valid job_id is required")
		}

		job, err := jobs.GetByID(ctx, jobID)
		if errors.Is(err, postgres.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "Job not found")
		}
		if err != nil {
			logger.Error("Failed to load job", map[string]interface{}{
				"request_id": reqID,
				"job_id":     jobID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to process application")
		}

		filename, resumeText, err := resolveResume(c, cfg, candidates, candidateID)
		if err != nil {
			var resumeErr *resumeError
			if errors.As(err, &resumeErr) {
				return errorJSON(c, resumeErr.status, resumeErr.code, resumeErr.message)
			}
			logger.Error("Failed to read resume", map[string]interface{}{
				"request_id": reqID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to read résumé")
		}

		var atsScore *int
		if score, err := llmManager.ScoreResume(ctx, resumeText, job); err != nil {
			// Scoring is best effort; the application proceeds unscored
			logger.Warn("Resume scoring failed", map[string]interface{}{
				"request_id": reqID,
				"job_id":     jobID,
				"error":      err.Error(),
			})
		} else {
			clamped := utils.ClampScore(score)
			atsScore = &clamped
		}

		app := &models.Application{
			ID:             uuid.New().String(),
			CandidateID:    candidateID,
			JobID:          jobID,
			Status:         models.StatusInterviewing,
			ResumeFilename: filename,
			ATSScore:       atsScore,
			AppliedAt:      time.Now(),
		}
		if err := apps.Create(ctx, app, resumeText); err != nil {
			if errors.Is(err, postgres.ErrDuplicate) {
				return errorJSON(c, http.StatusConflict, "already_applied", "You have already applied to this job")
			}
			logger.Error("Failed to create application", map[string]interface{}{
				"request_id": reqID,
				"job_id":     jobID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to create application")
		}

		reply, err := llmManager.InterviewReply(ctx, job, resumeText, nil, "")
		if err != nil {
			logger.Error("Failed to generate opening question", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
			reply = "Thanks for applying! Tell me briefly about yourself and why this role interests you."
		}

		if err := redisClient.AppendConversationEntry(ctx, app.ID, "assistant", reply); err != nil {
			logger.Warn("Failed to persist conversation entry", map[string]interface{}{
				"request_id":     reqID,
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}

		logger.Info("Application created", map[string]interface{}{
			"request_id":     reqID,
			"application_id": app.ID,
			"job_id":         jobID,
			"ats_scored":     atsScore != nil,
		})

		return c.JSON(http.StatusCreated, models.ApplyResponse{
			ApplicationID: app.ID,
			ATSScore:      atsScore,
			Reply:         reply,
		})
	}
}

type resumeError struct {
	status  int
	code    string
	message string
}

func (e *resumeError) Error() string { return e.message }

// resolveResume picks the résumé for the application: an uploaded file
// or, when use_profile_resume is set, the one stored on the profile.
func resolveResume(c echo.Context, cfg *config.Config, candidates *postgres.CandidateRepo, candidateID string) (filename, text string, err error) {
	useProfile := c.FormValue("use_profile_resume") == "true"

	file, fileErr := c.FormFile("resume")
	if fileErr != nil && !useProfile {
		return "", "", &resumeError{http.StatusBadRequest, "validation_failed", "Attach a résumé file or set use_profile_resume"}
	}
	if file != nil && useProfile {
		return "", "", &resumeError{http.StatusBadRequest, "validation_failed", "Provide either a résumé file or use_profile_resume, not both"}
	}

	if useProfile {
		filename, text, err = candidates.GetResume(c.Request().Context(), candidateID)
		if errors.Is(err, postgres.ErrNotFound) {
			return "", "", &resumeError{http.StatusBadRequest, "no_profile_resume", "No résumé is stored on your profile"}
		}
		return filename, text, err
	}

	if file.Size > cfg.Interview.MaxResumeSize {
		return "", "", &resumeError{http.StatusRequestEntityTooLarge, "resume_too_large", "Résumé file is too large"}
	}

	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, cfg.Interview.MaxResumeSize))
	if err != nil {
		return "", "", err
	}

	text = extractResumeText(content)
	if strings.TrimSpace(text) == "" {
		return "", "", &resumeError{http.StatusBadRequest, "unreadable_resume", "Could not extract text from the résumé"}
	}
	return file.Filename, text, nil
}

// extractResumeText treats the upload as plain text, dropping anything
// that is not valid UTF-8. Binary formats come through as whatever
// readable text they embed.
func extractResumeText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	var b strings.Builder
	for len(content) > 0 {
		r, size := utf8.DecodeRune(content)
		if r != utf8.RuneError {
			b.WriteRune(r)
		}
		content = content[size:]
	}
	return b.String()
}
