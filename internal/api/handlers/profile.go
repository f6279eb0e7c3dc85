package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/config"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
)

// GetProfileHandler handles GET /api/v1/profile
func GetProfileHandler(candidates *postgres.CandidateRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		candidateID := middleware.UserID(c)
		claims := middleware.Claims(c)

		if err := candidates.Ensure(ctx, candidateID, claims.Name); err != nil {
			return profileError(c, "Failed to load profile", err)
		}
		profile, err := candidates.GetProfile(ctx, candidateID)
		if err != nil {
			return profileError(c, "Failed to load profile", err)
		}
		return c.JSON(http.StatusOK, profile)
	}
}

// UpdateProfileHandler handles PUT /api/v1/profile
func UpdateProfileHandler(candidates *postgres.CandidateRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		candidateID := middleware.UserID(c)

		var req models.UpdateProfileRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		if err := candidates.Ensure(ctx, candidateID, req.Name); err != nil {
			return profileError(c, "Failed to update profile", err)
		}
		if err := candidates.UpdateProfile(ctx, candidateID, req.Name, req.Email); err != nil {
			return profileError(c, "Failed to update profile", err)
		}

		profile, err := candidates.GetProfile(ctx, candidateID)
		if err != nil {
			return profileError(c, "Failed to update profile", err)
		}
		return c.JSON(http.StatusOK, profile)
	}
}

// UploadProfileResumeHandler handles POST /api/v1/profile/resume: the
// résumé stored here backs the use_profile_resume apply shortcut.
func UploadProfileResumeHandler(cfg *config.Config, candidates *postgres.CandidateRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		candidateID := middleware.UserID(c)
		claims := middleware.Claims(c)

		file, err := c.FormFile("resume")
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "A résumé file is required")
		}
		if file.Size > cfg.Interview.MaxResumeSize {
			return errorJSON(c, http.StatusRequestEntityTooLarge, "resume_too_large", "Résumé file is too large")
		}

		src, err := file.Open()
		if err != nil {
			return profileError(c, "Failed to store résumé", err)
		}
		defer src.Close()

		content, err := io.ReadAll(io.LimitReader(src, cfg.Interview.MaxResumeSize))
		if err != nil {
			return profileError(c, "Failed to store résumé", err)
		}

		text := extractResumeText(content)
		if strings.TrimSpace(text) == "" {
			return errorJSON(c, http.StatusBadRequest, "unreadable_resume", "Could not extract text from the résumé")
		}

		if err := candidates.Ensure(ctx, candidateID, claims.Name); err != nil {
			return profileError(c, "Failed to store résumé", err)
		}
		if err := candidates.SetResume(ctx, candidateID, file.Filename, text); err != nil {
			return profileError(c, "Failed to store résumé", err)
		}

		return c.JSON(http.StatusOK, map[string]string{
			"resume_filename": file.Filename,
			"status":          "stored",
		})
	}
}

// UploadProfilePhotoHandler handles POST /api/v1/profile/photo. The
// photo itself lives wherever the frontend uploaded it; we only keep
// the URL.
func UploadProfilePhotoHandler(candidates *postgres.CandidateRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		candidateID := middleware.UserID(c)

		var req struct {
			PhotoURL string `json:"photo_url" validate:"required,url"`
		}
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		if err := candidates.SetPhoto(ctx, candidateID, req.PhotoURL); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return errorJSON(c, http.StatusNotFound, "not_found", "Profile not found")
			}
			return profileError(c, "Failed to store photo", err)
		}
		return c.JSON(http.StatusOK, map[string]string{"photo_url": req.PhotoURL})
	}
}

// ListNotificationsHandler handles GET /api/v1/notifications
func ListNotificationsHandler(notifications *postgres.NotificationRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := notifications.ListByCandidate(c.Request().Context(), middleware.UserID(c))
		if err != nil {
			return profileError(c, "Failed to list notifications", err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func profileError(c echo.Context, message string, err error) error {
	logging.GetGlobalLogger().Error(message, map[string]interface{}{
		"request_id": requestID(c),
		"error":      fmt.Sprintf("%v", err),
	})
	return errorJSON(c, http.StatusInternalServerError, "internal_error", message)
}
