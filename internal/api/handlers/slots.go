package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hireflow/internal/api/middleware"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
)

// ListSlotsHandler handles GET /api/v1/slots for the recruiter's own slots
func ListSlotsHandler(slots *postgres.SlotRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := slots.ListByRecruiter(c.Request().Context(), middleware.UserID(c))
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to list slots", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to list slots")
		}
		return c.JSON(http.StatusOK, list)
	}
}

// CreateSlotHandler handles POST /api/v1/slots
func CreateSlotHandler(slots *postgres.SlotRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.CreateSlotRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		slot := &models.ScheduleSlot{
			ID:          uuid.New().String(),
			RecruiterID: middleware.UserID(c),
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Status:      models.SlotOpen,
			MeetingLink: req.MeetingLink,
			CreatedAt:   time.Now(),
		}
		if err := slots.Create(c.Request().Context(), slot); err != nil {
			logging.GetGlobalLogger().Error("Failed to create slot", map[string]interface{}{
				"request_id": requestID(c),
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to create slot")
		}
		return c.JSON(http.StatusCreated, slot)
	}
}

// UpdateSlotHandler handles PUT /api/v1/slots/:id. Rescheduling a slot
// a candidate is booked into queues a notification for them.
func UpdateSlotHandler(slots *postgres.SlotRepo, notifications *postgres.NotificationRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()
		ctx := c.Request().Context()

		var req models.CreateSlotRequest
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "validation_failed", "Request validation failed: "+err.Error())
		}

		current, err := loadOwnSlot(c, slots)
		if err != nil {
			return err
		}

		current.StartsAt = req.StartsAt
		current.EndsAt = req.EndsAt
		current.MeetingLink = req.MeetingLink

		if err := slots.Update(ctx, current); err != nil {
			logger.Error("Failed to update slot", map[string]interface{}{
				"request_id": reqID,
				"slot_id":    current.ID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to update slot")
		}

		if current.Status == models.SlotBooked && current.CandidateID != nil {
			notifyBookedCandidate(ctx, notifications, *current.CandidateID,
				fmt.Sprintf("Your interview slot was rescheduled to %s.", req.StartsAt.Format(time.RFC1123)))
		}

		return c.JSON(http.StatusOK, current)
	}
}

// DeleteSlotHandler handles DELETE /api/v1/slots/:id, notifying a
// booked candidate that their slot was cancelled.
func DeleteSlotHandler(slots *postgres.SlotRepo, notifications *postgres.NotificationRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		current, err := loadOwnSlot(c, slots)
		if err != nil {
			return err
		}

		if err := slots.Delete(ctx, current.ID, middleware.UserID(c)); err != nil {
			logging.GetGlobalLogger().Error("Failed to delete slot", map[string]interface{}{
				"request_id": requestID(c),
				"slot_id":    current.ID,
				"error":      err.Error(),
			})
			return errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to delete slot")
		}

		if current.Status == models.SlotBooked && current.CandidateID != nil {
			notifyBookedCandidate(ctx, notifications, *current.CandidateID,
				fmt.Sprintf("Your interview slot on %s was cancelled.", current.StartsAt.Format(time.RFC1123)))
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// loadOwnSlot fetches the slot in :id and checks recruiter ownership.
// On failure it has already written the error response.
func loadOwnSlot(c echo.Context, slots *postgres.SlotRepo) (*models.ScheduleSlot, error) {
	slot, err := slots.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, postgres.ErrNotFound) {
		return nil, errorJSON(c, http.StatusNotFound, "not_found", "Slot not found")
	}
	if err != nil {
		logging.GetGlobalLogger().Error("Failed to load slot", map[string]interface{}{
			"request_id": requestID(c),
			"slot_id":    c.Param("id"),
			"error":      err.Error(),
		})
		return nil, errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to load slot")
	}
	if slot.RecruiterID != middleware.UserID(c) {
		return nil, errorJSON(c, http.StatusNotFound, "not_found", "Slot not found")
	}
	return slot, nil
}

// notifyBookedCandidate is best effort: a failed notification never
// fails the slot operation itself.
func notifyBookedCandidate(ctx context.Context, notifications *postgres.NotificationRepo, candidateID, text string) {
	if err := notifications.Create(ctx, candidateID, text); err != nil {
		logging.GetGlobalLogger().Warn("Failed to queue slot notification", map[string]interface{}{
			"candidate_id": candidateID,
			"error":        err.Error(),
		})
	}
}
