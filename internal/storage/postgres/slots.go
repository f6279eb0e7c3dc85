package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hireflow/pkg/models"
)

// SlotRepo persists recruiter interview-availability slots
type SlotRepo struct {
	db *DB
}

// NewSlotRepo creates a slot repository
func NewSlotRepo(db *DB) *SlotRepo {
	return &SlotRepo{db: db}
}

const slotColumns = `id, recruiter_id, starts_at, ends_at, status, candidate_id, meeting_link, created_at`

// Create inserts a slot
func (r *SlotRepo) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO schedule_slots (`+slotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		slot.ID, slot.RecruiterID, slot.StartsAt, slot.EndsAt, slot.Status,
		slot.CandidateID, slot.MeetingLink, slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

// GetByID returns one slot
func (r *SlotRepo) GetByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM schedule_slots WHERE id = $1`, id)
	return scanSlot(row)
}

// Update rewrites a slot's window and meeting link. Ownership is
// enforced in the query.
func (r *SlotRepo) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE schedule_slots
		SET starts_at = $2, ends_at = $3, meeting_link = $4
		WHERE id = $1 AND recruiter_id = $5`,
		slot.ID, slot.StartsAt, slot.EndsAt, slot.MeetingLink, slot.RecruiterID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a slot owned by the given recruiter
func (r *SlotRepo) Delete(ctx context.Context, id, recruiterID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM schedule_slots WHERE id = $1 AND recruiter_id = $2`, id, recruiterID)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRecruiter returns a recruiter's slots ordered by start time
func (r *SlotRepo) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.ScheduleSlot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+slotColumns+` FROM schedule_slots WHERE recruiter_id = $1 ORDER BY starts_at`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	slots := []models.ScheduleSlot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

func scanSlot(row pgx.Row) (*models.ScheduleSlot, error) {
	slot := &models.ScheduleSlot{}
	err := row.Scan(&slot.ID, &slot.RecruiterID, &slot.StartsAt, &slot.EndsAt, &slot.Status,
		&slot.CandidateID, &slot.MeetingLink, &slot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan slot: %w", err)
	}
	return slot, nil
}
