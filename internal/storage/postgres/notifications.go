package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hireflow/pkg/models"
)

// NotificationRepo queues candidate notifications, currently produced
// when a recruiter edits or cancels a booked slot.
type NotificationRepo struct {
	db *DB
}

// NewNotificationRepo creates a notification repository
func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts a notification for a candidate
func (r *NotificationRepo) Create(ctx context.Context, candidateID, text string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, candidate_id, text, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), candidateID, text, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListByCandidate returns a candidate's notifications, newest first
func (r *NotificationRepo) ListByCandidate(ctx context.Context, candidateID string) ([]models.Notification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, candidate_id, text, read, created_at
		FROM notifications WHERE candidate_id = $1
		ORDER BY created_at DESC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.CandidateID, &n.Text, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
