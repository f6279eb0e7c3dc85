package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hireflow/pkg/models"
)

// ApplicationRepo persists job applications. It is the single authority
// for the violation counter and the three-strike termination decision.
type ApplicationRepo struct {
	db *DB
}

// NewApplicationRepo creates an application repository
func NewApplicationRepo(db *DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

// Create inserts a new application. A second application for the same
// (candidate, job) pair returns ErrDuplicate.
func (r *ApplicationRepo) Create(ctx context.Context, app *models.Application, resumeText string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO applications (id, candidate_id, job_id, status, resume_filename, resume_text, ats_score, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.CandidateID, app.JobID, app.Status, app.ResumeFilename, resumeText, app.ATSScore, app.AppliedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// GetByID returns one application
func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	app := &models.Application{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, candidate_id, job_id, status, resume_filename, ats_score, violation_count, terminated, applied_at
		FROM applications WHERE id = $1`, id,
	).Scan(&app.ID, &app.CandidateID, &app.JobID, &app.Status, &app.ResumeFilename,
		&app.ATSScore, &app.ViolationCount, &app.Terminated, &app.AppliedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetResumeText returns the résumé text stored with an application
func (r *ApplicationRepo) GetResumeText(ctx context.Context, id string) (string, error) {
	var text string
	err := r.db.Pool.QueryRow(ctx, `SELECT resume_text FROM applications WHERE id = $1`, id).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get resume text: %w", err)
	}
	return text, nil
}

// ListByCandidate returns the candidate's applications, newest first,
// in the summary shape the listing endpoint exposes.
func (r *ApplicationRepo) ListByCandidate(ctx context.Context, candidateID string) ([]models.ApplicationSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT a.id, a.job_id, j.title, j.company_name, a.status, a.applied_at
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.candidate_id = $1
		ORDER BY a.applied_at DESC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	summaries := []models.ApplicationSummary{}
	for rows.Next() {
		var s models.ApplicationSummary
		if err := rows.Scan(&s.ID, &s.JobID, &s.JobTitle, &s.CompanyName, &s.Status, &s.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// RecordViolation atomically increments the violation counter and flips
// the application into its terminal state once the count reaches max.
// The counter never decreases and never moves past termination: once
// terminated, further reports return the frozen state unchanged.
func (r *ApplicationRepo) RecordViolation(ctx context.Context, id string, max int) (int, bool, error) {
	var count int
	var terminated bool

	err := r.db.Pool.QueryRow(ctx, `
		UPDATE applications
		SET violation_count = violation_count + 1,
		    terminated = violation_count + 1 >= $2,
		    status = CASE WHEN violation_count + 1 >= $2 THEN 'rejected' ELSE status END
		WHERE id = $1 AND NOT terminated
		RETURNING violation_count, terminated`, id, max,
	).Scan(&count, &terminated)

	if errors.Is(err, pgx.ErrNoRows) {
		// Either already terminated or missing; report the frozen state
		err = r.db.Pool.QueryRow(ctx,
			`SELECT violation_count, terminated FROM applications WHERE id = $1`, id,
		).Scan(&count, &terminated)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrNotFound
		}
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to record violation: %w", err)
	}

	return count, terminated, nil
}

// SetStatus updates the application status
func (r *ApplicationRepo) SetStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE applications SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
