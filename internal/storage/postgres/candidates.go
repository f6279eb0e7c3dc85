package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hireflow/pkg/models"
)

// CandidateRepo persists candidate profiles. Identity comes from the
// bearer credential; rows are created lazily on first contact.
type CandidateRepo struct {
	db *DB
}

// NewCandidateRepo creates a candidate repository
func NewCandidateRepo(db *DB) *CandidateRepo {
	return &CandidateRepo{db: db}
}

// Ensure creates a profile row for the subject if one does not exist
func (r *CandidateRepo) Ensure(ctx context.Context, id, name string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO candidates (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("failed to ensure candidate: %w", err)
	}
	return nil
}

// GetProfile returns a candidate profile
func (r *CandidateRepo) GetProfile(ctx context.Context, id string) (*models.CandidateProfile, error) {
	p := &models.CandidateProfile{}
	var resumeFilename, photoURL *string

	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, email, resume_filename, photo_url
		FROM candidates WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &resumeFilename, &photoURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate profile: %w", err)
	}

	if resumeFilename != nil {
		p.HasResume = true
		p.ResumeFilename = *resumeFilename
	}
	if photoURL != nil {
		p.PhotoURL = *photoURL
	}
	return p, nil
}

// UpdateProfile updates the candidate-editable fields
func (r *CandidateRepo) UpdateProfile(ctx context.Context, id, name, email string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE candidates SET name = $2, email = $3 WHERE id = $1`, id, name, email)
	if err != nil {
		return fmt.Errorf("failed to update candidate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResume stores the profile résumé used by the apply shortcut
func (r *CandidateRepo) SetResume(ctx context.Context, id, filename, text string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE candidates SET resume_filename = $2, resume_text = $3 WHERE id = $1`, id, filename, text)
	if err != nil {
		return fmt.Errorf("failed to set candidate resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetResume returns the stored profile résumé, or ErrNotFound when the
// candidate has none on file.
func (r *CandidateRepo) GetResume(ctx context.Context, id string) (filename, text string, err error) {
	var f, t *string
	err = r.db.Pool.QueryRow(ctx,
		`SELECT resume_filename, resume_text FROM candidates WHERE id = $1`, id).Scan(&f, &t)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to get candidate resume: %w", err)
	}
	if f == nil || t == nil {
		return "", "", ErrNotFound
	}
	return *f, *t, nil
}

// SetPhoto stores the profile photo location
func (r *CandidateRepo) SetPhoto(ctx context.Context, id, url string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE candidates SET photo_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to set candidate photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
