package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hireflow/pkg/models"
)

// JobRepo persists job postings
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a job repository
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `id, title, company_name, location, salary_min, salary_max, currency,
	job_type, work_mode, min_experience_years, description, policy_doc_url, created_by, created_at`

// Create inserts a job posting
func (r *JobRepo) Create(ctx context.Context, job *models.Job) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		job.ID, job.Title, job.Company, job.Location, job.SalaryMin, job.SalaryMax, job.Currency,
		job.JobType, job.WorkMode, job.MinExperienceYears, job.Description, job.PolicyDocURL,
		job.CreatedBy, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetByID returns one job posting
func (r *JobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// Update replaces the mutable fields of a posting. Only the recruiter
// who created the job may edit it.
func (r *JobRepo) Update(ctx context.Context, job *models.Job) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE jobs
		SET title = $2, company_name = $3, location = $4, salary_min = $5, salary_max = $6,
		    currency = $7, job_type = $8, work_mode = $9, min_experience_years = $10,
		    description = $11, policy_doc_url = $12
		WHERE id = $1 AND created_by = $13`,
		job.ID, job.Title, job.Company, job.Location, job.SalaryMin, job.SalaryMax,
		job.Currency, job.JobType, job.WorkMode, job.MinExperienceYears,
		job.Description, job.PolicyDocURL, job.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a posting owned by the given recruiter
func (r *JobRepo) Delete(ctx context.Context, id, recruiterID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND created_by = $2`, id, recruiterID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns postings matching the filter, newest first
func (r *JobRepo) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	var conditions []string
	var args []interface{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", filter.Location)
	}
	if filter.JobType != "" {
		add("job_type = $%d", filter.JobType)
	}
	if filter.WorkMode != "" {
		add("work_mode = $%d", filter.WorkMode)
	}
	if filter.Company != "" {
		add("company_name ILIKE '%%' || $%d || '%%'", filter.Company)
	}
	if filter.Search != "" {
		add("(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", filter.Search)
		// second placeholder reuses the same arg index
		conditions[len(conditions)-1] = fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')",
			len(args), len(args))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.SalaryMin, &job.SalaryMax,
		&job.Currency, &job.JobType, &job.WorkMode, &job.MinExperienceYears, &job.Description,
		&job.PolicyDocURL, &job.CreatedBy, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}
