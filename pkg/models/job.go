package models

import "time"

// WorkMode describes where the work happens
type WorkMode string

const (
	WorkModeOnsite WorkMode = "onsite"
	WorkModeRemote WorkMode = "remote"
	WorkModeHybrid WorkMode = "hybrid"
)

// JobType describes the employment arrangement
type JobType string

const (
	JobTypeFullTime JobType = "full_time"
	JobTypePartTime JobType = "part_time"
	JobTypeContract JobType = "contract"
	JobTypeIntern   JobType = "internship"
)

// Job represents a job posting on the board. Candidates only ever read
// jobs; creation and edits go through the recruiter endpoints.
type Job struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Company            string    `json:"company_name"`
	Location           string    `json:"location"`
	SalaryMin          *int      `json:"salary_min"`
	SalaryMax          *int      `json:"salary_max"`
	Currency           string    `json:"currency,omitempty"`
	JobType            JobType   `json:"job_type"`
	WorkMode           WorkMode  `json:"work_mode"`
	MinExperienceYears int       `json:"min_experience_years"`
	Description        string    `json:"description,omitempty"`
	PolicyDocURL       *string   `json:"policy_doc_url,omitempty"`
	CreatedBy          string    `json:"created_by,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// JobFilter narrows the public job board listing.
type JobFilter struct {
	Location string
	JobType  JobType
	WorkMode WorkMode
	Company  string
	Search   string
}
