package models

import "time"

// ApplicationStatus enumerates the lifecycle of a job application
type ApplicationStatus string

const (
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusAccepted     ApplicationStatus = "accepted"
	StatusRejected     ApplicationStatus = "rejected"
)

// Application is the record of one candidate's pursuit of one job.
// There is exactly one per (candidate, job) pair; the backend assigns
// the ID on the first résumé submission.
//
// ViolationCount and Terminated are authoritative here: the candidate
// engine keeps an optimistic local copy that is always overwritten by
// the values the server returns.
type Application struct {
	ID             string            `json:"id"`
	CandidateID    string            `json:"candidate_id"`
	JobID          string            `json:"job_id"`
	Status         ApplicationStatus `json:"status"`
	ResumeFilename string            `json:"resume_filename,omitempty"`
	ATSScore       *int              `json:"ats_score"` // 0-100, nil until computed
	ViolationCount int               `json:"violation_count"`
	Terminated     bool              `json:"terminated"`
	AppliedAt      time.Time         `json:"applied_at"`
}

// ApplicationSummary is the shape returned by the application listing
// endpoint, used by the candidate engine to detect "already applied".
type ApplicationSummary struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	JobTitle    string            `json:"job_title"`
	CompanyName string            `json:"company_name"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
}
