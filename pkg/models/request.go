package models

import "time"

// ChatRequest is one candidate turn of the interview conversation
type ChatRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid4"`
	Message       string `json:"message" validate:"required,max=4000"`
}

// DecisionRequest is the recruiter's verdict on a finished application
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

// ViolationRequest reports one accepted focus-loss event for an application
type ViolationRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid4"`
}

// CreateJobRequest is the recruiter payload for posting a job
type CreateJobRequest struct {
	Title              string   `json:"title" validate:"required,max=200"`
	Company            string   `json:"company_name" validate:"required,max=200"`
	Location           string   `json:"location" validate:"required,max=200"`
	SalaryMin          *int     `json:"salary_min" validate:"omitempty,min=0"`
	SalaryMax          *int     `json:"salary_max" validate:"omitempty,min=0"`
	Currency           string   `json:"currency" validate:"omitempty,len=3"`
	JobType            JobType  `json:"job_type" validate:"required,oneof=full_time part_time contract internship"`
	WorkMode           WorkMode `json:"work_mode" validate:"required,oneof=onsite remote hybrid"`
	MinExperienceYears int      `json:"min_experience_years" validate:"min=0,max=50"`
	Description        string   `json:"description" validate:"omitempty,max=20000"`
	PolicyDocURL       *string  `json:"policy_doc_url" validate:"omitempty,url"`
}

// ImportJobRequest asks the server to scrape a job posting URL and
// turn it into a draft posting
type ImportJobRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// CreateSlotRequest is the recruiter payload for an availability slot
type CreateSlotRequest struct {
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	MeetingLink *string   `json:"meeting_link" validate:"omitempty,url"`
}

// UpdateProfileRequest carries the candidate-editable profile fields
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}
