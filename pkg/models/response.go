package models

import "time"

// ApplyResponse is returned by the résumé submission endpoint. Reply is
// the interviewer's first question; ATSScore is nil when scoring was
// skipped or failed.
type ApplyResponse struct {
	ApplicationID string `json:"application_id"`
	ATSScore      *int   `json:"ats_score"`
	Reply         string `json:"reply"`
}

// ChatResponse is the interviewer's reply to one candidate turn
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ViolationResponse carries the authoritative violation state after a
// report. Count always reflects the server-side counter, which is
// non-decreasing; Terminated is the terminal three-strike decision.
type ViolationResponse struct {
	Count      int  `json:"count"`
	Terminated bool `json:"terminated"`
}

// ImportJobResponse acknowledges an accepted import task
type ImportJobResponse struct {
	ProcessID string `json:"process_id"`
	Status    string `json:"status"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
