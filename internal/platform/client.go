package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hireflow/internal/proctor"
	"hireflow/pkg/models"
)

// Backend is everything the candidate-side engine needs from the
// platform: job discovery, application submission, the interview chat,
// and violation reporting.
type Backend interface {
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	Apply(ctx context.Context, jobID string, resume *ResumeUpload, useProfileResume bool) (*models.ApplyResponse, error)
	Chat(ctx context.Context, applicationID, message string) (*models.ChatResponse, error)
	ReportViolation(ctx context.Context, applicationID string) (proctor.Report, error)
	ListApplications(ctx context.Context) ([]models.ApplicationSummary, error)
}

// ResumeUpload is a résumé file attached to an application
type ResumeUpload struct {
	Filename string
	Content  []byte
}

// APIError is a non-2xx platform response. Message carries the
// server's error detail verbatim so callers can surface it unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform: %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether err is an APIError with status 409
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusConflict
}

// Client talks to the platform's HTTP API with a bearer token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a platform client. baseURL must not end in a slash.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListJobs fetches the job board, optionally filtered
func (c *Client) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Location != "" {
		query.Set("location", filter.Location)
	}
	if filter.WorkMode != "" {
		query.Set("work_mode", string(filter.WorkMode))
	}

	path := "/api/v1/jobs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var jobs []models.Job
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches one job by ID
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Apply submits an application for a job. Exactly one of resume or
// useProfileResume should be provided; the server rejects duplicates
// with a 409.
func (c *Client) Apply(ctx context.Context, jobID string, resume *ResumeUpload, useProfileResume bool) (*models.ApplyResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("job_id", jobID); err != nil {
		return nil, fmt.Errorf("failed to build apply request: %w", err)
	}
	if useProfileResume {
		if err := writer.WriteField("use_profile_resume", "true"); err != nil {
			return nil, fmt.Errorf("failed to build apply request: %w", err)
		}
	}
	if resume != nil {
		part, err := writer.CreateFormFile("resume", resume.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to build apply request: %w", err)
		}
		if _, err := part.Write(resume.Content); err != nil {
			return nil, fmt.Errorf("failed to build apply request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build apply request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/applications", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result models.ApplyResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat sends one candidate message and returns the interviewer's reply
func (c *Client) Chat(ctx context.Context, applicationID, message string) (*models.ChatResponse, error) {
	payload := models.ChatRequest{
		ApplicationID: applicationID,
		Message:       message,
	}

	var result models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/interview/chat", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportViolation records one focus-loss violation and returns the
// authoritative count and termination flag.
func (c *Client) ReportViolation(ctx context.Context, applicationID string) (proctor.Report, error) {
	payload := models.ViolationRequest{ApplicationID: applicationID}

	var result models.ViolationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/interview/violations", payload, &result); err != nil {
		return proctor.Report{}, err
	}
	return proctor.Report{Count: result.Count, Terminated: result.Terminated}, nil
}

// ListApplications fetches the caller's applications
func (c *Client) ListApplications(ctx context.Context) ([]models.ApplicationSummary, error) {
	var apps []models.ApplicationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read platform response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(data, resp.StatusCode),
		}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode platform response: %w", err)
	}
	return nil
}

// errorDetail pulls the human-readable message out of an error body,
// falling back to the raw body or the status text.
func errorDetail(data []byte, status int) string {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}
