package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/pkg/models"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "test-token", 5*time.Second), server
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Job{})
	})
	defer server.Close()

	_, err := client.ListJobs(context.Background(), models.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestListJobsEncodesFilter(t *testing.T) {
	var gotQuery string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Job{{ID: "job-1", Title: "Backend Engineer"}})
	})
	defer server.Close()

	jobs, err := client.ListJobs(context.Background(), models.JobFilter{
		Search:   "backend",
		Location: "Berlin",
		WorkMode: models.WorkModeRemote,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Contains(t, gotQuery, "search=backend")
	assert.Contains(t, gotQuery, "location=Berlin")
	assert.Contains(t, gotQuery, "work_mode=remote")
}

func TestApplyBuildsMultipart(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "job-1", r.FormValue("job_id"))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "resume.txt", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "Go developer", string(content))

		w.WriteHeader(http.StatusCreated)
		score := 72
		json.NewEncoder(w).Encode(models.ApplyResponse{
			ApplicationID: "app-1",
			ATSScore:      &score,
			Reply:         "First question",
		})
	})
	defer server.Close()

	resp, err := client.Apply(context.Background(), "job-1",
		&ResumeUpload{Filename: "resume.txt", Content: []byte("Go developer")}, false)
	require.NoError(t, err)
	assert.Equal(t, "app-1", resp.ApplicationID)
	require.NotNil(t, resp.ATSScore)
	assert.Equal(t, 72, *resp.ATSScore)
}

func TestApplyWithProfileResume(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("use_profile_resume"))
		_, _, err := r.FormFile("resume")
		assert.Error(t, err, "no file part when using the profile résumé")

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.ApplyResponse{ApplicationID: "app-1"})
	})
	defer server.Close()

	_, err := client.Apply(context.Background(), "job-1", nil, true)
	require.NoError(t, err)
}

func TestErrorDetailIsVerbatim(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{
			Error:   "already_applied",
			Message: "You have already applied to this job",
		})
	})
	defer server.Close()

	_, err := client.Apply(context.Background(), "job-1", nil, true)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "You have already applied to this job", apiErr.Message)
	assert.True(t, IsConflict(err))
}

func TestErrorDetailFallsBackToBody(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain text failure", http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.Chat(context.Background(), "app-1", "hello")
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "plain text failure", apiErr.Message)
	assert.False(t, IsConflict(err))
}

func TestReportViolation(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req models.ViolationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "app-1", req.ApplicationID)

		json.NewEncoder(w).Encode(models.ViolationResponse{Count: 3, Terminated: true})
	})
	defer server.Close()

	report, err := client.ReportViolation(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Count)
	assert.True(t, report.Terminated)
}

func TestChat(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/interview/chat", r.URL.Path)
		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "my answer", req.Message)

		json.NewEncoder(w).Encode(models.ChatResponse{Reply: "next question"})
	})
	defer server.Close()

	resp, err := client.Chat(context.Background(), "app-1", "my answer")
	require.NoError(t, err)
	assert.Equal(t, "next question", resp.Reply)
}
