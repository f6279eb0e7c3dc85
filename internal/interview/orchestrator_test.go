package interview

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/platform"
	"hireflow/internal/proctor"
	"hireflow/internal/session"
	"hireflow/pkg/models"
)

// fakeBackend scripts the platform's behavior per call
type fakeBackend struct {
	applyFn      func(jobID string) (*models.ApplyResponse, error)
	chatFn       func(applicationID, message string) (*models.ChatResponse, error)
	jobs         map[string]models.Job
	applications []models.ApplicationSummary
	reports      []proctor.Report
}

func (f *fakeBackend) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	var out []models.Job
	for _, job := range f.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeBackend) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, &platform.APIError{StatusCode: http.StatusNotFound, Message: "Job not found"}
	}
	return &job, nil
}

func (f *fakeBackend) Apply(ctx context.Context, jobID string, resume *platform.ResumeUpload, useProfileResume bool) (*models.ApplyResponse, error) {
	return f.applyFn(jobID)
}

func (f *fakeBackend) Chat(ctx context.Context, applicationID, message string) (*models.ChatResponse, error) {
	return f.chatFn(applicationID, message)
}

func (f *fakeBackend) ReportViolation(ctx context.Context, applicationID string) (proctor.Report, error) {
	if len(f.reports) == 0 {
		return proctor.Report{}, nil
	}
	report := f.reports[0]
	f.reports = f.reports[1:]
	return report, nil
}

func (f *fakeBackend) ListApplications(ctx context.Context) ([]models.ApplicationSummary, error) {
	return f.applications, nil
}

func newFakeBackend() *fakeBackend {
	score := 72
	return &fakeBackend{
		jobs: map[string]models.Job{
			"job-1": {ID: "job-1", Title: "Backend Engineer", Company: "Acme Corp"},
		},
		applyFn: func(jobID string) (*models.ApplyResponse, error) {
			return &models.ApplyResponse{
				ApplicationID: "app-1",
				ATSScore:      &score,
				Reply:         "Tell me about yourself.",
			}, nil
		},
		chatFn: func(applicationID, message string) (*models.ChatResponse, error) {
			return &models.ChatResponse{Reply: "Interesting, go on."}, nil
		},
	}
}

func resumeUpload() *platform.ResumeUpload {
	return &platform.ResumeUpload{Filename: "resume.txt", Content: []byte("Go developer, five years")}
}

func TestFullApplicationFlow(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	assert.Equal(t, PhaseIdle, engine.Phase())

	job, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, PhaseAwaitingResume, engine.Phase())

	resp, err := engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)
	assert.Equal(t, "app-1", resp.ApplicationID)
	require.NotNil(t, resp.ATSScore)
	assert.Equal(t, 72, *resp.ATSScore)
	assert.Equal(t, PhaseInterviewing, engine.Phase())
	assert.Equal(t, "app-1", store.ApplicationID())

	msgs := store.Messages()
	require.Len(t, msgs, 3, "greeting, upload echo, opening question")
	assert.Equal(t, models.SenderCandidate, msgs[1].Sender)
	assert.Equal(t, "Uploaded: resume.txt", msgs[1].Text)
	assert.Equal(t, "Tell me about yourself.", msgs[2].Text)

	require.NoError(t, engine.SendMessage(ctx, "I build services in Go."))
	msgs = store.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, models.SenderCandidate, msgs[3].Sender)
	assert.Equal(t, "I build services in Go.", msgs[3].Text)
	assert.Equal(t, "Interesting, go on.", msgs[4].Text)
}

func TestDuplicateApplicationSurfacesServerDetail(t *testing.T) {
	backend := newFakeBackend()
	backend.applyFn = func(jobID string) (*models.ApplyResponse, error) {
		return nil, &platform.APIError{
			StatusCode: http.StatusConflict,
			Message:    "You have already applied to this job",
		}
	}
	engine := NewOrchestrator(backend, session.NewStore())
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)

	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	var dup *AlreadyAppliedError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "You have already applied to this job", dup.Detail)
	assert.Equal(t, PhaseAwaitingResume, engine.Phase(), "a rejected submission does not start the interview")
}

func TestDuplicateApplicationCaughtBeforeSubmit(t *testing.T) {
	backend := newFakeBackend()
	backend.applications = []models.ApplicationSummary{
		{ID: "app-0", JobID: "job-1", JobTitle: "Backend Engineer", Status: models.StatusInterviewing},
	}
	backend.applyFn = func(jobID string) (*models.ApplyResponse, error) {
		t.Fatal("a known duplicate must not reach the apply endpoint")
		return nil, nil
	}
	engine := NewOrchestrator(backend, session.NewStore())
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)

	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	var dup *AlreadyAppliedError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, PhaseAwaitingResume, engine.Phase())
}

func TestResumeRejectionSurfacesDetailInTranscript(t *testing.T) {
	backend := newFakeBackend()
	backend.applyFn = func(jobID string) (*models.ApplyResponse, error) {
		return nil, &platform.APIError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid file format",
		}
	}
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)

	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.Error(t, err)
	assert.Equal(t, PhaseAwaitingResume, engine.Phase(), "the candidate can retry with another file")

	msgs := store.Messages()
	require.Len(t, msgs, 2, "greeting plus the rejection detail")
	assert.Equal(t, models.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, "Invalid file format", msgs[1].Text)
}

func TestOverlappingSubmissionIsRefused(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)

	score := 72
	backend.applyFn = func(jobID string) (*models.ApplyResponse, error) {
		// A second submission arriving while this one is on the wire
		// must bounce off the in-flight guard.
		_, overlapping := engine.SubmitResume(ctx, resumeUpload(), false)
		assert.ErrorIs(t, overlapping, ErrSubmissionInFlight)
		return &models.ApplyResponse{ApplicationID: "app-1", ATSScore: &score, Reply: "Tell me about yourself."}, nil
	}

	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)
	assert.Equal(t, PhaseInterviewing, engine.Phase())

	// The guard clears once the submission settles.
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	assert.NotErrorIs(t, err, ErrSubmissionInFlight)
}

func TestStaleSubmissionIsReportedToCaller(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)

	score := 72
	backend.applyFn = func(jobID string) (*models.ApplyResponse, error) {
		engine.Reset()
		return &models.ApplyResponse{ApplicationID: "app-1", ATSScore: &score, Reply: "Tell me about yourself."}, nil
	}

	resp, err := engine.SubmitResume(ctx, resumeUpload(), false)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSubmissionSuperseded)
	assert.Empty(t, store.ApplicationID(), "the discarded application is never recorded")
	assert.Equal(t, PhaseIdle, engine.Phase())
}

func TestChatPreconditions(t *testing.T) {
	backend := newFakeBackend()
	backend.chatFn = func(applicationID, message string) (*models.ChatResponse, error) {
		t.Fatal("the chat endpoint must not be called without an application")
		return nil, nil
	}
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	assert.ErrorIs(t, engine.SendMessage(ctx, "hello"), ErrNoActiveJob)
	msgs := store.Messages()
	require.Len(t, msgs, 1, "exactly one guidance message")
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	assert.ErrorIs(t, engine.SendMessage(ctx, "hello"), ErrResumeRequired)
	msgs = store.Messages()
	require.Len(t, msgs, 2, "greeting plus one guidance message")
	assert.Equal(t, models.SenderAssistant, msgs[1].Sender)
	assert.Contains(t, msgs[1].Text, "résumé")
}

func TestChatFailureAppendsSingleFallback(t *testing.T) {
	backend := newFakeBackend()
	backend.chatFn = func(applicationID, message string) (*models.ChatResponse, error) {
		return nil, errors.New("upstream timeout")
	}
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	before := len(store.Messages())
	err = engine.SendMessage(ctx, "my answer")
	require.Error(t, err)

	msgs := store.Messages()
	require.Len(t, msgs, before+2, "the echoed answer plus exactly one fallback")
	assert.Equal(t, models.SenderCandidate, msgs[before].Sender)
	assert.Equal(t, fallbackReply, msgs[before+1].Text)
	assert.Equal(t, PhaseInterviewing, engine.Phase(), "a failed turn does not end the interview")
}

func TestStaleChatResponseIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	// The session resets while the chat request is in flight
	backend.chatFn = func(applicationID, message string) (*models.ChatResponse, error) {
		engine.Reset()
		return &models.ChatResponse{Reply: "late reply"}, nil
	}

	require.NoError(t, engine.SendMessage(ctx, "answer"))

	for _, msg := range store.Messages() {
		assert.NotEqual(t, "late reply", msg.Text, "a reply for a dead application never lands")
	}
	assert.Equal(t, PhaseIdle, engine.Phase())
}

func TestReplyAfterTerminationIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	backend.chatFn = func(applicationID, message string) (*models.ChatResponse, error) {
		engine.Terminate()
		return &models.ChatResponse{Reply: "late reply"}, nil
	}

	require.NoError(t, engine.SendMessage(ctx, "answer"))

	msgs := store.Messages()
	assert.Equal(t, terminatedNotice, msgs[len(msgs)-1].Text)
	assert.Equal(t, PhaseTerminated, engine.Phase())
	assert.ErrorIs(t, engine.SendMessage(ctx, "one more"), ErrInterviewNotActive)
}

func TestTerminateIsIdempotentAndOnlyFromInterviewing(t *testing.T) {
	backend := newFakeBackend()
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	engine.Terminate()
	assert.Equal(t, PhaseIdle, engine.Phase(), "nothing to terminate before a job is selected")

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	engine.Terminate()
	engine.Terminate()

	notices := 0
	for _, msg := range store.Messages() {
		if msg.Text == terminatedNotice {
			notices++
		}
	}
	assert.Equal(t, 1, notices)
}

func TestCannotSwitchJobsDuringInterview(t *testing.T) {
	backend := newFakeBackend()
	backend.jobs["job-2"] = models.Job{ID: "job-2", Title: "Data Engineer", Company: "Acme Corp"}
	engine := NewOrchestrator(backend, session.NewStore())
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	_, err = engine.SelectJob(ctx, "job-2")
	assert.Error(t, err)
	assert.Equal(t, PhaseInterviewing, engine.Phase())
}

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }
func (c *stubClock) AfterFunc(d time.Duration, f func()) proctor.Timer {
	return stubTimer{}
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return false }

// Three spaced focus losses walk the interview from live to terminated:
// each report carries the authority's counter, the third flips the
// terminated flag, and the engine refuses every send afterwards.
func TestFocusLossTerminationEndsInterview(t *testing.T) {
	backend := newFakeBackend()
	backend.reports = []proctor.Report{
		{Count: 1},
		{Count: 2},
		{Count: 3, Terminated: true},
	}
	store := session.NewStore()
	engine := NewOrchestrator(backend, store)
	ctx := context.Background()

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)
	require.Equal(t, PhaseInterviewing, engine.Phase())

	clock := &stubClock{now: time.Unix(1000, 0)}
	tracker := proctor.NewTracker(store.ApplicationID(), backend, clock, proctor.Config{
		Debounce:      2 * time.Second,
		TeardownDelay: 5 * time.Second,
	})
	tracker.OnTerminated = func(proctor.State) { engine.Terminate() }

	for i := 0; i < 3; i++ {
		tracker.HandleFocusLoss(ctx)
		clock.now = clock.now.Add(3 * time.Second)
	}

	assert.Equal(t, proctor.StatusTerminated, tracker.State().Status)
	assert.Equal(t, 3, tracker.State().Count)
	assert.Equal(t, PhaseTerminated, engine.Phase())
	assert.ErrorIs(t, engine.SendMessage(ctx, "hello?"), ErrInterviewNotActive)

	msgs := store.Messages()
	assert.Equal(t, models.SenderAssistant, msgs[len(msgs)-1].Sender, "the termination notice closes the transcript")
}

func TestComplete(t *testing.T) {
	backend := newFakeBackend()
	engine := NewOrchestrator(backend, session.NewStore())
	ctx := context.Background()

	assert.ErrorIs(t, engine.Complete(), ErrInterviewNotActive)

	_, err := engine.SelectJob(ctx, "job-1")
	require.NoError(t, err)
	_, err = engine.SubmitResume(ctx, resumeUpload(), false)
	require.NoError(t, err)

	require.NoError(t, engine.Complete())
	assert.Equal(t, PhaseCompleted, engine.Phase())
}
