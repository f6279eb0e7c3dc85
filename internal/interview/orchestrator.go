package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hireflow/internal/logging"
	"hireflow/internal/platform"
	"hireflow/internal/session"
	"hireflow/pkg/models"
)

// Phase is the candidate-side lifecycle of one application
type Phase string

const (
	// PhaseIdle means no job is selected
	PhaseIdle Phase = "idle"
	// PhaseAwaitingResume means a job is selected and the engine is
	// waiting for a résumé submission.
	PhaseAwaitingResume Phase = "awaiting_resume"
	// PhaseInterviewing means the conversational interview is live
	PhaseInterviewing Phase = "interviewing"
	// PhaseTerminated means the proctoring policy ended the interview
	PhaseTerminated Phase = "terminated"
	// PhaseCompleted means the candidate finished the interview
	PhaseCompleted Phase = "completed"
)

var (
	// ErrNoActiveJob is returned when an operation needs a selected job
	ErrNoActiveJob = errors.New("no job selected")
	// ErrResumeRequired is returned when chatting before a résumé is on file
	ErrResumeRequired = errors.New("a résumé must be submitted before the interview starts")
	// ErrInterviewNotActive is returned when the interview is over or
	// has not started.
	ErrInterviewNotActive = errors.New("interview is not active")
	// ErrMessageInFlight is returned when a send overlaps an
	// unanswered previous send.
	ErrMessageInFlight = errors.New("previous message is still being answered")
	// ErrSubmissionInFlight is returned when a résumé submission
	// overlaps an unfinished previous one.
	ErrSubmissionInFlight = errors.New("previous résumé submission is still in progress")
	// ErrSubmissionSuperseded is returned when the session was reset
	// while a résumé upload was in flight; the application was created
	// on the server but never recorded locally.
	ErrSubmissionSuperseded = errors.New("session changed during résumé submission")
)

// AlreadyAppliedError means the platform rejected a duplicate
// application for the same job. Detail carries the server's wording.
type AlreadyAppliedError struct {
	Detail string
}

func (e *AlreadyAppliedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "you have already applied to this job"
}

// fallbackReply is shown in place of the interviewer's answer when the
// chat request fails. Exactly one is appended per failed turn.
const fallbackReply = "Sorry, I ran into a problem processing that. Please send your answer again."

const terminatedNotice = "This interview has been terminated because focus was lost too many times. The application has been closed."

// Orchestrator drives one application end to end: job selection,
// résumé submission, the chat loop, and termination. All transcript
// mutations go through the session store; the platform backend is the
// sole authority for application state.
type Orchestrator struct {
	backend platform.Backend
	store   *session.Store
	logger  logging.Logger

	// OnPhaseChange, when set, fires on every phase transition. It
	// runs with the orchestrator lock held and must not call back in.
	OnPhaseChange func(Phase)

	mu             sync.Mutex
	phase          Phase
	chatInFlight   bool
	submitInFlight bool
}

// NewOrchestrator creates an orchestrator in the idle phase
func NewOrchestrator(backend platform.Backend, store *session.Store) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		store:   store,
		logger:  logging.GetGlobalLogger(),
		phase:   PhaseIdle,
	}
}

// Phase returns the current lifecycle phase
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// SelectJob fetches the job and starts a fresh application session for
// it. Any previous session state, including the transcript, is
// discarded; a live interview cannot be abandoned this way.
func (o *Orchestrator) SelectJob(ctx context.Context, jobID string) (*models.Job, error) {
	o.mu.Lock()
	if o.phase == PhaseInterviewing {
		o.mu.Unlock()
		return nil, fmt.Errorf("cannot switch jobs during a live interview")
	}
	o.mu.Unlock()

	job, err := o.backend.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.store.SelectJob(*job)
	o.setPhaseLocked(PhaseAwaitingResume)
	o.mu.Unlock()
	return job, nil
}

// SubmitResume submits the application with either an uploaded résumé
// or the profile résumé. On success the interview starts and the
// returned reply is the interviewer's opening question. A duplicate
// application surfaces as *AlreadyAppliedError with the server's
// wording intact; any other rejection detail is appended to the
// transcript as an assistant message and the error is also returned.
func (o *Orchestrator) SubmitResume(ctx context.Context, resume *platform.ResumeUpload, useProfileResume bool) (*models.ApplyResponse, error) {
	o.mu.Lock()
	if o.phase != PhaseAwaitingResume {
		phase := o.phase
		o.mu.Unlock()
		if phase == PhaseIdle {
			return nil, ErrNoActiveJob
		}
		return nil, fmt.Errorf("résumé already submitted for this application")
	}
	if o.submitInFlight {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.submitInFlight = true
	job := o.store.Job()
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitInFlight = false
		o.mu.Unlock()
	}()

	if job == nil {
		return nil, ErrNoActiveJob
	}

	// One application per (candidate, job): check the known application
	// list before attempting the upload so the common duplicate case
	// never reaches the wire. The server enforces the same rule, so a
	// stale or unavailable list still cannot slip a second application
	// through.
	if existing, err := o.backend.ListApplications(ctx); err == nil {
		for _, app := range existing {
			if app.JobID == job.ID {
				return nil, &AlreadyAppliedError{}
			}
		}
	} else {
		o.logger.Warn("Could not list applications for the duplicate check", map[string]interface{}{
			"error": err.Error(),
		})
	}

	resp, err := o.backend.Apply(ctx, job.ID, resume, useProfileResume)
	if err != nil {
		if platform.IsConflict(err) {
			apiErr := err.(*platform.APIError)
			return nil, &AlreadyAppliedError{Detail: apiErr.Message}
		}
		// A rejection with a detail message (bad file, validation)
		// lands in the transcript verbatim so the refusal stays part
		// of the conversation. The session remains in AwaitingResume
		// for a retry.
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.Message != "" {
			o.mu.Lock()
			if o.phase == PhaseAwaitingResume && o.store.Job() != nil && o.store.Job().ID == job.ID {
				o.store.AppendMessage(models.SenderAssistant, apiErr.Message)
			}
			o.mu.Unlock()
		}
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// The session may have been reset while the upload was in flight;
	// in that case the response belongs to a dead application.
	if o.phase != PhaseAwaitingResume || o.store.Job() == nil || o.store.Job().ID != job.ID {
		o.logger.Warn("Discarding apply response for a stale session", map[string]interface{}{
			"application_id": resp.ApplicationID,
		})
		return nil, ErrSubmissionSuperseded
	}

	o.store.RecordResumeSubmitted(resp.ApplicationID, resp.ATSScore)
	if resume != nil {
		o.store.AppendMessage(models.SenderCandidate, "Uploaded: "+resume.Filename)
	} else {
		o.store.AppendMessage(models.SenderCandidate, "Used the résumé from my profile.")
	}
	if resp.Reply != "" {
		o.store.AppendMessage(models.SenderAssistant, resp.Reply)
	}
	o.setPhaseLocked(PhaseInterviewing)

	o.logger.Info("Interview started", map[string]interface{}{
		"application_id": resp.ApplicationID,
		"job_id":         job.ID,
	})
	return resp, nil
}

// SendMessage sends one candidate turn. The candidate message is echoed
// into the transcript before the request goes out; the interviewer's
// reply is appended when it arrives. A reply that comes back after the
// session moved on to a different application, or after termination, is
// discarded. A failed request appends exactly one fallback reply.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	switch {
	case o.phase == PhaseIdle:
		// Precondition failures stay local: the remote chat endpoint is
		// never called without an application, and the refusal shows up
		// as a single assistant guidance message.
		o.store.AppendMessage(models.SenderAssistant, "Please pick a job posting before we talk.")
		o.mu.Unlock()
		return ErrNoActiveJob
	case o.phase == PhaseAwaitingResume:
		o.store.AppendMessage(models.SenderAssistant, "Please submit your résumé first, then we can start the interview.")
		o.mu.Unlock()
		return ErrResumeRequired
	case o.phase != PhaseInterviewing:
		o.mu.Unlock()
		return ErrInterviewNotActive
	case o.chatInFlight:
		o.mu.Unlock()
		return ErrMessageInFlight
	}

	applicationID := o.store.ApplicationID()
	o.chatInFlight = true
	o.store.AppendMessage(models.SenderCandidate, text)
	o.mu.Unlock()

	resp, err := o.backend.Chat(ctx, applicationID, text)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.chatInFlight = false

	// Stale-response guard: only apply the outcome if this answer still
	// belongs to the live application.
	if o.store.ApplicationID() != applicationID || o.phase != PhaseInterviewing {
		o.logger.Debug("Discarding chat response for a stale application", map[string]interface{}{
			"application_id": applicationID,
		})
		return nil
	}

	if err != nil {
		o.logger.Error("Chat request failed", map[string]interface{}{
			"application_id": applicationID,
			"error":          err.Error(),
		})
		o.store.AppendMessage(models.SenderAssistant, fallbackReply)
		return err
	}

	o.store.AppendMessage(models.SenderAssistant, resp.Reply)
	return nil
}

// Terminate moves a live interview to the terminated phase and appends
// the termination notice. Called when the proctoring tracker reports
// that the authority ended the interview. Terminating an already
// terminated or completed interview is a no-op.
func (o *Orchestrator) Terminate() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseInterviewing {
		return
	}
	o.store.AppendMessage(models.SenderAssistant, terminatedNotice)
	o.setPhaseLocked(PhaseTerminated)
}

// Complete marks the interview finished by the candidate
func (o *Orchestrator) Complete() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseInterviewing {
		return ErrInterviewNotActive
	}
	o.setPhaseLocked(PhaseCompleted)
	return nil
}

// Reset abandons the current session entirely
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.store.Reset()
	o.setPhaseLocked(PhaseIdle)
}

func (o *Orchestrator) setPhaseLocked(phase Phase) {
	if o.phase == phase {
		return
	}
	o.phase = phase
	if o.OnPhaseChange != nil {
		o.OnPhaseChange(phase)
	}
}
