package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hireflow/pkg/models"
)

// Store is the single source of truth for one candidate application in
// progress: the selected job, whether a résumé is on file, the backend
// application ID, the ATS score, and the conversation transcript.
//
// The transcript is append-only; messages are never mutated or removed.
type Store struct {
	mu            sync.Mutex
	job           *models.Job
	resumeOnFile  bool
	applicationID string
	atsScore      *int
	messages      []models.Message
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{}
}

// SelectJob sets the active job and clears all per-application state.
// The transcript is re-seeded with a single assistant greeting that
// references the job title and company. Selecting the already-selected
// job resets the transcript the same way.
func (s *Store) SelectJob(job models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.job = &job
	s.resumeOnFile = false
	s.applicationID = ""
	s.atsScore = nil
	s.messages = nil

	greeting := fmt.Sprintf(
		"Hi! You're applying for the %s position at %s. Please upload your résumé, or use the one on your profile, to begin the interview.",
		job.Title, job.Company)
	s.appendLocked(models.SenderAssistant, greeting)
}

// RecordResumeSubmitted marks the résumé as on file and stores the
// application ID the backend assigned, plus the ATS score when one was
// computed. Calling this with no active job is a programming error.
func (s *Store) RecordResumeSubmitted(applicationID string, atsScore *int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		panic("session: RecordResumeSubmitted called with no active job")
	}

	s.resumeOnFile = true
	s.applicationID = applicationID
	if atsScore != nil {
		score := *atsScore
		s.atsScore = &score
	}
}

// AppendMessage appends one message to the transcript in arrival order
func (s *Store) AppendMessage(sender models.Sender, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(sender, text)
}

// Reset clears all fields, returning the store to its initial state
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.job = nil
	s.resumeOnFile = false
	s.applicationID = ""
	s.atsScore = nil
	s.messages = nil
}

// Job returns the active job, or nil when none is selected
func (s *Store) Job() *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return nil
	}
	job := *s.job
	return &job
}

// ApplicationID returns the backend-assigned application ID, empty
// until a résumé submission succeeded.
func (s *Store) ApplicationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applicationID
}

// ATSScore returns the recorded ATS score, nil until computed
func (s *Store) ATSScore() *int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.atsScore == nil {
		return nil
	}
	score := *s.atsScore
	return &score
}

// ResumeOnFile reports whether a résumé was submitted for the active job
func (s *Store) ResumeOnFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeOnFile
}

// Messages returns a copy of the transcript in insertion order
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)
	return messages
}

func (s *Store) appendLocked(sender models.Sender, text string) {
	s.messages = append(s.messages, models.Message{
		ID:     uuid.New().String(),
		Sender: sender,
		Text:   text,
		SentAt: time.Now(),
	})
}
