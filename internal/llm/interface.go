package llm

import (
	"context"

	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// Provider defines the interface for LLM providers backing the
// interview conversation, ATS scoring and job import extraction.
type Provider interface {
	// InterviewReply generates the interviewer's next question given the
	// candidate's résumé and the conversation so far. An empty history
	// produces the opening question.
	InterviewReply(ctx context.Context, job *models.Job, resumeText string, history []utils.ConversationEntry, userTurn string) (string, error)

	// ScoreResume rates a résumé against a job posting on a 0-100 scale
	ScoreResume(ctx context.Context, resumeText string, job *models.Job) (int, error)

	// ExtractJob turns scraped posting content into a structured job draft
	ExtractJob(ctx context.Context, content, url string) (*models.Job, error)

	// IsHealthy checks if the provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the provider
	GetProviderName() string
}
