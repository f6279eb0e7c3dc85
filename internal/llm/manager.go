package llm

import (
	"context"
	"fmt"
	"sync"

	"hireflow/internal/config"
	"hireflow/internal/logging"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// Manager manages LLM providers and their lifecycle. When the provider
// is unavailable the interview and scoring operations fall back to
// deterministic local behavior instead of failing, so the platform works
// without an API key.
type Manager struct {
	config   *config.Config
	factory  *Factory
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewFactory(cfg),
		logger:  logging.GetGlobalLogger(),
	}
}

// Start initializes the LLM manager and creates the provider
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{"provider": m.config.LLM.Provider})

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.provider = provider

	ctx, cancel := context.WithTimeout(context.Background(), m.config.LLM.Timeout)
	defer cancel()

	if err := m.provider.IsHealthy(ctx); err != nil {
		m.logger.Warn("LLM provider health check failed - falling back to deterministic interview mode", map[string]interface{}{
			"error": err.Error(),
		})
		m.healthy = false
		// Don't return error - allow server to start without LLM
	} else {
		m.healthy = true
		m.logger.Info("LLM manager started successfully", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
		})
	}

	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// IsHealthy reports whether a real provider is serving requests
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// InterviewReply generates the interviewer's next question
func (m *Manager) InterviewReply(ctx context.Context, job *models.Job, resumeText string, history []utils.ConversationEntry, userTurn string) (string, error) {
	provider, healthy := m.currentProvider()

	if healthy {
		reply, err := provider.InterviewReply(ctx, job, resumeText, history, userTurn)
		if err == nil {
			return reply, nil
		}
		m.logger.Warn("Interview reply failed; using canned question", map[string]interface{}{
			"error":     err.Error(),
			"job_title": job.Title,
		})
	}

	return CannedQuestion(job, countAssistantTurns(history)), nil
}

// ScoreResume rates a résumé against a job posting
func (m *Manager) ScoreResume(ctx context.Context, resumeText string, job *models.Job) (int, error) {
	provider, healthy := m.currentProvider()

	if healthy {
		score, err := provider.ScoreResume(ctx, resumeText, job)
		if err == nil {
			return score, nil
		}
		m.logger.Warn("Resume scoring failed; using heuristic score", map[string]interface{}{
			"error":     err.Error(),
			"job_title": job.Title,
		})
	}

	return HeuristicScore(resumeText, job), nil
}

// ExtractJob turns scraped posting content into a structured job draft.
// There is no offline fallback for extraction.
func (m *Manager) ExtractJob(ctx context.Context, content, url string) (*models.Job, error) {
	provider, healthy := m.currentProvider()

	if provider == nil {
		return nil, fmt.Errorf("LLM manager not started or provider not available")
	}
	if !healthy {
		return nil, fmt.Errorf("LLM provider is not available - check API key configuration (set LLM_API_KEY environment variable)")
	}

	return provider.ExtractJob(ctx, content, url)
}

func (m *Manager) currentProvider() (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.provider, m.healthy && m.provider != nil
}

func countAssistantTurns(history []utils.ConversationEntry) int {
	n := 0
	for _, entry := range history {
		if entry.Role == "assistant" {
			n++
		}
	}
	return n
}
