package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"hireflow/internal/config"
	"hireflow/internal/logging"
	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// InterviewReply generates the interviewer's next question for one
// application conversation.
func (cp *ClaudeProvider) InterviewReply(ctx context.Context, job *models.Job, resumeText string, history []utils.ConversationEntry, userTurn string) (string, error) {
	startTime := time.Now()

	messages := make([]anthropic.MessageParam, 0, len(history)+2)
	messages = append(messages, userMessage(cp.buildInterviewSystemPrompt(job, resumeText)))
	for _, entry := range history {
		if entry.Role == "assistant" {
			messages = append(messages, assistantMessage(entry.Content))
		} else {
			messages = append(messages, userMessage(entry.Content))
		}
	}
	if userTurn != "" {
		messages = append(messages, userMessage(userTurn))
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.config.LLM.Model),
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(cp.config.LLM.Temperature)),
		Messages:    messages,
	})
	if err != nil {
		return "", utils.NewLLMError(err.Error())
	}

	reply := responseText(response)
	if reply == "" {
		return "", fmt.Errorf("empty response from Claude")
	}

	cp.logger.Debug("Interview reply generated", map[string]interface{}{
		"job_title":       job.Title,
		"history_len":     len(history),
		"processing_time": time.Since(startTime),
		"provider":        "claude",
	})

	return reply, nil
}

// ScoreResume rates a résumé against a job posting on a 0-100 scale
func (cp *ClaudeProvider) ScoreResume(ctx context.Context, resumeText string, job *models.Job) (int, error) {
	// Truncate oversized résumés to fit token limits
	maxContentLength := cp.config.LLM.MaxTokens * 3
	if len(resumeText) > maxContentLength {
		resumeText = resumeText[:maxContentLength] + "..."
	}

	prompt := cp.buildScoringPrompt(resumeText, job)

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.config.LLM.Model),
		MaxTokens:   256,
		Temperature: anthropic.Float(0),
		Messages:    []anthropic.MessageParam{userMessage(prompt)},
	})
	if err != nil {
		return 0, utils.NewLLMError(err.Error())
	}

	var result struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSON(responseText(response))), &result); err != nil {
		return 0, utils.NewLLMError("failed to parse score response: "+err.Error())
	}

	return utils.ClampScore(result.Score), nil
}

// ExtractJob turns scraped posting content into a structured job draft
func (cp *ClaudeProvider) ExtractJob(ctx context.Context, content, url string) (*models.Job, error) {
	maxContentLength := cp.config.LLM.MaxTokens * 3
	if len(content) > maxContentLength {
		content = content[:maxContentLength] + "..."
		cp.logger.Debug("Content truncated to fit token limits", map[string]interface{}{"url": url})
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.config.LLM.Model),
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(0),
		Messages:    []anthropic.MessageParam{userMessage(cp.buildJobExtractionPrompt(content, url))},
	})
	if err != nil {
		return nil, utils.NewLLMError(err.Error())
	}

	var job models.Job
	if err := json.Unmarshal([]byte(extractJSON(responseText(response))), &job); err != nil {
		return nil, utils.NewLLMError("failed to parse job extraction response: "+err.Error())
	}
	if job.Title == "" || job.Company == "" {
		return nil, fmt.Errorf("extracted job is missing title or company")
	}

	return &job, nil
}

// IsHealthy checks if the Claude API is reachable
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("claude API key is not configured")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cp.config.LLM.Model),
		MaxTokens: 8,
		Messages:  []anthropic.MessageParam{userMessage("ping")},
	})
	if err != nil {
		return fmt.Errorf("claude health check failed: %w", err)
	}
	return nil
}

// GetProviderName returns the name of the provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}

func (cp *ClaudeProvider) buildInterviewSystemPrompt(job *models.Job, resumeText string) string {
	prompt := fmt.Sprintf(`You are a professional interviewer conducting a screening interview for the %s position at %s (%s, %s).

Ask one focused question at a time about the candidate's experience, skills and motivation relevant to this role. Keep each question under three sentences. Do not evaluate answers out loud and do not reveal any scoring. Begin by asking the candidate to introduce themselves.

Job description:
%s`, job.Title, job.Company, job.Location, job.WorkMode, job.Description)

	if resumeText != "" {
		maxContentLength := cp.config.LLM.MaxTokens * 3
		if len(resumeText) > maxContentLength {
			resumeText = resumeText[:maxContentLength] + "..."
		}
		prompt += "\n\nCandidate résumé:\n" + resumeText
	}
	return prompt
}

func (cp *ClaudeProvider) buildScoringPrompt(resumeText string, job *models.Job) string {
	return fmt.Sprintf(`You are an applicant tracking system. Rate how well the résumé below matches the job posting on a scale of 0 to 100, where 100 is a perfect match. Consider skills, experience level (minimum %d years required) and domain relevance.

Respond with ONLY a JSON object: {"score": <integer 0-100>}

Job: %s at %s
Location: %s
Description: %s

Résumé:
%s`, job.MinExperienceYears, job.Title, job.Company, job.Location, job.Description, resumeText)
}

func (cp *ClaudeProvider) buildJobExtractionPrompt(content, url string) string {
	return fmt.Sprintf(`You are a job posting analyzer. Extract structured job information from the provided content and return it as a valid JSON object with exactly these fields:

{
  "title": "string - the job title",
  "company_name": "string - the company name",
  "location": "string - city/state/country or 'Remote'",
  "salary_min": number or null,
  "salary_max": number or null,
  "currency": "string - ISO currency code, empty if unknown",
  "job_type": "one of full_time, part_time, contract, internship",
  "work_mode": "one of onsite, remote, hybrid",
  "min_experience_years": number - 0 if not specified,
  "description": "string - a 2-3 sentence summary"
}

Return ONLY the JSON object, no other text. The content is from %s:

%s`, url, content)
}

func userMessage(text string) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role: anthropic.MessageParamRoleUser,
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: text},
		}},
	}
}

func assistantMessage(text string) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role: anthropic.MessageParamRoleAssistant,
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: text},
		}},
	}
}

func responseText(response *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// extractJSON pulls the first JSON object out of a model response that
// may be wrapped in prose or code fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
