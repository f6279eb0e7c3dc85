package llm

import (
	"fmt"
	"regexp"
	"strings"

	"hireflow/pkg/models"
	"hireflow/pkg/utils"
)

// Deterministic fallbacks used when no LLM provider is available. They
// keep the interview flow functional in development and test setups.

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z+#.\-]{2,}`)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"are": true, "our": true, "will": true, "have": true, "this": true,
	"that": true, "your": true, "from": true, "about": true, "who": true,
	"what": true, "work": true, "team": true, "role": true, "job": true,
}

// HeuristicScore computes a keyword-overlap ATS score between a résumé
// and a job posting. It is intentionally crude: the real score comes
// from the LLM provider when one is configured.
func HeuristicScore(resumeText string, job *models.Job) int {
	jobText := strings.ToLower(job.Title + " " + job.Description)
	keywords := map[string]bool{}
	for _, w := range wordPattern.FindAllString(jobText, -1) {
		if !stopWords[w] {
			keywords[w] = true
		}
	}
	if len(keywords) == 0 {
		return 50
	}

	resume := strings.ToLower(resumeText)
	resumeWords := map[string]bool{}
	for _, w := range wordPattern.FindAllString(resume, -1) {
		resumeWords[w] = true
	}

	matched := 0
	for w := range keywords {
		if resumeWords[w] {
			matched++
		}
	}

	return utils.ClampScore(matched * 100 / len(keywords))
}

var cannedQuestions = []string{
	"To begin, could you walk me through your background and what drew you to this role?",
	"Tell me about a project you are particularly proud of. What was your contribution?",
	"What has been the most difficult technical or professional challenge you have faced, and how did you handle it?",
	"How do you approach learning something entirely new when a task requires it?",
	"Describe a time you disagreed with a teammate or manager. How was it resolved?",
	"What are you looking for in your next position, and why does this one fit?",
	"That covers my questions. Is there anything you would like to ask about the role or the company?",
}

// CannedQuestion returns a deterministic interviewer question for the
// given turn number (0-based count of assistant questions asked so far).
func CannedQuestion(job *models.Job, turn int) string {
	if turn < 0 {
		turn = 0
	}
	if turn >= len(cannedQuestions) {
		return fmt.Sprintf("Thank you. We have everything we need regarding the %s position at %s; the team will follow up with next steps.", job.Title, job.Company)
	}
	return cannedQuestions[turn]
}
