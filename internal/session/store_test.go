package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/pkg/models"
)

func testJob() models.Job {
	return models.Job{
		ID:      "job-1",
		Title:   "Backend Engineer",
		Company: "Acme Corp",
	}
}

func TestSelectJobSeedsGreeting(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)
	assert.Contains(t, msgs[0].Text, "Backend Engineer")
	assert.Contains(t, msgs[0].Text, "Acme Corp")

	require.NotNil(t, store.Job())
	assert.Equal(t, "job-1", store.Job().ID)
	assert.False(t, store.ResumeOnFile())
	assert.Empty(t, store.ApplicationID())
	assert.Nil(t, store.ATSScore())
}

func TestSelectJobResetsPreviousSession(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())

	score := 72
	store.RecordResumeSubmitted("app-1", &score)
	store.AppendMessage(models.SenderCandidate, "hello")
	store.AppendMessage(models.SenderAssistant, "first question")

	other := testJob()
	other.ID = "job-2"
	other.Title = "Data Engineer"
	store.SelectJob(other)

	msgs := store.Messages()
	require.Len(t, msgs, 1, "transcript is re-seeded with only the greeting")
	assert.Contains(t, msgs[0].Text, "Data Engineer")
	assert.False(t, store.ResumeOnFile())
	assert.Empty(t, store.ApplicationID())
	assert.Nil(t, store.ATSScore())
}

func TestReselectingSameJobResets(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())
	store.AppendMessage(models.SenderCandidate, "hi")

	store.SelectJob(testJob())
	assert.Len(t, store.Messages(), 1)
}

func TestRecordResumeSubmitted(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())

	score := 85
	store.RecordResumeSubmitted("app-9", &score)

	assert.True(t, store.ResumeOnFile())
	assert.Equal(t, "app-9", store.ApplicationID())
	require.NotNil(t, store.ATSScore())
	assert.Equal(t, 85, *store.ATSScore())

	// Mutating the caller's score afterwards must not leak in
	score = 1
	assert.Equal(t, 85, *store.ATSScore())
}

func TestRecordResumeSubmittedWithoutScore(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())

	store.RecordResumeSubmitted("app-9", nil)
	assert.True(t, store.ResumeOnFile())
	assert.Nil(t, store.ATSScore())
}

func TestTranscriptIsAppendOnlyAndOrdered(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())

	store.AppendMessage(models.SenderCandidate, "answer one")
	store.AppendMessage(models.SenderAssistant, "question two")
	store.AppendMessage(models.SenderCandidate, "answer two")

	msgs := store.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "answer one", msgs[1].Text)
	assert.Equal(t, "question two", msgs[2].Text)
	assert.Equal(t, "answer two", msgs[3].Text)

	// The returned slice is a copy
	msgs[1].Text = "tampered"
	assert.Equal(t, "answer one", store.Messages()[1].Text)
}

func TestReset(t *testing.T) {
	store := NewStore()
	store.SelectJob(testJob())
	store.RecordResumeSubmitted("app-1", nil)

	store.Reset()

	assert.Nil(t, store.Job())
	assert.False(t, store.ResumeOnFile())
	assert.Empty(t, store.ApplicationID())
	assert.Empty(t, store.Messages())
}
