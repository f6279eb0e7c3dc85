package models

import "time"

// Sender identifies who authored a transcript message
type Sender string

const (
	SenderCandidate Sender = "candidate"
	SenderAssistant Sender = "assistant"
)

// Message is one turn of the interview transcript. The transcript is
// append-only and lives only for the duration of one candidate session;
// the server keeps its own conversation history for LLM context.
type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}
