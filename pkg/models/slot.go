package models

import "time"

// SlotStatus enumerates the lifecycle of an interview availability slot
type SlotStatus string

const (
	SlotOpen   SlotStatus = "open"
	SlotBooked SlotStatus = "booked"
)

// ScheduleSlot is a recruiter's interview availability window. Booking
// happens outside this service; recruiters only create, edit and delete
// slots. Editing or deleting a booked slot notifies the booked candidate.
type ScheduleSlot struct {
	ID          string     `json:"id"`
	RecruiterID string     `json:"recruiter_id"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Status      SlotStatus `json:"status"`
	CandidateID *string    `json:"candidate_id,omitempty"`
	MeetingLink *string    `json:"meeting_link,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Notification is a message queued for a candidate when a recruiter
// changes or cancels a slot they were booked into.
type Notification struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}
