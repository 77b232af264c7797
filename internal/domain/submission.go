package domain

import "time"

// SubmissionStatus tracks a journaled broadcast.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionTimeout   SubmissionStatus = "timeout"
)

// Submission is one journal entry: what was sent and how the engine answered.
type Submission struct {
	ID        string
	SessionID string
	Account   string
	Intent    TxIntent
	Status    SubmissionStatus
	TxHash    string
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
