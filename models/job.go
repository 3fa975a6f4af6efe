package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is one admitted unit of work for a capability queue. By the time a
// Job exists, its cost has already been deducted; the queue never
// re-checks or refunds credit.
type Job struct {
	ID          string
	UserID      string
	Capability  Capability
	Payload     string
	SubmittedAt time.Time
}

// NewJob constructs an admitted job for a capability.
func NewJob(userID string, capability Capability, payload string) Job {
	return Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Capability:  capability,
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}
}

// Outcome is the result of executing a job's worker function.
type Outcome struct {
	Success bool
	// Content holds the success payload: completion text for chat, a
	// durable URL for image capabilities.
	Content string
	// Err holds the failure cause when Success is false. Never shown to
	// users verbatim.
	Err error
}

// SuccessOutcome wraps a worker result.
func SuccessOutcome(content string) Outcome {
	return Outcome{Success: true, Content: content}
}

// FailureOutcome wraps a worker error.
func FailureOutcome(err error) Outcome {
	return Outcome{Success: false, Err: err}
}
