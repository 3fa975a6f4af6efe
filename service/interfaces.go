package service

import (
	"context"
	"time"

	"seraphina/events"
	"seraphina/models"
)

// CreditRepository defines the interface for the durable credit store.
// Pure CRUD; the business rules live in CreditService.
type CreditRepository interface {
	// Get retrieves a user's balance. Absent users yield the
	// zero-credit sentinel (nil LastUpdated), not an error.
	Get(ctx context.Context, userID string) (*models.UserCredits, error)

	// Put upserts a user's balance after validating it
	Put(ctx context.Context, userID string, credits *models.UserCredits) error

	// Delete removes a user's balance (administrative cleanup)
	Delete(ctx context.Context, userID string) error
}

// CreditHistoryRepository defines the interface for credit audit records
type CreditHistoryRepository interface {
	// Record creates a new credit history entry
	Record(ctx context.Context, history *models.CreditHistory) error

	// GetByUser returns credit history for a specific user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.CreditHistory, error)
}

// ChatLogRepository defines the interface for the chat transcript store
type ChatLogRepository interface {
	// Append records a completed chat exchange
	Append(ctx context.Context, entry *models.ChatLog) error

	// GetRecentByUser returns the most recent chat exchanges for a user
	GetRecentByUser(ctx context.Context, userID string, limit int) ([]*models.ChatLog, error)
}

// EventPublisher publishes events within a unit of work. Events are
// only emitted after the transaction commits.
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork provides transactional access to the repositories
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CreditRepository() CreditRepository
	CreditHistoryRepository() CreditHistoryRepository
	ChatLogRepository() ChatLogRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// CreditService defines the credit ledger operations. Deduct is the
// admission gate: every paid capability must deduct before queueing work.
type CreditService interface {
	// FetchBalance returns the user's balance, lazily seeding the
	// configured starting credits for never-seen users
	FetchBalance(ctx context.Context, userID string) (*models.UserCredits, error)

	// Deduct subtracts amount if the balance covers it. Returns false
	// without mutating anything when credits are insufficient.
	Deduct(ctx context.Context, userID string, amount int64) (bool, error)

	// DeductForCapability deducts the capability's configured cost
	DeductForCapability(ctx context.Context, userID string, capability models.Capability) (bool, error)

	// Add increments the user's balance. Amount must be positive.
	Add(ctx context.Context, userID string, amount int64) error

	// Cost returns the configured cost for a capability
	Cost(capability models.Capability) (int64, error)
}

// JobProcessor executes one admitted job for a capability. Provider
// failures are converted to failure outcomes, never returned as errors.
type JobProcessor interface {
	Process(ctx context.Context, job models.Job) models.Outcome
}

// ChatCompleter is the chat-completion provider call. Opaque to the
// queue; failures become failure outcomes, never worker crashes.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator is the image-generation provider call. Generate
// returns the provider-hosted URL of the rendered image; Fetch
// downloads the bytes behind it for backup.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BlobStore abstracts the backup bucket: durable uploads, directory
// listings and short-lived download URLs.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
	ListFileNames(ctx context.Context, prefix string) ([]string, error)
	PresignURL(ctx context.Context, fileName string, validFor time.Duration) (string, error)
}
