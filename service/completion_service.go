package service

import (
	"context"
	"time"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

// completionService executes chat-completion jobs
type completionService struct {
	uowFactory UnitOfWorkFactory
	completer  ChatCompleter
	timeout    time.Duration
}

// NewCompletionService creates a new chat-completion job processor
func NewCompletionService(uowFactory UnitOfWorkFactory, completer ChatCompleter, timeout time.Duration) JobProcessor {
	return &completionService{
		uowFactory: uowFactory,
		completer:  completer,
		timeout:    timeout,
	}
}

// Process runs the provider call under a call-level timeout and records
// the exchange in the chat log. A provider failure or timeout becomes a
// failure outcome.
func (s *completionService) Process(ctx context.Context, job models.Job) models.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.completer.Complete(callCtx, job.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Chat completion failed: %v", err)
		return models.FailureOutcome(err)
	}

	// Transcript recording is best effort: a logging failure must not
	// turn a delivered completion into a user-visible error.
	if err := s.appendChatLog(ctx, job, response); err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Failed to append chat log: %v", err)
	}

	return models.SuccessOutcome(response)
}

func (s *completionService) appendChatLog(ctx context.Context, job models.Job, response string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	entry := &models.ChatLog{
		UserID:        job.UserID,
		OriginalQuery: job.Payload,
		Response:      response,
	}
	if err := uow.ChatLogRepository().Append(ctx, entry); err != nil {
		return err
	}

	return uow.Commit()
}
