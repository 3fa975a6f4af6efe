package service

import (
	"context"
	"fmt"

	"seraphina/events"
	"seraphina/models"
)

// RecordCreditChange records a credit history entry and emits the
// matching events. This is the single entry point for all credit
// changes in the system.
func RecordCreditChange(ctx context.Context, uow UnitOfWork, history *models.CreditHistory) error {
	if err := uow.CreditHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record credit history: %w", err)
	}

	// Emitted after the transaction commits
	uow.EventBus().Publish(events.CreditChangeEvent{
		UserID:        history.UserID,
		CreditsBefore: history.CreditsBefore,
		CreditsAfter:  history.CreditsAfter,
		ChangeAmount:  history.ChangeAmount,
		Reason:        history.Reason,
	})

	if history.Reason == models.ChangeReasonInitial {
		uow.EventBus().Publish(events.UserSeededEvent{
			UserID:          history.UserID,
			StartingCredits: history.CreditsAfter,
		})
	}

	return nil
}
