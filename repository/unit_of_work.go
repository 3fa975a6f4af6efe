package repository

import (
	"context"
	"fmt"

	"seraphina/database"
	"seraphina/events"
	"seraphina/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db                *database.DB
	tx                pgx.Tx
	ctx               context.Context
	transactionalBus  *events.TransactionalBus
	creditRepo        service.CreditRepository
	creditHistoryRepo service.CreditHistoryRepository
	chatLogRepo       service.ChatLogRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.creditRepo = newCreditRepositoryWithTx(tx)
	u.creditHistoryRepo = newCreditHistoryRepositoryWithTx(tx)
	u.chatLogRepo = newChatLogRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// CreditRepository returns the credit repository for this unit of work
func (u *unitOfWork) CreditRepository() service.CreditRepository {
	if u.creditRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.creditRepo
}

// CreditHistoryRepository returns the credit history repository for this unit of work
func (u *unitOfWork) CreditHistoryRepository() service.CreditHistoryRepository {
	if u.creditHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.creditHistoryRepo
}

// ChatLogRepository returns the chat log repository for this unit of work
func (u *unitOfWork) ChatLogRepository() service.ChatLogRepository {
	if u.chatLogRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.chatLogRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
