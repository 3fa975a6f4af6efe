package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

// creditService implements the CreditService interface
type creditService struct {
	uowFactory      UnitOfWorkFactory
	startingCredits int64
	costs           models.CostTable

	// Per-user locks serialize read-modify-write cycles so two
	// concurrent deductions cannot both observe a stale sufficient
	// balance. Different users never contend.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewCreditService creates a new credit service. The cost table is
// validated up front so a missing or non-positive cost fails at startup
// rather than on first use.
func NewCreditService(uowFactory UnitOfWorkFactory, startingCredits int64, costs models.CostTable) (CreditService, error) {
	if startingCredits < 0 {
		return nil, models.ErrInvalidCredits
	}
	if err := costs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cost table: %w", err)
	}

	return &creditService{
		uowFactory:      uowFactory,
		startingCredits: startingCredits,
		costs:           costs,
		userLocks:       make(map[string]*sync.Mutex),
	}, nil
}

// userLock returns the mutex guarding a single user's ledger mutations
func (s *creditService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// FetchBalance returns the user's balance, lazily seeding the starting
// balance for never-seen users
func (s *creditService) FetchBalance(ctx context.Context, userID string) (*models.UserCredits, error) {
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credits, err := s.getOrSeed(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return credits, nil
}

// Deduct subtracts amount from the user's balance if it is covered.
// Returns false, leaving the balance untouched, when credits are
// insufficient.
func (s *creditService) Deduct(ctx context.Context, userID string, amount int64) (bool, error) {
	return s.deduct(ctx, userID, amount, nil)
}

// DeductForCapability deducts the capability's configured cost
func (s *creditService) DeductForCapability(ctx context.Context, userID string, capability models.Capability) (bool, error) {
	cost, err := s.costs.Cost(capability)
	if err != nil {
		return false, err
	}
	return s.deduct(ctx, userID, cost, map[string]any{
		"capability": string(capability),
	})
}

func (s *creditService) deduct(ctx context.Context, userID string, amount int64, metadata map[string]any) (bool, error) {
	if userID == "" {
		return false, models.ErrInvalidUserID
	}
	if amount < 0 {
		return false, models.ErrInvalidAmount
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credits, err := s.getOrSeed(ctx, uow, userID)
	if err != nil {
		return false, err
	}

	if credits.Credits < amount {
		log.WithFields(log.Fields{
			"userID": userID,
			"have":   credits.Credits,
			"need":   amount,
		}).Warn("Insufficient credits")

		// Commit anyway so a seed performed above survives the refusal
		if err := uow.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}

	before := credits.Credits
	now := time.Now().UTC()
	credits.Credits -= amount
	credits.LastUpdated = &now

	if err := uow.CreditRepository().Put(ctx, userID, credits); err != nil {
		return false, fmt.Errorf("failed to update credits: %w", err)
	}

	history := &models.CreditHistory{
		UserID:        userID,
		CreditsBefore: before,
		CreditsAfter:  credits.Credits,
		ChangeAmount:  -amount,
		Reason:        models.ChangeReasonCapabilityCost,
		Metadata:      metadata,
	}
	if err := RecordCreditChange(ctx, uow, history); err != nil {
		return false, fmt.Errorf("failed to record deduction: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// Add increments the user's balance. Amount must be positive.
func (s *creditService) Add(ctx context.Context, userID string, amount int64) error {
	if userID == "" {
		return models.ErrInvalidUserID
	}
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credits, err := s.getOrSeed(ctx, uow, userID)
	if err != nil {
		return err
	}

	before := credits.Credits
	now := time.Now().UTC()
	credits.Credits += amount
	credits.LastUpdated = &now

	if err := uow.CreditRepository().Put(ctx, userID, credits); err != nil {
		return fmt.Errorf("failed to update credits: %w", err)
	}

	history := &models.CreditHistory{
		UserID:        userID,
		CreditsBefore: before,
		CreditsAfter:  credits.Credits,
		ChangeAmount:  amount,
		Reason:        models.ChangeReasonAdminGrant,
	}
	if err := RecordCreditChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record grant: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Cost returns the configured cost for a capability
func (s *creditService) Cost(capability models.Capability) (int64, error) {
	return s.costs.Cost(capability)
}

// getOrSeed fetches the balance within the unit of work, seeding the
// starting balance for a never-seen user. The second fetch for the same
// user finds the persisted row and does not reseed.
func (s *creditService) getOrSeed(ctx context.Context, uow UnitOfWork, userID string) (*models.UserCredits, error) {
	credits, err := uow.CreditRepository().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credits: %w", err)
	}

	if credits.Seen() {
		return credits, nil
	}

	now := time.Now().UTC()
	credits = &models.UserCredits{
		UserID:      userID,
		Credits:     s.startingCredits,
		LastUpdated: &now,
	}

	if err := uow.CreditRepository().Put(ctx, userID, credits); err != nil {
		return nil, fmt.Errorf("failed to seed credits: %w", err)
	}

	history := &models.CreditHistory{
		UserID:        userID,
		CreditsBefore: 0,
		CreditsAfter:  s.startingCredits,
		ChangeAmount:  s.startingCredits,
		Reason:        models.ChangeReasonInitial,
	}
	if err := RecordCreditChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"credits": s.startingCredits,
	}).Info("Seeded starting credits for new user")

	return credits, nil
}
