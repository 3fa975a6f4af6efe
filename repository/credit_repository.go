package repository

import (
	"context"
	"fmt"

	"seraphina/database"
	"seraphina/models"

	"github.com/jackc/pgx/v5"
)

// CreditRepository implements the CreditRepository interface
type CreditRepository struct {
	q queryable
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *database.DB) *CreditRepository {
	return &CreditRepository{q: db.Pool}
}

// newCreditRepositoryWithTx creates a new credit repository with a transaction
func newCreditRepositoryWithTx(tx queryable) *CreditRepository {
	return &CreditRepository{q: tx}
}

// Get retrieves a user's credit balance. An absent user is not an
// error: the zero-credit sentinel (nil LastUpdated) is returned instead.
func (r *CreditRepository) Get(ctx context.Context, userID string) (*models.UserCredits, error) {
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}

	query := `
		SELECT user_id, credits, last_updated
		FROM user_credits
		WHERE user_id = $1
	`

	var credits models.UserCredits
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&credits.UserID,
		&credits.Credits,
		&credits.LastUpdated,
	)

	if err == pgx.ErrNoRows {
		return &models.UserCredits{UserID: userID, Credits: 0, LastUpdated: nil}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credits for user %s: %w", userID, err)
	}

	return &credits, nil
}

// Put upserts a user's credit balance. Validation happens before any
// write so bad input never produces partial state.
func (r *CreditRepository) Put(ctx context.Context, userID string, credits *models.UserCredits) error {
	if userID == "" {
		return models.ErrInvalidUserID
	}
	if credits == nil || credits.Credits < 0 {
		return models.ErrInvalidCredits
	}

	query := `
		INSERT INTO user_credits (user_id, credits, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET credits = EXCLUDED.credits, last_updated = EXCLUDED.last_updated
	`

	if _, err := r.q.Exec(ctx, query, userID, credits.Credits, credits.LastUpdated); err != nil {
		return fmt.Errorf("failed to put credits for user %s: %w", userID, err)
	}

	return nil
}

// Delete removes a user's credit balance. Administrative cleanup only;
// nothing on the request path calls this.
func (r *CreditRepository) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return models.ErrInvalidUserID
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM user_credits WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete credits for user %s: %w", userID, err)
	}

	return nil
}
