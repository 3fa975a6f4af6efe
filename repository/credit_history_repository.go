package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"seraphina/database"
	"seraphina/models"
)

// CreditHistoryRepository implements the CreditHistoryRepository interface
type CreditHistoryRepository struct {
	q queryable
}

// NewCreditHistoryRepository creates a new credit history repository
func NewCreditHistoryRepository(db *database.DB) *CreditHistoryRepository {
	return &CreditHistoryRepository{q: db.Pool}
}

// newCreditHistoryRepositoryWithTx creates a new credit history repository with a transaction
func newCreditHistoryRepositoryWithTx(tx queryable) *CreditHistoryRepository {
	return &CreditHistoryRepository{q: tx}
}

// Record creates a new credit history entry
func (r *CreditHistoryRepository) Record(ctx context.Context, history *models.CreditHistory) error {
	if history == nil {
		return fmt.Errorf("history entry cannot be nil")
	}
	if history.UserID == "" {
		return models.ErrInvalidUserID
	}

	metadataJSON, err := json.Marshal(history.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal history metadata: %w", err)
	}

	query := `
		INSERT INTO credit_history
		(user_id, credits_before, credits_after, change_amount, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.UserID,
		history.CreditsBefore,
		history.CreditsAfter,
		history.ChangeAmount,
		history.Reason,
		metadataJSON,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record credit history for user %s: %w", history.UserID, err)
	}

	return nil
}

// GetByUser returns credit history for a specific user, newest first
func (r *CreditHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.CreditHistory, error) {
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}

	query := `
		SELECT id, user_id, credits_before, credits_after, change_amount, reason, metadata, created_at
		FROM credit_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history for user %s: %w", userID, err)
	}
	defer rows.Close()

	var histories []*models.CreditHistory
	for rows.Next() {
		var history models.CreditHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.CreditsBefore,
			&history.CreditsAfter,
			&history.ChangeAmount,
			&history.Reason,
			&metadataJSON,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal history metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit history: %w", err)
	}

	return histories, nil
}
