package repository

import (
	"context"
	"fmt"

	"seraphina/database"
	"seraphina/models"
)

// ChatLogRepository implements the ChatLogRepository interface
type ChatLogRepository struct {
	q queryable
}

// NewChatLogRepository creates a new chat log repository
func NewChatLogRepository(db *database.DB) *ChatLogRepository {
	return &ChatLogRepository{q: db.Pool}
}

// newChatLogRepositoryWithTx creates a new chat log repository with a transaction
func newChatLogRepositoryWithTx(tx queryable) *ChatLogRepository {
	return &ChatLogRepository{q: tx}
}

// Append records a completed chat exchange
func (r *ChatLogRepository) Append(ctx context.Context, entry *models.ChatLog) error {
	if entry.UserID == "" {
		return models.ErrInvalidUserID
	}

	query := `
		INSERT INTO chat_logs (user_id, original_query, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.OriginalQuery,
		entry.Response,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append chat log for user %s: %w", entry.UserID, err)
	}

	return nil
}

// GetRecentByUser returns the most recent chat exchanges for a user
func (r *ChatLogRepository) GetRecentByUser(ctx context.Context, userID string, limit int) ([]*models.ChatLog, error) {
	query := `
		SELECT id, user_id, original_query, response, created_at
		FROM chat_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat logs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var logs []*models.ChatLog
	for rows.Next() {
		var entry models.ChatLog
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.OriginalQuery,
			&entry.Response,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat log: %w", err)
		}
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat logs: %w", err)
	}

	return logs, nil
}
