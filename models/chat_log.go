package models

import (
	"time"
)

// ChatLog represents one completed chat exchange
type ChatLog struct {
	ID            int64     `db:"id"`
	UserID        string    `db:"user_id"`
	OriginalQuery string    `db:"original_query"`
	Response      string    `db:"response"`
	CreatedAt     time.Time `db:"created_at"`
}
