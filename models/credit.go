package models

import (
	"time"
)

// UserCredits represents a user's credit balance
type UserCredits struct {
	UserID      string     `db:"user_id"`
	Credits     int64      `db:"credits"`
	LastUpdated *time.Time `db:"last_updated"`
}

// Seen reports whether this balance has ever been persisted.
// The store returns a zero-credit sentinel with a nil timestamp for
// users it has never stored.
func (c *UserCredits) Seen() bool {
	return c.LastUpdated != nil
}
