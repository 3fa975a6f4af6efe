package models

import (
	"time"
)

// ChangeReason represents the kind of credit mutation
type ChangeReason string

const (
	ChangeReasonInitial        ChangeReason = "initial"
	ChangeReasonCapabilityCost ChangeReason = "capability_cost"
	ChangeReasonAdminGrant     ChangeReason = "admin_grant"
)

// CreditHistory represents a historical credit change
type CreditHistory struct {
	ID            int64          `db:"id"`
	UserID        string         `db:"user_id"`
	CreditsBefore int64          `db:"credits_before"`
	CreditsAfter  int64          `db:"credits_after"`
	ChangeAmount  int64          `db:"change_amount"`
	Reason        ChangeReason   `db:"reason"`
	Metadata      map[string]any `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
}
