package testutil

import (
	"time"

	"seraphina/models"
)

// CreateTestCredits creates a persisted-looking balance with default values
func CreateTestCredits(userID string) *models.UserCredits {
	now := time.Now().UTC()
	return &models.UserCredits{
		UserID:      userID,
		Credits:     250,
		LastUpdated: &now,
	}
}

// CreateTestCreditsWithBalance creates a balance with a specific amount
func CreateTestCreditsWithBalance(userID string, credits int64) *models.UserCredits {
	c := CreateTestCredits(userID)
	c.Credits = credits
	return c
}

// CreateTestCreditHistory creates a credit history entry with default values
func CreateTestCreditHistory(userID string, reason models.ChangeReason) *models.CreditHistory {
	return &models.CreditHistory{
		UserID:        userID,
		CreditsBefore: 250,
		CreditsAfter:  247,
		ChangeAmount:  -3,
		Reason:        reason,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestCreditHistoryWithAmounts creates a credit history with specific amounts
func CreateTestCreditHistoryWithAmounts(userID string, before, after, change int64, reason models.ChangeReason) *models.CreditHistory {
	history := CreateTestCreditHistory(userID, reason)
	history.CreditsBefore = before
	history.CreditsAfter = after
	history.ChangeAmount = change
	return history
}

// CreateTestChatLog creates a chat log entry with default values
func CreateTestChatLog(userID string) *models.ChatLog {
	return &models.ChatLog{
		UserID:        userID,
		OriginalQuery: "why is the sky blue",
		Response:      "Rayleigh scattering, mostly.",
	}
}
