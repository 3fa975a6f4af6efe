package credits

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"seraphina/bot/common"
)

func (f *Feature) handleCheckCredits(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user := common.InteractionUser(i)
	if user == nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	credits, err := f.creditService.FetchBalance(ctx, user.ID)
	if err != nil {
		log.Errorf("Error fetching credits for user %s: %v", user.ID, err)
		common.RespondWithError(s, i, "An error occurred while executing the command.")
		return
	}

	message := fmt.Sprintf("You have **%s credits**.", common.FormatCredits(credits.Credits))
	if err := common.RespondWithContent(s, i, message, true); err != nil {
		log.Errorf("Error responding to checkcredits command: %v", err)
	}
}

func (f *Feature) handleAddCredits(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user := common.InteractionUser(i)
	if user == nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	if user.ID != f.adminUserID {
		common.RespondWithError(s, i, "You do not have permission to use this command.")
		return
	}

	var target *discordgo.User
	var amount int64
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "user":
			target = opt.UserValue(s)
		case "credits":
			amount = opt.IntValue()
		}
	}

	if target == nil {
		common.RespondWithError(s, i, "A target user is required.")
		return
	}

	if err := f.creditService.Add(ctx, target.ID, amount); err != nil {
		log.Errorf("Error adding %d credits to user %s: %v", amount, target.ID, err)
		common.RespondWithError(s, i, "Error executing command")
		return
	}

	log.WithFields(log.Fields{
		"adminID":  user.ID,
		"targetID": target.ID,
		"amount":   amount,
	}).Info("Granted credits")

	message := fmt.Sprintf("Added **%s credits** to %s.", common.FormatCredits(amount), target.Username)
	if err := common.RespondWithContent(s, i, message, false); err != nil {
		log.Errorf("Error responding to addcredits command: %v", err)
	}
}
