package ask

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"seraphina/bot/common"
	"seraphina/cache"
	"seraphina/models"
)

func (f *Feature) handleAsk(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user := common.InteractionUser(i)
	if user == nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "A query is required.")
		return
	}
	query := options[0].StringValue()
	if query == "" {
		common.RespondWithError(s, i, "A query is required.")
		return
	}

	// Admission: the cost is deducted before the job is queued, and is
	// not refunded if the job later fails
	ok, err := f.creditService.DeductForCapability(ctx, user.ID, models.CapabilityChatCompletion)
	if err != nil {
		log.Errorf("Error deducting credits for user %s: %v", user.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !ok {
		common.RespondWithError(s, i, "You do not have enough credits to perform this action.")
		return
	}

	if err := f.sessions.Record(user.ID, cache.Entry{
		ChannelID:     i.ChannelID,
		GuildID:       i.GuildID,
		OriginalQuery: query,
	}); err != nil {
		log.Errorf("Error recording session for user %s: %v", user.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	job := models.NewJob(user.ID, models.CapabilityChatCompletion, query)
	if err := f.queues.Submit(job); err != nil {
		log.Errorf("Error submitting chat job %s: %v", job.ID, err)
		f.sessions.Clear(user.ID)
		common.RespondWithError(s, i, "Seraphina is busy right now. Please try again shortly.")
		return
	}

	err = common.RespondWithContent(s, i, "Your query has been queued. Seraphina will respond here shortly.", true)
	if err != nil {
		log.Errorf("Error acknowledging ask command: %v", err)
	}

	log.WithFields(log.Fields{
		"jobID":      job.ID,
		"userID":     user.ID,
		"capability": job.Capability,
	}).Info("Queued job")
}
