package selfie

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"seraphina/bot/common"
	"seraphina/cache"
	"seraphina/models"
)

func (f *Feature) handleSelfie(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user := common.InteractionUser(i)
	if user == nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	ok, err := f.creditService.DeductForCapability(ctx, user.ID, models.CapabilityImageLookup)
	if err != nil {
		log.Errorf("Error deducting credits for user %s: %v", user.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !ok {
		common.RespondWithError(s, i, "Insufficient credits for a selfie.")
		return
	}

	if err := f.sessions.Record(user.ID, cache.Entry{
		ChannelID: i.ChannelID,
		GuildID:   i.GuildID,
	}); err != nil {
		log.Errorf("Error recording session for user %s: %v", user.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	job := models.NewJob(user.ID, models.CapabilityImageLookup, "")
	if err := f.queues.Submit(job); err != nil {
		log.Errorf("Error submitting selfie job %s: %v", job.ID, err)
		f.sessions.Clear(user.ID)
		common.RespondWithError(s, i, "Seraphina is busy right now. Please try again shortly.")
		return
	}

	err = common.RespondWithContent(s, i, "Say cheese! Your selfie is on the way.", true)
	if err != nil {
		log.Errorf("Error acknowledging selfie command: %v", err)
	}

	log.WithFields(log.Fields{
		"jobID":      job.ID,
		"userID":     user.ID,
		"capability": job.Capability,
	}).Info("Queued job")
}
