package credits

import (
	"github.com/bwmarrin/discordgo"

	"seraphina/service"
)

type Feature struct {
	creditService service.CreditService
	adminUserID   string
}

func New(creditService service.CreditService, adminUserID string) *Feature {
	return &Feature{
		creditService: creditService,
		adminUserID:   adminUserID,
	}
}

// HandleCheckCommand handles the /checkcredits slash command
func (f *Feature) HandleCheckCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleCheckCredits(s, i)
}

// HandleAddCommand handles the /addcredits slash command
func (f *Feature) HandleAddCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleAddCredits(s, i)
}
