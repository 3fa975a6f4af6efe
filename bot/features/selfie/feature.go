package selfie

import (
	"github.com/bwmarrin/discordgo"

	"seraphina/cache"
	"seraphina/jobs"
	"seraphina/service"
)

type Feature struct {
	creditService service.CreditService
	queues        *jobs.Registry
	sessions      *cache.SessionCache
}

func New(creditService service.CreditService, queues *jobs.Registry, sessions *cache.SessionCache) *Feature {
	return &Feature{
		creditService: creditService,
		queues:        queues,
		sessions:      sessions,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleSelfie(s, i)
}
