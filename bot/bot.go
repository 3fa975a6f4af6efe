package bot

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"seraphina/bot/features/ask"
	"seraphina/bot/features/credits"
	"seraphina/bot/features/imagine"
	"seraphina/bot/features/selfie"
	"seraphina/cache"
	"seraphina/events"
	"seraphina/jobs"
	"seraphina/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token       string
	GuildID     string
	AdminUserID string
}

type Bot struct {
	config        Config
	session       *discordgo.Session
	creditService service.CreditService
	sessions      *cache.SessionCache
	responder     *Responder

	askFeature     *ask.Feature
	imagineFeature *imagine.Feature
	selfieFeature  *selfie.Feature
	creditsFeature *credits.Feature

	cleanupStop chan struct{}
}

// New creates the bot and its responder without opening the gateway
// connection. The responder is exposed before Start so the capability
// queues can be wired to it.
func New(config Config, creditService service.CreditService, sessions *cache.SessionCache, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	responder, err := NewResponder(&discordTransport{session: dg}, sessions, DefaultRetryPolicy, eventBus)
	if err != nil {
		return nil, err
	}

	return &Bot{
		config:        config,
		session:       dg,
		creditService: creditService,
		sessions:      sessions,
		responder:     responder,
		cleanupStop:   make(chan struct{}),
	}, nil
}

// Responder returns the delivery function target for the job queues
func (b *Bot) Responder() *Responder {
	return b.responder
}

// Start wires the features to the queues, opens the gateway connection
// and registers the slash commands.
func (b *Bot) Start(queues *jobs.Registry) error {
	b.askFeature = ask.New(b.creditService, queues, b.sessions)
	b.imagineFeature = imagine.New(b.creditService, queues, b.sessions)
	b.selfieFeature = selfie.New(b.creditService, queues, b.sessions)
	b.creditsFeature = credits.New(b.creditService, b.config.AdminUserID)

	b.session.AddHandler(b.handleCommands)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	// Periodic cleanup of session entries whose delivery never ran
	go b.sessions.StartCleanup(30*time.Minute, b.cleanupStop)

	log.Info("Bot connected and commands registered")

	return nil
}

func (b *Bot) Close() error {
	close(b.cleanupStop)
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "ask":
		b.askFeature.HandleCommand(s, i)
	case "imagine":
		b.imagineFeature.HandleCommand(s, i)
	case "selfie":
		b.selfieFeature.HandleCommand(s, i)
	case "checkcredits":
		b.creditsFeature.HandleCheckCommand(s, i)
	case "addcredits":
		b.creditsFeature.HandleAddCommand(s, i)
	}
}
