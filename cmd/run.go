package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"seraphina/ai"
	"seraphina/bot"
	"seraphina/cache"
	"seraphina/config"
	"seraphina/database"
	"seraphina/events"
	"seraphina/images"
	"seraphina/jobs"
	"seraphina/models"
	"seraphina/repository"
	"seraphina/service"
	"seraphina/storage"
)

// lowBalanceThreshold is where the ledger starts warning about a user
// running dry.
const lowBalanceThreshold = 10

// subscribeLowBalanceWarnings logs users whose balance drops low enough
// that their next capability request is likely to be refused
func subscribeLowBalanceWarnings(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCreditChange, func(ctx context.Context, event events.Event) {
		change, ok := event.(events.CreditChangeEvent)
		if !ok {
			return
		}
		if change.ChangeAmount < 0 && change.CreditsAfter < lowBalanceThreshold {
			log.Printf("User %s is low on credits: %d remaining", change.UserID, change.CreditsAfter)
		}
	})

	bus.Subscribe(events.EventTypeUserSeeded, func(ctx context.Context, event events.Event) {
		if seeded, ok := event.(events.UserSeededEvent); ok {
			log.Printf("Seeded new user %s with %d credits", seeded.UserID, seeded.StartingCredits)
		}
	})
}

// subscribeJobAudit logs every failed job after its delivery was
// attempted. Credits are not refunded, so failures are worth a trace.
func subscribeJobAudit(bus *events.Bus) {
	bus.Subscribe(events.EventTypeJobFinished, func(ctx context.Context, event events.Event) {
		finished, ok := event.(events.JobFinishedEvent)
		if !ok {
			return
		}
		if !finished.Success {
			log.Printf("Job %s (%s) for user %s failed", finished.JobID, finished.Capability, finished.UserID)
		}
	})
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting seraphina bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeLowBalanceWarnings(eventBus)
	subscribeJobAudit(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize credit ledger
	creditService, err := service.NewCreditService(uowFactory, cfg.StartingCredits, cfg.CostTable())
	if err != nil {
		return fmt.Errorf("failed to initialize credit service: %w", err)
	}

	// Initialize providers
	log.Println("Initializing providers...")
	completer, err := ai.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	defer completer.Close()

	generator, err := images.NewClient(cfg.ImageAPIKey, cfg.ImageAPIBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize image provider: %w", err)
	}

	blobStore, err := storage.NewClient(cfg.B2KeyID, cfg.B2Key, cfg.B2BucketID, cfg.B2BucketName)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	// Initialize job processors
	completionProcessor := service.NewCompletionService(uowFactory, completer, 60*time.Second)
	imageProcessor := service.NewImageService(generator, blobStore, cfg.ImagesDir, 3*time.Minute)
	selfieProcessor := service.NewSelfieService(blobStore, cfg.SelfiesDir, 5*time.Minute, 30*time.Second)

	// Initialize session cache and Discord bot
	sessions := cache.NewSessionCache(cfg.SessionTTL)

	botConfig := bot.Config{
		Token:       cfg.DiscordToken,
		GuildID:     cfg.DiscordGuildID,
		AdminUserID: cfg.AdminUserID,
	}
	discordBot, err := bot.New(botConfig, creditService, sessions, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Initialize capability queues, delivering through the bot's responder
	log.Println("Initializing job queues...")
	deliver := discordBot.Responder().Deliver

	chatQueue, err := jobs.NewQueue(models.CapabilityChatCompletion, cfg.ChatConcurrency, completionProcessor, deliver)
	if err != nil {
		return fmt.Errorf("failed to create chat queue: %w", err)
	}
	imageQueue, err := jobs.NewQueue(models.CapabilityImageGeneration, cfg.ImageConcurrency, imageProcessor, deliver)
	if err != nil {
		return fmt.Errorf("failed to create image queue: %w", err)
	}
	selfieQueue, err := jobs.NewQueue(models.CapabilityImageLookup, cfg.SelfieConcurrency, selfieProcessor, deliver)
	if err != nil {
		return fmt.Errorf("failed to create selfie queue: %w", err)
	}

	registry, err := jobs.NewRegistry(cfg.CostTable(), chatQueue, imageQueue, selfieQueue)
	if err != nil {
		return fmt.Errorf("failed to build capability registry: %w", err)
	}

	queueCtx, cancelQueues := context.WithCancel(context.Background())
	defer cancelQueues()
	if err := registry.Start(queueCtx); err != nil {
		return fmt.Errorf("failed to start job queues: %w", err)
	}

	// Connect to Discord
	log.Println("Starting Discord bot...")
	if err := discordBot.Start(registry); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")

	// Close Discord bot connection first so no new jobs arrive
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	// Drain queued jobs before dropping the database
	registry.Stop()

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
