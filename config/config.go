package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"seraphina/models"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string
	AdminUserID    string

	// Database configuration
	DatabaseURL string

	// Provider configuration
	GeminiAPIKey    string
	GeminiModel     string
	ImageAPIKey     string
	ImageAPIBaseURL string

	// Blob storage configuration
	B2KeyID      string
	B2Key        string
	B2BucketID   string
	B2BucketName string
	ImagesDir    string
	SelfiesDir   string

	// Ledger configuration
	StartingCredits     int64
	ChatCompletionCost  int64
	ImageGenerationCost int64
	ImageLookupCost     int64

	// Queue configuration
	ChatConcurrency   int
	ImageConcurrency  int
	SelfieConcurrency int

	// Session cache configuration
	SessionTTL time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// CostTable builds the capability cost table from the configured costs
func (c *Config) CostTable() models.CostTable {
	return models.CostTable{
		models.CapabilityChatCompletion:  c.ChatCompletionCost,
		models.CapabilityImageGeneration: c.ImageGenerationCost,
		models.CapabilityImageLookup:     c.ImageLookupCost,
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),
		AdminUserID:    os.Getenv("ADMIN_USER_ID"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Providers
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		ImageAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ImageAPIBaseURL: os.Getenv("IMAGE_API_BASE_URL"),

		// Blob storage
		B2KeyID:      os.Getenv("B2_APPLICATION_KEY_ID"),
		B2Key:        os.Getenv("B2_APPLICATION_KEY"),
		B2BucketID:   os.Getenv("B2_BUCKET_ID"),
		B2BucketName: os.Getenv("B2_BUCKET_NAME"),
		ImagesDir:    "images",
		SelfiesDir:   "GALHL",

		// Ledger defaults
		StartingCredits:     250,
		ChatCompletionCost:  3,
		ImageGenerationCost: 10,
		ImageLookupCost:     5,

		// Queue defaults
		ChatConcurrency:   1,
		ImageConcurrency:  5,
		SelfieConcurrency: 5,

		// Sessions older than this are swept; delivery normally clears
		// them within seconds
		SessionTTL: time.Hour,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if dir := os.Getenv("IMAGES_DIRECTORY"); dir != "" {
		config.ImagesDir = dir
	}
	if dir := os.Getenv("SELFIES_DIRECTORY"); dir != "" {
		config.SelfiesDir = dir
	}

	// Override defaults if environment variables are set
	overrideInt64(&config.StartingCredits, "STARTING_CREDITS")
	overrideInt64(&config.ChatCompletionCost, "CHAT_COMPLETION_COST")
	overrideInt64(&config.ImageGenerationCost, "IMAGE_GENERATION_COST")
	overrideInt64(&config.ImageLookupCost, "IMAGE_LOOKUP_COST")
	overrideInt(&config.ChatConcurrency, "CHAT_QUEUE_CONCURRENCY")
	overrideInt(&config.ImageConcurrency, "IMAGE_QUEUE_CONCURRENCY")
	overrideInt(&config.SelfieConcurrency, "SELFIE_QUEUE_CONCURRENCY")

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		if config.ImageAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		if config.B2KeyID == "" || config.B2Key == "" {
			return nil, fmt.Errorf("B2_APPLICATION_KEY_ID and B2_APPLICATION_KEY are required")
		}
		if config.B2BucketID == "" || config.B2BucketName == "" {
			return nil, fmt.Errorf("B2_BUCKET_ID and B2_BUCKET_NAME are required")
		}
	}

	return config, nil
}

func overrideInt64(target *int64, envVar string) {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideInt(target *int, envVar string) {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}
