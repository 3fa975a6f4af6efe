package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

var fileNameStrip = regexp.MustCompile(`[^\w\s-]`)

// imageService executes image-generation jobs: render via the provider,
// then back the result up to the bucket so the delivered URL outlives
// the provider's short-lived hosting.
type imageService struct {
	generator ImageGenerator
	store     BlobStore
	directory string
	timeout   time.Duration
}

// NewImageService creates a new image-generation job processor
func NewImageService(generator ImageGenerator, store BlobStore, directory string, timeout time.Duration) JobProcessor {
	return &imageService{
		generator: generator,
		store:     store,
		directory: directory,
		timeout:   timeout,
	}
}

func (s *imageService) Process(ctx context.Context, job models.Job) models.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	providerURL, err := s.generator.Generate(callCtx, job.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Image generation failed: %v", err)
		return models.FailureOutcome(err)
	}

	durableURL, err := s.backup(callCtx, providerURL, job.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Image backup failed: %v", err)
		return models.FailureOutcome(err)
	}

	return models.SuccessOutcome(durableURL)
}

// backup fetches the rendered image and uploads it under a name derived
// from the prompt.
func (s *imageService) backup(ctx context.Context, providerURL, prompt string) (string, error) {
	data, err := s.generator.Fetch(ctx, providerURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch generated image: %w", err)
	}

	name := fmt.Sprintf("%s/%s_%d.png", s.directory, sanitizeFileName(prompt), time.Now().UnixMilli())

	url, err := s.store.Upload(ctx, name, "image/png", data)
	if err != nil {
		return "", fmt.Errorf("failed to upload image backup: %w", err)
	}

	return url, nil
}

func sanitizeFileName(prompt string) string {
	cleaned := fileNameStrip.ReplaceAllString(prompt, "")
	return strings.Join(strings.Fields(cleaned), "_")
}
