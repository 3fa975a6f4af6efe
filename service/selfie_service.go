package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

// selfieService executes image-lookup jobs: pick a random file from the
// bucket directory and hand out a short-lived download URL.
type selfieService struct {
	store        BlobStore
	directory    string
	urlValidity  time.Duration
	timeout      time.Duration
	listInterval time.Duration

	mu        sync.Mutex
	fileNames []string
	listedAt  time.Time
}

// NewSelfieService creates a new image-lookup job processor
func NewSelfieService(store BlobStore, directory string, urlValidity, timeout time.Duration) JobProcessor {
	return &selfieService{
		store:       store,
		directory:   directory,
		urlValidity: urlValidity,
		timeout:     timeout,
		// The bucket listing changes rarely; refresh it hourly rather
		// than on every job.
		listInterval: time.Hour,
	}
}

func (s *selfieService) Process(ctx context.Context, job models.Job) models.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fileName, err := s.randomFileName(callCtx)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Selfie lookup failed: %v", err)
		return models.FailureOutcome(err)
	}

	url, err := s.store.PresignURL(callCtx, fileName, s.urlValidity)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":    job.ID,
			"userID":   job.UserID,
			"fileName": fileName,
		}).Errorf("Failed to presign selfie URL: %v", err)
		return models.FailureOutcome(err)
	}

	return models.SuccessOutcome(url)
}

// randomFileName picks a file from the cached bucket listing,
// refreshing the cache when it has gone stale.
func (s *selfieService) randomFileName(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.fileNames) == 0 || time.Since(s.listedAt) > s.listInterval {
		names, err := s.store.ListFileNames(ctx, s.directory+"/")
		if err != nil {
			return "", fmt.Errorf("failed to list bucket files: %w", err)
		}
		s.fileNames = names
		s.listedAt = time.Now()
	}

	if len(s.fileNames) == 0 {
		return "", fmt.Errorf("no images available in %s", s.directory)
	}

	return s.fileNames[rand.Intn(len(s.fileNames))], nil
}
