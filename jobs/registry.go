package jobs

import (
	"context"
	"fmt"

	"seraphina/models"
)

// Registry maps capabilities to their queues. Construction verifies the
// wiring up front: every capability must have both a queue and a cost,
// so a misconfigured capability fails at startup instead of on the
// first user request.
type Registry struct {
	queues map[models.Capability]*Queue
}

// NewRegistry builds the capability registry from the configured queues
func NewRegistry(costs models.CostTable, queues ...*Queue) (*Registry, error) {
	if err := costs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cost table: %w", err)
	}

	byCapability := make(map[models.Capability]*Queue, len(queues))
	for _, q := range queues {
		if _, ok := byCapability[q.Capability()]; ok {
			return nil, fmt.Errorf("duplicate queue for capability %q", q.Capability())
		}
		byCapability[q.Capability()] = q
	}

	for _, capability := range models.AllCapabilities() {
		if _, ok := byCapability[capability]; !ok {
			return nil, fmt.Errorf("capability %q has no queue", capability)
		}
	}

	return &Registry{queues: byCapability}, nil
}

// Queue returns the queue serving a capability
func (r *Registry) Queue(capability models.Capability) (*Queue, error) {
	q, ok := r.queues[capability]
	if !ok {
		return nil, fmt.Errorf("no queue for capability %q", capability)
	}
	return q, nil
}

// Submit routes a job to its capability's queue
func (r *Registry) Submit(job models.Job) error {
	q, err := r.Queue(job.Capability)
	if err != nil {
		return err
	}
	return q.Submit(job)
}

// Start starts every queue
func (r *Registry) Start(ctx context.Context) error {
	for _, q := range r.queues {
		if err := q.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every queue, draining queued jobs
func (r *Registry) Stop() {
	for _, q := range r.queues {
		q.Stop()
	}
}
