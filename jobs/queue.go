package jobs

import (
	"context"
	"fmt"
	"sync"

	"seraphina/models"
	"seraphina/service"

	log "github.com/sirupsen/logrus"
)

// defaultBacklog bounds how many admitted jobs can wait per capability
// before submissions are refused.
const defaultBacklog = 1024

// DeliverFunc receives every finished job exactly once, success or not
type DeliverFunc func(ctx context.Context, job models.Job, outcome models.Outcome)

// Queue runs admitted jobs for a single capability on a fixed pool of
// workers. Jobs are dispatched in submission order; at concurrency 1
// that order is also the completion order.
type Queue struct {
	capability  models.Capability
	concurrency int
	processor   service.JobProcessor
	deliver     DeliverFunc

	jobs chan models.Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewQueue creates a queue for one capability
func NewQueue(capability models.Capability, concurrency int, processor service.JobProcessor, deliver DeliverFunc) (*Queue, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("queue for %q needs concurrency >= 1, got %d", capability, concurrency)
	}
	if processor == nil {
		return nil, fmt.Errorf("queue for %q has no processor", capability)
	}
	if deliver == nil {
		return nil, fmt.Errorf("queue for %q has no delivery function", capability)
	}

	return &Queue{
		capability:  capability,
		concurrency: concurrency,
		processor:   processor,
		deliver:     deliver,
		jobs:        make(chan models.Job, defaultBacklog),
	}, nil
}

// Capability returns the capability this queue serves
func (q *Queue) Capability() models.Capability {
	return q.capability
}

// Start spawns the worker pool. Workers exit when the context is
// canceled or Stop closes the queue.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return fmt.Errorf("queue for %q already started", q.capability)
	}
	q.started = true

	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	log.WithFields(log.Fields{
		"capability":  q.capability,
		"concurrency": q.concurrency,
	}).Info("Started job queue")

	return nil
}

// Submit enqueues an admitted job. It returns immediately; the result
// reaches the user through the delivery function. Submissions are
// refused once the backlog is full or the queue has stopped.
//
// The mutex stays held across the send: Stop closes q.jobs under the
// same mutex, so a submission racing shutdown gets the refusal error
// instead of a send on a closed channel.
func (q *Queue) Submit(job models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return fmt.Errorf("queue for %q is stopped", q.capability)
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		log.WithFields(log.Fields{
			"capability": q.capability,
			"jobID":      job.ID,
		}).Warn("Job queue backlog full, refusing submission")
		return fmt.Errorf("queue for %q is full", q.capability)
	}
}

// Stop refuses further submissions, drains queued jobs and waits for
// the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()

	log.WithField("capability", q.capability).Info("Stopped job queue")
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(ctx, job)
		}
	}
}

// run executes one job and hands its outcome to delivery exactly once.
// A panicking processor is converted to a failure outcome so one bad
// job cannot take a worker down.
func (q *Queue) run(ctx context.Context, job models.Job) {
	outcome := q.process(ctx, job)

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"capability": q.capability,
				"jobID":      job.ID,
				"panic":      r,
			}).Error("Delivery panicked")
		}
	}()
	q.deliver(ctx, job, outcome)
}

func (q *Queue) process(ctx context.Context, job models.Job) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"capability": q.capability,
				"jobID":      job.ID,
				"panic":      r,
			}).Error("Job processor panicked")
			outcome = models.FailureOutcome(fmt.Errorf("job processor panicked: %v", r))
		}
	}()

	return q.processor.Process(ctx, job)
}
