package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"seraphina/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processorFunc adapts a function to the JobProcessor interface
type processorFunc func(ctx context.Context, job models.Job) models.Outcome

func (f processorFunc) Process(ctx context.Context, job models.Job) models.Outcome {
	return f(ctx, job)
}

// outcomeCollector records delivered (job, outcome) pairs in order
type outcomeCollector struct {
	mu        sync.Mutex
	delivered []string
	outcomes  map[string]models.Outcome
}

func newOutcomeCollector() *outcomeCollector {
	return &outcomeCollector{outcomes: make(map[string]models.Outcome)}
}

func (c *outcomeCollector) deliver(ctx context.Context, job models.Job, outcome models.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, job.Payload)
	c.outcomes[job.ID] = outcome
}

func (c *outcomeCollector) payloads() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.delivered))
	copy(out, c.delivered)
	return out
}

func TestNewQueue_Validation(t *testing.T) {
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("ok")
	})
	deliver := func(ctx context.Context, job models.Job, outcome models.Outcome) {}

	_, err := NewQueue(models.CapabilityChatCompletion, 0, processor, deliver)
	assert.Error(t, err)

	_, err = NewQueue(models.CapabilityChatCompletion, 1, nil, deliver)
	assert.Error(t, err)

	_, err = NewQueue(models.CapabilityChatCompletion, 1, processor, nil)
	assert.Error(t, err)
}

func TestQueue_DeliversOutcomes(t *testing.T) {
	collector := newOutcomeCollector()
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("done: " + job.Payload)
	})

	queue, err := NewQueue(models.CapabilityChatCompletion, 2, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))

	job := models.NewJob("user-1", models.CapabilityChatCompletion, "hello")
	require.NoError(t, queue.Submit(job))

	queue.Stop()

	outcome, ok := collector.outcomes[job.ID]
	require.True(t, ok)
	assert.True(t, outcome.Success)
	assert.Equal(t, "done: hello", outcome.Content)
}

func TestQueue_FIFOAtConcurrencyOne(t *testing.T) {
	collector := newOutcomeCollector()
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome(job.Payload)
	})

	queue, err := NewQueue(models.CapabilityChatCompletion, 1, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))

	var want []string
	for i := 0; i < 50; i++ {
		payload := string(rune('a' + i%26))
		job := models.NewJob("user-1", models.CapabilityChatCompletion, payload)
		require.NoError(t, queue.Submit(job))
		want = append(want, payload)
	}

	queue.Stop()

	// A single worker completes jobs strictly in submission order
	assert.Equal(t, want, collector.payloads())
}

func TestQueue_ConcurrencyBound(t *testing.T) {
	const concurrency = 5

	var active, peak int64
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return models.SuccessOutcome("ok")
	})

	collector := newOutcomeCollector()
	queue, err := NewQueue(models.CapabilityImageGeneration, concurrency, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))

	for i := 0; i < 30; i++ {
		require.NoError(t, queue.Submit(models.NewJob("user-1", models.CapabilityImageGeneration, "p")))
	}

	queue.Stop()

	assert.Len(t, collector.payloads(), 30)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(concurrency))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(1))
}

func TestQueue_PanicBecomesFailureOutcome(t *testing.T) {
	collector := newOutcomeCollector()
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		if job.Payload == "boom" {
			panic("processor exploded")
		}
		return models.SuccessOutcome("ok")
	})

	queue, err := NewQueue(models.CapabilityChatCompletion, 1, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))

	bad := models.NewJob("user-1", models.CapabilityChatCompletion, "boom")
	good := models.NewJob("user-1", models.CapabilityChatCompletion, "fine")
	require.NoError(t, queue.Submit(bad))
	require.NoError(t, queue.Submit(good))

	queue.Stop()

	// The panic is delivered as a failure and the worker survives to
	// run the next job
	badOutcome, ok := collector.outcomes[bad.ID]
	require.True(t, ok)
	assert.False(t, badOutcome.Success)
	assert.Error(t, badOutcome.Err)

	goodOutcome, ok := collector.outcomes[good.ID]
	require.True(t, ok)
	assert.True(t, goodOutcome.Success)
}

func TestQueue_FailureOutcomePassedThrough(t *testing.T) {
	collector := newOutcomeCollector()
	providerErr := errors.New("provider down")
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.FailureOutcome(providerErr)
	})

	queue, err := NewQueue(models.CapabilityChatCompletion, 1, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))

	job := models.NewJob("user-1", models.CapabilityChatCompletion, "q")
	require.NoError(t, queue.Submit(job))

	queue.Stop()

	outcome := collector.outcomes[job.ID]
	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.Err, providerErr)
}

func TestQueue_SubmitAfterStop(t *testing.T) {
	collector := newOutcomeCollector()
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("ok")
	})

	queue, err := NewQueue(models.CapabilityChatCompletion, 1, processor, collector.deliver)
	require.NoError(t, err)
	require.NoError(t, queue.Start(context.Background()))
	queue.Stop()

	err = queue.Submit(models.NewJob("user-1", models.CapabilityChatCompletion, "late"))
	assert.Error(t, err)
}

// Submissions racing shutdown must get the refusal error, never a send
// on the closed job channel. Discord handler goroutines can still be in
// flight when Stop runs, so this path is reachable in production.
func TestQueue_SubmitRacingStop(t *testing.T) {
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("ok")
	})
	deliver := func(ctx context.Context, job models.Job, outcome models.Outcome) {}

	const rounds = 200
	const submitters = 8

	for round := 0; round < rounds; round++ {
		queue, err := NewQueue(models.CapabilityChatCompletion, 2, processor, deliver)
		require.NoError(t, err)
		require.NoError(t, queue.Start(context.Background()))

		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := 0; i < submitters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				// Accepted or refused are both fine; panicking is not
				_ = queue.Submit(models.NewJob("user-1", models.CapabilityChatCompletion, "racy"))
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			queue.Stop()
		}()

		close(start)
		wg.Wait()
	}
}

func TestRegistry_VerifiesWiring(t *testing.T) {
	costs := models.CostTable{
		models.CapabilityChatCompletion:  3,
		models.CapabilityImageGeneration: 10,
		models.CapabilityImageLookup:     5,
	}
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("ok")
	})
	deliver := func(ctx context.Context, job models.Job, outcome models.Outcome) {}

	chat, err := NewQueue(models.CapabilityChatCompletion, 1, processor, deliver)
	require.NoError(t, err)
	imagine, err := NewQueue(models.CapabilityImageGeneration, 5, processor, deliver)
	require.NoError(t, err)
	selfie, err := NewQueue(models.CapabilityImageLookup, 5, processor, deliver)
	require.NoError(t, err)

	// Missing queue fails construction
	_, err = NewRegistry(costs, chat, imagine)
	assert.Error(t, err)

	// Duplicate queue fails construction
	_, err = NewRegistry(costs, chat, chat, imagine, selfie)
	assert.Error(t, err)

	// Unpriced capability fails construction
	_, err = NewRegistry(models.CostTable{models.CapabilityChatCompletion: 3}, chat, imagine, selfie)
	assert.Error(t, err)

	registry, err := NewRegistry(costs, chat, imagine, selfie)
	require.NoError(t, err)

	q, err := registry.Queue(models.CapabilityImageGeneration)
	require.NoError(t, err)
	assert.Equal(t, models.CapabilityImageGeneration, q.Capability())

	_, err = registry.Queue(models.Capability("time-travel"))
	assert.Error(t, err)
}

func TestRegistry_SubmitRoutesByCapability(t *testing.T) {
	costs := models.CostTable{
		models.CapabilityChatCompletion:  3,
		models.CapabilityImageGeneration: 10,
		models.CapabilityImageLookup:     5,
	}
	processor := processorFunc(func(ctx context.Context, job models.Job) models.Outcome {
		return models.SuccessOutcome("ok")
	})

	chatCollector := newOutcomeCollector()
	imagineCollector := newOutcomeCollector()
	selfieCollector := newOutcomeCollector()

	chat, err := NewQueue(models.CapabilityChatCompletion, 1, processor, chatCollector.deliver)
	require.NoError(t, err)
	imagine, err := NewQueue(models.CapabilityImageGeneration, 5, processor, imagineCollector.deliver)
	require.NoError(t, err)
	selfie, err := NewQueue(models.CapabilityImageLookup, 5, processor, selfieCollector.deliver)
	require.NoError(t, err)

	registry, err := NewRegistry(costs, chat, imagine, selfie)
	require.NoError(t, err)

	require.NoError(t, registry.Start(context.Background()))
	require.NoError(t, registry.Submit(models.NewJob("user-1", models.CapabilityImageGeneration, "a fox")))
	registry.Stop()

	assert.Empty(t, chatCollector.payloads())
	assert.Equal(t, []string{"a fox"}, imagineCollector.payloads())
	assert.Empty(t, selfieCollector.payloads())
}
