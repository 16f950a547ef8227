// Package background delivers submission events off the request path on a bounded
// worker pool.
package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"swipr-api/internal/config"
	"swipr-api/internal/events"
	"swipr-api/internal/logging"
)

// Dispatcher configuration limits
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256

	MinWorkers   = 1
	MinQueueSize = 1

	MaxWorkers   = 64
	MaxQueueSize = 10000

	// closeTimeout bounds how long Close waits for queued events to drain
	closeTimeout = 10 * time.Second
)

// Delivery outcomes reported to the Recorder
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

var (
	ErrQueueFull  = errors.New("event queue is full")
	ErrNotRunning = errors.New("event dispatcher is not running")
)

// Recorder counts event deliveries by outcome
type Recorder interface {
	RecordEvent(eventType, outcome string)
}

// Dispatcher implements events.Publisher. Publish only enqueues; workers hand each
// event to the wrapped publisher with their own timeout.
type Dispatcher struct {
	next     events.Publisher
	recorder Recorder
	logger   logging.Logger
	timeout  time.Duration

	queue   chan events.Event
	workers int

	mu      sync.RWMutex
	running bool
	closed  bool
	wg      sync.WaitGroup
}

// validateDispatcherConfig validates and returns safe pool sizes
func validateDispatcherConfig(cfg *config.Config) (workers, queueSize int, err error) {
	workers = cfg.Events.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	} else if workers < MinWorkers {
		return 0, 0, fmt.Errorf("event workers (%d) is below minimum (%d)", workers, MinWorkers)
	} else if workers > MaxWorkers {
		return 0, 0, fmt.Errorf("event workers (%d) exceeds maximum (%d)", workers, MaxWorkers)
	}

	queueSize = cfg.Events.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	} else if queueSize < MinQueueSize {
		return 0, 0, fmt.Errorf("event queue size (%d) is below minimum (%d)", queueSize, MinQueueSize)
	} else if queueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("event queue size (%d) exceeds maximum (%d)", queueSize, MaxQueueSize)
	}

	return workers, queueSize, nil
}

// NewDispatcher wraps next. recorder may be nil.
func NewDispatcher(cfg *config.Config, next events.Publisher, recorder Recorder) *Dispatcher {
	logger := logging.GetGlobalLogger().WithField("component", "dispatcher")

	workers, queueSize, err := validateDispatcherConfig(cfg)
	if err != nil {
		logger.Warn("Event dispatcher configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		workers = DefaultWorkers
		queueSize = DefaultQueueSize
	}

	timeout := cfg.Events.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Dispatcher{
		next:     next,
		recorder: recorder,
		logger:   logger,
		timeout:  timeout,
		queue:    make(chan events.Event, queueSize),
		workers:  workers,
	}
}

// Start launches the workers
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrNotRunning
	}
	if d.running {
		return fmt.Errorf("event dispatcher already running")
	}
	d.running = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info("Event dispatcher started", map[string]interface{}{
		"workers":    d.workers,
		"queue_size": cap(d.queue),
	})
	return nil
}

// Publish enqueues event without waiting for delivery. A full queue drops the event.
func (d *Dispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return ErrNotRunning
	}

	select {
	case d.queue <- event:
		return nil
	default:
		d.record(event.Type, OutcomeDropped)
		return ErrQueueFull
	}
}

// Pending reports how many events wait for a worker
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting events, waits for the queue to drain and closes the wrapped
// publisher. Calling it twice is safe.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	wasRunning := d.running
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	if wasRunning {
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			d.logger.Info("Event dispatcher stopped gracefully")
		case <-time.After(closeTimeout):
			d.logger.Warn("Event dispatcher shutdown timed out", map[string]interface{}{
				"pending": len(d.queue),
			})
		}
	}

	return d.next.Close()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for event := range d.queue {
		d.deliver(id, event)
	}
}

func (d *Dispatcher) deliver(workerID int, event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.next.Publish(ctx, event); err != nil {
		d.record(event.Type, OutcomeFailed)
		d.logger.Warn("Failed to publish event", map[string]interface{}{
			"worker_id": workerID,
			"event":     event.Type,
			"id":        event.ID,
			"error":     err.Error(),
		})
		return
	}
	d.record(event.Type, OutcomePublished)
}

func (d *Dispatcher) record(eventType, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordEvent(eventType, outcome)
	}
}
