// Package worker provides an asynchronous eventstream.Publisher. Turn events
// are queued and handed to a wrapped publisher by background workers so that
// broker latency never reaches the chat request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/larder/pkg/eventstream"
	larderlog "github.com/papercomputeco/larder/pkg/logger"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// ErrQueueFull is returned by PublishTurn when the event was dropped.
var ErrQueueFull = errors.New("event queue full")

// ErrClosed is returned by PublishTurn after Close.
var ErrClosed = errors.New("publisher closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every queued event.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each call to the wrapped publisher.
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes turn events asynchronously.
type Pool struct {
	config *Config
	queue  chan *eventstream.TurnResolvedEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = larderlog.Nop()
	}

	p := &Pool{
		config: c,
		queue:  make(chan *eventstream.TurnResolvedEvent, c.QueueSize),
		logger: logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go p.worker(i)
	}

	return p, nil
}

// PublishTurn queues the event and returns immediately. The event is
// dropped with ErrQueueFull when the queue has no capacity.
func (p *Pool) PublishTurn(_ context.Context, event *eventstream.TurnResolvedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("turn event queued", "event_id", event.EventID)
		return nil
	default:
		p.logger.Error("turn event dropped, queue full",
			"event_id", event.EventID,
			"provider", event.Source.Provider,
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, drains the queue and closes the wrapped
// publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("publish worker started", "worker_id", id)

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("publish worker stopped", "worker_id", id)
}

func (p *Pool) publish(event *eventstream.TurnResolvedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("failed to publish turn event",
			"event_id", event.EventID,
			"provider", event.Source.Provider,
			"error", err,
		)
	}
}
