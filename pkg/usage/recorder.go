// Package usage counts successful upstream provider requests. Counters are
// observational: nothing reads them to block a request, and windows never
// roll over on their own.
package usage

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/logger"
)

// requestsMetric is the OpenTelemetry counter mirrored by Record.
const requestsMetric = "larder.provider.requests"

// Counter is the usage of a single provider within its window.
type Counter struct {
	Window      string `json:"window"`
	WindowUsed  int    `json:"window_used"`
	WindowLimit int    `json:"window_limit"`
}

// Snapshot maps provider names to their counters.
type Snapshot map[string]Counter

// Recorder tracks per-provider usage.
type Recorder struct {
	mu       sync.RWMutex
	counters map[string]*Counter

	requests metric.Int64Counter
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMeter mirrors every Record into an OpenTelemetry counter created on m.
func WithMeter(m metric.Meter) Option {
	return func(r *Recorder) {
		counter, err := m.Int64Counter(requestsMetric,
			metric.WithDescription("Successful upstream provider requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			r.logger.Warn("could not create usage counter", "error", err)
			return
		}
		r.requests = counter
	}
}

// WithLogger sets the recorder logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a Recorder with a zeroed counter for every provider.
func NewRecorder(providers []llm.Descriptor, opts ...Option) *Recorder {
	r := &Recorder{
		counters: make(map[string]*Counter, len(providers)),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, p := range providers {
		r.counters[p.Name] = &Counter{
			Window:      p.Limit.Window,
			WindowUsed:  0,
			WindowLimit: p.Limit.Max,
		}
	}

	return r
}

// Record counts one successful request for the named provider. Providers
// that were not registered get a counter with no limit.
func (r *Recorder) Record(provider string) {
	r.mu.Lock()
	c, ok := r.counters[provider]
	if !ok {
		c = &Counter{}
		r.counters[provider] = c
	}
	c.WindowUsed++
	used := c.WindowUsed
	r.mu.Unlock()

	if r.requests != nil {
		r.requests.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("provider", provider)),
		)
	}

	r.logger.Debug("recorded provider usage", "provider", provider, "window_used", used)
}

// Snapshot returns a copy of every counter.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(Snapshot, len(r.counters))
	for name, c := range r.counters {
		snap[name] = *c
	}
	return snap
}
