// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package submitter

import (
	"time"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/internal/validation"
	"github.com/tochemey/taskmesh/log"
	"github.com/tochemey/taskmesh/telemetry"
)

const (
	// DefaultDeathInfoTimeout bounds how long a task that failed on the
	// network waits for an authoritative death notification before it is
	// failed by the timeout sweep.
	DefaultDeathInfoTimeout = time.Minute

	// DefaultQueueingWarnThreshold is the backlog at which the first excess
	// queueing warning fires.
	DefaultQueueingWarnThreshold = 5000
)

// WarnExcessQueueingHook is invoked when the backlog of submissions to an
// actor crosses the current warning threshold.
type WarnExcessQueueingHook func(actorID id.ActorID, backlog int64)

// Config carries the submitter settings.
type Config struct {
	deathInfoTimeout      time.Duration
	queueingWarnThreshold int64
	logger                log.Logger
	clock                 Clock
	warnExcessQueueing    WarnExcessQueueingHook
	metrics               *telemetry.Metrics
}

// enforce compilation error
var _ validation.Validator = (*Config)(nil)

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		deathInfoTimeout:      DefaultDeathInfoTimeout,
		queueingWarnThreshold: DefaultQueueingWarnThreshold,
		logger:                log.DefaultLogger,
		clock:                 SystemClock(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate implements validation.Validator.
func (x *Config) Validate() error {
	return validation.New(validation.AllErrors()).
		AddAssertion(x.deathInfoTimeout > 0, "death info timeout must be positive").
		AddAssertion(x.queueingWarnThreshold > 0, "queueing warn threshold must be positive").
		AddAssertion(x.logger != nil, "logger is required").
		AddAssertion(x.clock != nil, "clock is required").
		Validate()
}

// Option configures the submitter at creation time.
type Option func(cfg *Config)

// WithDeathInfoTimeout sets how long tasks wait for death information after a
// network failure before the timeout sweep fails them.
func WithDeathInfoTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.deathInfoTimeout = timeout
	}
}

// WithQueueingWarnThreshold sets the backlog at which the first excess
// queueing warning fires. The threshold doubles on each trip.
func WithQueueingWarnThreshold(threshold int64) Option {
	return func(cfg *Config) {
		cfg.queueingWarnThreshold = threshold
	}
}

// WithLogger sets the submitter logger.
func WithLogger(logger log.Logger) Option {
	return func(cfg *Config) {
		cfg.logger = logger
	}
}

// WithClock sets the time source used for death-info deadlines.
func WithClock(clock Clock) Option {
	return func(cfg *Config) {
		cfg.clock = clock
	}
}

// WithWarnExcessQueueing sets the excess queueing warning hook.
func WithWarnExcessQueueing(hook WarnExcessQueueingHook) Option {
	return func(cfg *Config) {
		cfg.warnExcessQueueing = hook
	}
}

// WithMetrics sets the telemetry instruments the submitter records.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(cfg *Config) {
		cfg.metrics = metrics
	}
}
