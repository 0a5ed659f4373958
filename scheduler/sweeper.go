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

// Package scheduler drives the submitter's periodic work.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/taskmesh/log"
)

// Sweeper is the periodic work the TimeoutSweeper drives. It is implemented
// by the task submitter, whose CheckTimeoutTasks expires tasks waiting for
// death information.
type Sweeper interface {
	CheckTimeoutTasks()
}

// TimeoutSweeper periodically runs a Sweeper. The submitter does not own a
// timer; this is the external ticker that drives its timeout sweep.
type TimeoutSweeper struct {
	// helps lock concurrent access
	mu sync.Mutex

	quartzScheduler quartz.Scheduler
	// states whether the quartzScheduler has started or not
	started *atomic.Bool
	// define the logger
	logger log.Logger

	sweeper  Sweeper
	interval time.Duration
	// define the shutdown timeout
	stopTimeout time.Duration
}

// SweeperOption configures the TimeoutSweeper.
type SweeperOption func(sweeper *TimeoutSweeper)

// WithSweeperLogger sets the sweeper logger.
func WithSweeperLogger(logger log.Logger) SweeperOption {
	return func(sweeper *TimeoutSweeper) {
		sweeper.logger = logger
	}
}

// WithStopTimeout bounds how long Stop waits for an in-flight sweep.
func WithStopTimeout(timeout time.Duration) SweeperOption {
	return func(sweeper *TimeoutSweeper) {
		sweeper.stopTimeout = timeout
	}
}

// NewTimeoutSweeper creates a TimeoutSweeper running the given sweeper every
// interval.
func NewTimeoutSweeper(sweeper Sweeper, interval time.Duration, opts ...SweeperOption) *TimeoutSweeper {
	// create an instance of quartz scheduler with its logger off
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	timeoutSweeper := &TimeoutSweeper{
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		logger:          log.DefaultLogger,
		sweeper:         sweeper,
		interval:        interval,
		stopTimeout:     time.Second,
	}

	for _, opt := range opts {
		opt(timeoutSweeper)
	}

	return timeoutSweeper
}

// Start starts the sweep loop.
func (x *TimeoutSweeper) Start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.logger.Info("starting timeout sweeper...")
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())

	sweepJob := job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		x.sweeper.CheckTimeoutTasks()
		return true, nil
	})

	detail := quartz.NewJobDetail(sweepJob, quartz.NewJobKey(uuid.NewString()))
	if err := x.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(x.interval)); err != nil {
		return err
	}

	x.logger.Info("timeout sweeper started.:)")
	return nil
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish.
func (x *TimeoutSweeper) Stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.logger.Info("stopping timeout sweeper...")
	x.mu.Lock()
	defer x.mu.Unlock()

	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)

	x.logger.Info("timeout sweeper stopped.:)")
}

// Started returns true when the sweep loop is running.
func (x *TimeoutSweeper) Started() bool {
	return x.started.Load()
}
