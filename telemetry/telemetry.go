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

// Package telemetry exposes the OpenTelemetry instruments recorded by the
// task submitter.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/tochemey/taskmesh"

	submittedCounterName = "taskmesh_actor_tasks_submitted"
	completedCounterName = "taskmesh_actor_tasks_completed"
	failedCounterName    = "taskmesh_actor_tasks_failed"
	resentCounterName    = "taskmesh_actor_tasks_resent"
	backlogHistogramName = "taskmesh_actor_queued_backlog"
)

// Metrics holds the submitter instruments.
type Metrics struct {
	// TasksSubmitted is the total number of tasks accepted for submission.
	TasksSubmitted metric.Int64Counter
	// TasksCompleted is the total number of tasks whose reply was delivered.
	TasksCompleted metric.Int64Counter
	// TasksFailed is the total number of tasks surfaced to the finisher as
	// failed, labeled by error kind.
	TasksFailed metric.Int64Counter
	// TasksResent is the total number of skip-execution resends pushed after a
	// reconnection.
	TasksResent metric.Int64Counter
	// QueuedBacklog samples the per-push backlog between the client sequence
	// number and the server's processed high-water mark.
	QueuedBacklog metric.Int64Histogram
}

// NewMetrics creates the submitter instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	metrics := new(Metrics)
	var err error

	if metrics.TasksSubmitted, err = meter.Int64Counter(
		submittedCounterName,
		metric.WithDescription("The total number of actor tasks accepted for submission"),
	); err != nil {
		return nil, fmt.Errorf("failed to create submitted count instrument, %w", err)
	}

	if metrics.TasksCompleted, err = meter.Int64Counter(
		completedCounterName,
		metric.WithDescription("The total number of actor tasks completed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create completed count instrument, %w", err)
	}

	if metrics.TasksFailed, err = meter.Int64Counter(
		failedCounterName,
		metric.WithDescription("The total number of actor tasks failed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failed count instrument, %w", err)
	}

	if metrics.TasksResent, err = meter.Int64Counter(
		resentCounterName,
		metric.WithDescription("The total number of skip-execution resends after reconnection"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resent count instrument, %w", err)
	}

	if metrics.QueuedBacklog, err = meter.Int64Histogram(
		backlogHistogramName,
		metric.WithDescription("The per-push backlog between client and server sequence numbers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backlog instrument, %w", err)
	}

	return metrics, nil
}

// New creates the submitter instruments on the global meter provider.
func New() (*Metrics, error) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)
	return NewMetrics(meter)
}
