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

// Package submitter dispatches actor tasks from a worker process to remote
// actors over point-to-point channels, preserving the caller-observed task
// order per actor across dependency resolution races, actor restarts and
// transient network failures.
package submitter

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/internal/validation"
	"github.com/tochemey/taskmesh/remote"
	"github.com/tochemey/taskmesh/task"
)

// Submitter dispatches tasks to remote actors. It is safe for concurrent use:
// a single mutex guards the actor map and every field of every per-actor
// record, and no resolver, finisher or user callback is ever invoked while
// that mutex is held.
type Submitter struct {
	mu           sync.Mutex
	clientQueues map[id.ActorID]*clientQueue

	pool     remote.Pool
	resolver DependencyResolver
	finisher TaskFinisher

	config *Config
}

// New creates a Submitter pushing through the given channel pool, resolving
// task dependencies through the given resolver and reporting outcomes to the
// given finisher.
func New(pool remote.Pool, resolver DependencyResolver, finisher TaskFinisher, opts ...Option) (*Submitter, error) {
	config := newConfig(opts...)
	if err := validation.New(validation.AllErrors()).
		AddAssertion(pool != nil, "channel pool is required").
		AddAssertion(resolver != nil, "dependency resolver is required").
		AddAssertion(finisher != nil, "task finisher is required").
		AddValidator(config).
		Validate(); err != nil {
		return nil, err
	}

	return &Submitter{
		clientQueues: make(map[id.ActorID]*clientQueue),
		pool:         pool,
		resolver:     resolver,
		finisher:     finisher,
		config:       config,
	}, nil
}

// AddActorIfUnknown registers the actor. It is idempotent: the same actor may
// be referenced many times.
func (x *Submitter) AddActorIfUnknown(actorID id.ActorID) {
	x.mu.Lock()
	if _, ok := x.clientQueues[actorID]; !ok {
		x.clientQueues[actorID] = newClientQueue(actorID, x.config.queueingWarnThreshold)
	}
	x.mu.Unlock()
}

// SubmitTask queues the task for dispatch to its actor. The call itself
// always succeeds; the real outcome is delivered asynchronously through the
// task finisher. The actor must have been registered with AddActorIfUnknown,
// and the spec's ActorCounter must not repeat a previous submission to the
// same actor.
func (x *Submitter) SubmitTask(spec task.Spec) {
	taskID := spec.TaskID
	actorID := spec.ActorID
	x.config.logger.Debugf("submitting task=%s to actor=%s", taskID, actorID)

	taskQueued := false
	sendPos := spec.ActorCounter

	x.mu.Lock()
	queue := x.mustClientQueue(actorID)
	if queue.state != actorDead {
		// The send order is fixed before dependencies resolve, which may
		// complete out of order. The receiving actor executes tasks according
		// to this sequence number.
		if !queue.submitQueue.emplace(sendPos, spec) {
			x.mu.Unlock()
			panic(fmt.Sprintf("duplicate sequence number %d for actor=%s", sendPos, actorID))
		}
		taskQueued = true
	}
	creationTaskFailure := queue.creationTaskFailure
	x.mu.Unlock()

	if !taskQueued {
		// the actor is dead; deliver the failure through the finisher
		x.finisher.MarkTaskCanceled(taskID)
		x.finisher.PendingTaskFailed(taskID, ErrorKindActorDied, ErrDeadActor, creationTaskFailure, false)
		x.recordFailed(ErrorKindActorDied)
		return
	}

	x.recordSubmitted()

	// The lock is released before resolving dependencies since the callback
	// may fire in the same call stack.
	x.resolver.ResolveDependencies(spec, func(err error) {
		x.mu.Lock()
		queue := x.mustClientQueue(actorID)
		// Only dispatch when the submitted task is still queued. It may have
		// been dequeued if the actor has since failed.
		if !queue.submitQueue.contains(sendPos) {
			x.mu.Unlock()
			return
		}
		if err == nil {
			queue.submitQueue.markDependencyResolved(sendPos)
			x.sendPendingTasks(queue, actorID)
			x.mu.Unlock()
			return
		}
		failedTaskID := queue.submitQueue.get(sendPos).TaskID
		queue.submitQueue.markDependencyFailed(sendPos)
		// a removed entry no longer gates its successors; dispatch them
		x.sendPendingTasks(queue, actorID)
		x.mu.Unlock()

		x.finisher.PendingTaskFailed(failedTaskID, ErrorKindDependencyResolutionFailed, err, nil, false)
		x.recordFailed(ErrorKindDependencyResolutionFailed)
	})
}

// KillActor asks the actor to exit. The request is delivered once a channel
// is available. At most one kill is retained per actor: a force kill
// supersedes a non-force one, and a force kill's no-restart flag may upgrade
// an already-pending force kill.
func (x *Submitter) KillActor(actorID id.ActorID, forceKill, noRestart bool) {
	x.mu.Lock()
	queue := x.mustClientQueue(actorID)

	if queue.pendingKill == nil {
		queue.pendingKill = &remote.KillRequest{
			IntendedActorID: actorID,
			ForceKill:       forceKill,
			NoRestart:       noRestart,
		}
	} else if forceKill {
		queue.pendingKill.ForceKill = true
		if noRestart {
			queue.pendingKill.NoRestart = true
		}
	}

	x.sendPendingTasks(queue, actorID)
	x.mu.Unlock()
}

// ConnectActor establishes a channel to the actor's (possibly new) worker and
// drains pending tasks. Messages about an earlier incarnation, the already
// connected address, or a dead actor are ignored.
func (x *Submitter) ConnectActor(actorID id.ActorID, address remote.Address, numRestarts int64) {
	x.config.logger.Debugf("connecting to actor=%s at worker=%s", actorID, address.WorkerID)

	var inflight map[id.TaskID]remote.ReplyCallback

	x.mu.Lock()
	queue := x.mustClientQueue(actorID)
	switch {
	case numRestarts < queue.numRestarts:
		// the actor has already restarted past this incarnation
		x.config.logger.Infof("skipping connection of already restarted actor=%s", actorID)
		x.mu.Unlock()
		return
	case queue.channel != nil && queue.channel.Address().HostPort() == address.HostPort():
		x.config.logger.Debugf("skipping already connected actor=%s", actorID)
		x.mu.Unlock()
		return
	case queue.state == actorDead:
		x.mu.Unlock()
		return
	}

	queue.numRestarts = numRestarts
	if queue.channel != nil {
		// drop the channel to the old incarnation
		x.disconnectChannel(queue)
		inflight = queue.inflight
		queue.inflight = make(map[id.TaskID]remote.ReplyCallback)
	}

	queue.state = actorAlive
	queue.workerID = address.WorkerID
	queue.channel = x.pool.GetOrConnect(address)
	queue.submitQueue.onClientConnected()

	x.config.logger.Infof("connected to actor=%s at worker=%s addr=%s", actorID, address.WorkerID, address.HostPort())
	x.resendOutOfOrderTasks(queue)
	x.sendPendingTasks(queue, actorID)
	x.mu.Unlock()

	x.failInflightTasks(inflight)
}

// DisconnectActor tears down the channel to the actor. When dead is true the
// actor is permanently dead: every queued and stashed task is failed with the
// supplied creation-task failure, and later submissions fail immediately.
// Otherwise the actor is restarting and its queue is left intact for the next
// connection. A non-dead disconnect must carry a restart count newer than the
// current incarnation; stale ones are ignored.
func (x *Submitter) DisconnectActor(actorID id.ActorID, numRestarts int64, dead bool, creationTaskFailure *anypb.Any) {
	x.config.logger.Debugf("disconnecting from actor=%s", actorID)

	var inflight map[id.TaskID]remote.ReplyCallback
	var droppedTaskIDs []id.TaskID
	var stashedSpecs []task.Spec

	x.mu.Lock()
	queue := x.mustClientQueue(actorID)
	if !dead {
		if numRestarts <= 0 {
			x.mu.Unlock()
			panic(fmt.Sprintf("disconnect of actor=%s without death requires a positive restart count", actorID))
		}
		if numRestarts <= queue.numRestarts {
			// the actor has already been restarted past this incarnation
			x.config.logger.Infof("skipping disconnection of already restarted actor=%s", actorID)
			x.mu.Unlock()
			return
		}
	}

	// The actor failed, so drop the channel. Either the actor is permanently
	// dead or a new channel will be inserted once it is restarted.
	x.disconnectChannel(queue)
	inflight = queue.inflight
	queue.inflight = make(map[id.TaskID]remote.ReplyCallback)

	if dead {
		queue.state = actorDead
		queue.creationTaskFailure = creationTaskFailure

		droppedTaskIDs = queue.submitQueue.clearAllTasks()
		x.config.logger.Infof("failing %d pending tasks of dead actor=%s", len(droppedTaskIDs), actorID)

		stashedSpecs = make([]task.Spec, 0, len(queue.waitForDeathInfo))
		for _, waiter := range queue.waitForDeathInfo {
			stashedSpecs = append(stashedSpecs, waiter.spec)
		}
		x.config.logger.Infof("failing %d tasks waiting for death info, actor=%s", len(stashedSpecs), actorID)
		queue.waitForDeathInfo = nil

		// Tasks already sent and awaiting replies are not taken from the
		// submit queue; they are failed below through their flushed reply
		// callbacks. The sequencing metadata is retained so tasks submitted
		// after the death fail properly.
	} else if queue.state != actorDead {
		// Only update the state when the actor is not permanently dead. It
		// will eventually be restarted or marked as permanently dead.
		queue.state = actorRestarting
		queue.numRestarts = numRestarts
	}
	x.mu.Unlock()

	for _, taskID := range droppedTaskIDs {
		x.finisher.MarkTaskCanceled(taskID)
		x.finisher.PendingTaskFailed(taskID, ErrorKindActorDied, ErrDeadActor, creationTaskFailure, false)
		x.recordFailed(ErrorKindActorDied)
	}
	for _, spec := range stashedSpecs {
		x.finisher.MarkPendingTaskFailed(spec, ErrorKindActorDied, creationTaskFailure)
		x.recordFailed(ErrorKindActorDied)
	}

	x.failInflightTasks(inflight)
}

// CheckTimeoutTasks fails every stashed task whose death-info deadline has
// elapsed. It must be driven periodically by an external ticker; the
// submitter does not own a timer.
func (x *Submitter) CheckTimeoutTasks() {
	var expired []task.Spec

	x.mu.Lock()
	now := x.config.clock.CurrentTimeMillis()
	for _, queue := range x.clientQueues {
		// insertions share one timeout, so the front entry expires first
		for len(queue.waitForDeathInfo) > 0 && queue.waitForDeathInfo[0].deadlineMillis < now {
			expired = append(expired, queue.waitForDeathInfo[0].spec)
			queue.waitForDeathInfo = queue.waitForDeathInfo[1:]
		}
	}
	x.mu.Unlock()

	for _, spec := range expired {
		x.finisher.MarkPendingTaskFailed(spec, ErrorKindActorDied, nil)
		x.recordFailed(ErrorKindActorDied)
	}
}

// IsActorAlive reports whether the actor is known and currently connected.
func (x *Submitter) IsActorAlive(actorID id.ActorID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	queue, ok := x.clientQueues[actorID]
	return ok && queue.channel != nil
}

// mustClientQueue returns the actor's record. The caller must hold the lock.
// An unknown actor is an upstream protocol violation.
func (x *Submitter) mustClientQueue(actorID id.ActorID) *clientQueue {
	queue, ok := x.clientQueues[actorID]
	if !ok {
		panic(fmt.Sprintf("unknown actor=%s", actorID))
	}
	return queue
}

// disconnectChannel drops the channel of the given record. The caller must
// hold the lock.
func (x *Submitter) disconnectChannel(queue *clientQueue) {
	queue.channel = nil
	x.pool.Disconnect(queue.workerID)
	queue.workerID = id.WorkerID{}
	queue.pendingKill = nil
}

// failInflightTasks flushes captured reply callbacks with a synthetic network
// failure. The callbacks do much more than reporting the failure, so they are
// invoked instead of calling the finisher directly. The caller must NOT hold
// the lock.
func (x *Submitter) failInflightTasks(inflight map[id.TaskID]remote.ReplyCallback) {
	for _, callback := range inflight {
		callback(ErrActorStateChange, nil)
	}
}

// sendPendingTasks delivers a pending kill, then pushes every task ready to
// send in sequence order. The caller must hold the lock.
func (x *Submitter) sendPendingTasks(queue *clientQueue, actorID id.ActorID) {
	if queue.channel == nil {
		return
	}

	if queue.pendingKill != nil {
		x.config.logger.Infof("sending KillActor request to actor=%s", actorID)
		// delivery failure is acceptable: the worker may already be gone
		queue.channel.KillActor(queue.pendingKill, nil)
		queue.pendingKill = nil
	}

	for {
		spec, skipQueue, ok := queue.submitQueue.popNextTaskToSend()
		if !ok {
			break
		}
		x.pushActorTask(queue, spec, skipQueue)
	}
}

// resendOutOfOrderTasks replays every task whose reply was received on a
// previous channel, whether or not its predecessors finished. They carry their
// original sequence number with the skip-execution flag set, so a restarted
// server advances its counter without re-running the methods. The caller must
// hold the lock.
func (x *Submitter) resendOutOfOrderTasks(queue *clientQueue) {
	if queue.channel == nil {
		return
	}
	for _, completed := range queue.submitQueue.popAllOutOfOrderCompletedTasks() {
		spec := completed.spec.Copy()
		spec.SkipExecution = true
		x.recordResent()
		x.pushActorTask(queue, spec, true)
	}
}

// pushActorTask sends one task over the record's channel and registers its
// reply callback. The caller must hold the lock.
func (x *Submitter) pushActorTask(queue *clientQueue, spec task.Spec, skipQueue bool) {
	request := &remote.PushTaskRequest{
		// the spec is copied, not moved: failure recovery needs the original
		Spec:             spec.Copy(),
		IntendedWorkerID: queue.workerID,
		SequenceNumber:   queue.submitQueue.sequenceNumber(spec),
	}

	taskID := spec.TaskID
	actorID := spec.ActorID
	workerAddress := queue.channel.Address()

	backlog := int64(request.SequenceNumber) - queue.channel.ClientProcessedUpToSeqno()
	x.config.logger.Debugf("pushing task=%s to actor=%s counter=%d seq=%d backlog=%d",
		taskID, actorID, spec.ActorCounter, request.SequenceNumber, backlog)
	x.recordBacklog(backlog)
	if backlog >= queue.nextQueueingWarnThreshold {
		if hook := x.config.warnExcessQueueing; hook != nil {
			// the hook is user code; it must not run under the lock
			go hook(actorID, backlog)
		}
		queue.nextQueueingWarnThreshold *= 2
	}

	queue.inflight[taskID] = x.newReplyCallback(spec, workerAddress)

	wrapped := func(err error, reply *remote.PushTaskReply) {
		x.mu.Lock()
		queue := x.mustClientQueue(actorID)
		callback, ok := queue.inflight[taskID]
		if !ok {
			x.mu.Unlock()
			x.config.logger.Debugf("task=%s has already been marked as failed, ignoring the reply", taskID)
			return
		}
		delete(queue.inflight, taskID)
		x.mu.Unlock()
		callback(err, reply)
	}

	queue.channel.PushActorTask(request, skipQueue, wrapped)
}

// newReplyCallback builds the reply handler for one pushed task. It is
// invoked with the lock released, either by the reply wrapper or, on channel
// loss, by failInflightTasks with a synthetic failure.
func (x *Submitter) newReplyCallback(spec task.Spec, workerAddress remote.Address) remote.ReplyCallback {
	taskID := spec.TaskID
	actorID := spec.ActorID
	actorCounter := spec.ActorCounter
	taskSkipped := spec.SkipExecution

	return func(pushErr error, reply *remote.PushTaskReply) {
		switch {
		case taskSkipped:
			// The reply belongs to a task that already completed on a previous
			// incarnation: advance the completion accounting below without
			// touching the finisher, regardless of the status.
		case pushErr == nil:
			x.finisher.CompletePendingTask(taskID, reply, workerAddress)
			x.recordCompleted()
		default:
			// The push failed on the network: the actor may be dead without a
			// death notification having arrived yet.
			x.mu.Lock()
			queue := x.mustClientQueue(actorID)
			deadNow := queue.state == actorDead
			creationTaskFailure := queue.creationTaskFailure
			x.mu.Unlock()

			willRetry := x.finisher.PendingTaskFailed(taskID, ErrorKindActorDied, pushErr, creationTaskFailure, deadNow)
			x.recordFailed(ErrorKindActorDied)
			if willRetry {
				// keep the queue entry; it is re-sent once a channel is back
				x.mu.Lock()
				queue.submitQueue.markTaskInFlightAgain(actorCounter)
				x.mu.Unlock()
				return
			}

			if !deadNow {
				var lateFailure *anypb.Any
				diedMeanwhile := false

				x.mu.Lock()
				if queue.state == actorDead {
					// the death notification raced the failure report
					diedMeanwhile = true
					lateFailure = queue.creationTaskFailure
				} else {
					deadline := x.config.clock.CurrentTimeMillis() + x.config.deathInfoTimeout.Milliseconds()
					queue.waitForDeathInfo = append(queue.waitForDeathInfo, deathInfoWaiter{deadlineMillis: deadline, spec: spec})
					x.config.logger.Infof("push of task=%s failed because of a network error; stashed awaiting death info, wait queue size=%d",
						taskID, len(queue.waitForDeathInfo))
				}
				x.mu.Unlock()

				if diedMeanwhile {
					x.finisher.MarkPendingTaskFailed(spec, ErrorKindActorDied, lateFailure)
				}
			}
		}

		// every non-retry outcome advances the completion accounting
		x.mu.Lock()
		queue := x.mustClientQueue(actorID)
		queue.submitQueue.markTaskCompleted(actorCounter, spec)
		x.mu.Unlock()
	}
}

func (x *Submitter) recordSubmitted() {
	if x.config.metrics != nil {
		x.config.metrics.TasksSubmitted.Add(context.Background(), 1)
	}
}

func (x *Submitter) recordCompleted() {
	if x.config.metrics != nil {
		x.config.metrics.TasksCompleted.Add(context.Background(), 1)
	}
}

func (x *Submitter) recordFailed(kind ErrorKind) {
	if x.config.metrics != nil {
		x.config.metrics.TasksFailed.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", kind.String())))
	}
}

func (x *Submitter) recordResent() {
	if x.config.metrics != nil {
		x.config.metrics.TasksResent.Add(context.Background(), 1)
	}
}

func (x *Submitter) recordBacklog(backlog int64) {
	if x.config.metrics != nil {
		x.config.metrics.QueuedBacklog.Record(context.Background(), backlog)
	}
}
