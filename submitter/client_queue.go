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
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/remote"
	"github.com/tochemey/taskmesh/task"
)

// actorState is the submitter-side view of an actor's lifecycle.
type actorState int

const (
	// actorPending means the actor has been referenced but never connected.
	actorPending actorState = iota
	// actorAlive means a channel to the actor's worker is established.
	actorAlive
	// actorRestarting means the actor failed and is awaiting a new incarnation.
	actorRestarting
	// actorDead is terminal: no submissions are queued and no resends occur.
	actorDead
)

// String returns the string representation of the state.
func (s actorState) String() string {
	switch s {
	case actorPending:
		return "PENDING"
	case actorAlive:
		return "ALIVE"
	case actorRestarting:
		return "RESTARTING"
	case actorDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// deathInfoWaiter is a task whose push failed on the network, parked until an
// authoritative death notification arrives or the deadline elapses.
type deathInfoWaiter struct {
	deadlineMillis int64
	spec           task.Spec
}

// clientQueue aggregates the submission state of one actor. It exposes no
// behavior of its own: every field is read and written only under the
// submitter lock.
type clientQueue struct {
	// state of the actor. When ALIVE a channel is present; when DEAD every
	// other field is ignored and later submissions fail immediately.
	state actorState

	// creationTaskFailure is the cached cause of death. Only set when
	// state is actorDead and the actor died in its creation task.
	creationTaskFailure *anypb.Any

	// numRestarts counts the actor's restarts. Starts at -1 to indicate the
	// actor has not been created yet; used to drop stale lifecycle messages.
	numRestarts int64

	// channel to the current incarnation's worker; nil when disconnected.
	channel remote.Channel

	// workerID of the current incarnation; zero when disconnected.
	workerID id.WorkerID

	// submitQueue orders this actor's task submissions.
	submitQueue *submitQueue

	// waitForDeathInfo parks tasks that failed on the network, in insertion
	// order. Every insertion uses the same timeout, so the front entry always
	// carries the earliest deadline.
	waitForDeathInfo []deathInfoWaiter

	// pendingKill is the kill request to deliver once a channel is available.
	// At most one is retained; see Submitter.KillActor for the merge rules.
	pendingKill *remote.KillRequest

	// inflight holds the reply callbacks of tasks awaiting a reply on the
	// current channel, keyed by task id. On channel loss every entry is
	// flushed exactly once with a synthetic failure.
	inflight map[id.TaskID]remote.ReplyCallback

	// nextQueueingWarnThreshold is the backlog at which the next excess
	// queueing warning fires. Doubles on each trip.
	nextQueueingWarnThreshold int64
}

func newClientQueue(actorID id.ActorID, queueingWarnThreshold int64) *clientQueue {
	return &clientQueue{
		state:                     actorPending,
		numRestarts:               -1,
		submitQueue:               newSubmitQueue(actorID),
		inflight:                  make(map[id.TaskID]remote.ReplyCallback),
		nextQueueingWarnThreshold: queueingWarnThreshold,
	}
}
