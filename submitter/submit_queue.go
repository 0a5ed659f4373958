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
	"fmt"
	"slices"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/task"
)

// dependencyState tracks whether a queued task's inputs are available.
type dependencyState int

const (
	dependencyPending dependencyState = iota
	dependencyResolved
)

// sendState tracks how far a queued task has progressed through the channel.
type sendState int

const (
	sendQueued sendState = iota
	sendInFlight
	sendCompleted
)

type queueEntry struct {
	spec       task.Spec
	dependency dependencyState
	send       sendState
}

// sequencedSpec pairs a task specification with its sequence number.
type sequencedSpec struct {
	sequenceNumber uint64
	spec           task.Spec
}

// submitQueue orders the tasks of one actor by their caller-assigned sequence
// number. Tasks are pushed to the channel in strict sequence order once their
// dependencies resolve; completions may arrive in any order. Entries completed
// ahead of an unfinished predecessor are retained so a reconnection can replay
// them to the restarted server as skip-execution pushes.
//
// The queue is not safe for concurrent use; every method is called under the
// submitter lock.
type submitQueue struct {
	actorID id.ActorID
	entries map[uint64]*queueEntry
	// order holds the sequence numbers of entries in ascending order.
	order []uint64
}

func newSubmitQueue(actorID id.ActorID) *submitQueue {
	return &submitQueue{
		actorID: actorID,
		entries: make(map[uint64]*queueEntry),
	}
}

// emplace inserts the task at the given sequence number. It returns false
// when the sequence number is already present.
func (x *submitQueue) emplace(sequenceNumber uint64, spec task.Spec) bool {
	if _, ok := x.entries[sequenceNumber]; ok {
		return false
	}
	x.entries[sequenceNumber] = &queueEntry{spec: spec}
	at, _ := slices.BinarySearch(x.order, sequenceNumber)
	x.order = slices.Insert(x.order, at, sequenceNumber)
	return true
}

// contains reports whether the sequence number is queued.
func (x *submitQueue) contains(sequenceNumber uint64) bool {
	_, ok := x.entries[sequenceNumber]
	return ok
}

// get returns the task queued at the given sequence number. The sequence
// number must be present.
func (x *submitQueue) get(sequenceNumber uint64) task.Spec {
	entry, ok := x.entries[sequenceNumber]
	if !ok {
		panic(fmt.Sprintf("submit queue for actor=%s has no entry at seq=%d", x.actorID, sequenceNumber))
	}
	return entry.spec
}

// markDependencyResolved records that the task's inputs are available.
func (x *submitQueue) markDependencyResolved(sequenceNumber uint64) {
	if entry, ok := x.entries[sequenceNumber]; ok {
		entry.dependency = dependencyResolved
	}
}

// markDependencyFailed drops the task from the queue. A removed entry no
// longer blocks its successors.
func (x *submitQueue) markDependencyFailed(sequenceNumber uint64) {
	x.remove(sequenceNumber)
}

// popNextTaskToSend returns the next task ready to push: the smallest
// unsent sequence number whose dependencies are resolved, provided no smaller
// unsent entry is still awaiting resolution. The returned entry is promoted
// to in-flight. The boolean skipQueue result is false for ordered sends.
func (x *submitQueue) popNextTaskToSend() (spec task.Spec, skipQueue bool, ok bool) {
	for _, sequenceNumber := range x.order {
		entry := x.entries[sequenceNumber]
		if entry.send != sendQueued {
			// already on the wire or done; does not gate its successors
			continue
		}
		if entry.dependency != dependencyResolved {
			return task.Spec{}, false, false
		}
		entry.send = sendInFlight
		return entry.spec, false, true
	}
	return task.Spec{}, false, false
}

// markTaskInFlightAgain demotes an in-flight entry back to queued so the next
// drain re-sends it. Used when the finisher schedules a retry after a failed
// push. Absent sequence numbers are ignored.
func (x *submitQueue) markTaskInFlightAgain(sequenceNumber uint64) {
	if entry, ok := x.entries[sequenceNumber]; ok && entry.send == sendInFlight {
		entry.send = sendQueued
	}
}

// markTaskCompleted records the task's completion. Completed entries are
// retained: the server may restart with its execution counter reset, and the
// next connection replays them as skip-execution pushes to bring the counter
// forward. They are released by that replay, or by clearAllTasks on permanent
// death. Absent sequence numbers are ignored: replies for entries already
// replayed or cleared carry no state.
func (x *submitQueue) markTaskCompleted(sequenceNumber uint64, _ task.Spec) {
	if entry, ok := x.entries[sequenceNumber]; ok {
		entry.send = sendCompleted
	}
}

// popAllOutOfOrderCompletedTasks removes and returns, in ascending sequence
// order, every entry whose reply arrived on a previous channel. On
// reconnection these are replayed with the skip-execution flag so a restarted
// server advances its execution counter without re-running the methods.
func (x *submitQueue) popAllOutOfOrderCompletedTasks() []sequencedSpec {
	var completed []sequencedSpec
	for _, sequenceNumber := range x.order {
		entry := x.entries[sequenceNumber]
		if entry.send == sendCompleted {
			completed = append(completed, sequencedSpec{sequenceNumber: sequenceNumber, spec: entry.spec})
		}
	}
	for _, popped := range completed {
		x.remove(popped.sequenceNumber)
	}
	return completed
}

// clearAllTasks drops every entry and returns the task ids of those that were
// never pushed, so the caller can fail them. In-flight entries are excluded:
// their reply callbacks are flushed separately and deliver the failure there.
func (x *submitQueue) clearAllTasks() []id.TaskID {
	var dropped []id.TaskID
	for _, sequenceNumber := range x.order {
		entry := x.entries[sequenceNumber]
		if entry.send == sendQueued {
			dropped = append(dropped, entry.spec.TaskID)
		}
	}
	x.entries = make(map[uint64]*queueEntry)
	x.order = nil
	return dropped
}

// onClientConnected is invoked when a channel to a new actor incarnation is
// established. Sending resumes by draining; entries awaiting a retry were
// already demoted when the retry was scheduled, so no state needs resetting.
func (x *submitQueue) onClientConnected() {}

// sequenceNumber returns the authoritative server-visible sequence number of
// the given task.
func (x *submitQueue) sequenceNumber(spec task.Spec) uint64 {
	return spec.ActorCounter
}

// size returns the number of entries currently held.
func (x *submitQueue) size() int {
	return len(x.entries)
}

func (x *submitQueue) remove(sequenceNumber uint64) {
	if _, ok := x.entries[sequenceNumber]; !ok {
		return
	}
	delete(x.entries, sequenceNumber)
	at, found := slices.BinarySearch(x.order, sequenceNumber)
	if found {
		x.order = slices.Delete(x.order, at, at+1)
	}
}
