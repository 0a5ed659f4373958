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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/taskmesh/id"
)

func TestSubmitQueueEmplace(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)

	first := newSpec(actorID, 0)
	require.True(t, queue.emplace(0, first))
	assert.True(t, queue.contains(0))
	assert.Equal(t, first.TaskID, queue.get(0).TaskID)
	assert.Equal(t, 1, queue.size())

	// double insert at the same sequence number is rejected
	assert.False(t, queue.emplace(0, newSpec(actorID, 0)))

	assert.Panics(t, func() { queue.get(42) })
}

func TestSubmitQueueYieldsInSequenceOrder(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	require.True(t, queue.emplace(0, newSpec(actorID, 0)))
	require.True(t, queue.emplace(1, newSpec(actorID, 1)))

	// seq 1 resolves first; nothing can go out until seq 0 resolves
	queue.markDependencyResolved(1)
	_, _, ok := queue.popNextTaskToSend()
	assert.False(t, ok)

	queue.markDependencyResolved(0)
	spec, skipQueue, ok := queue.popNextTaskToSend()
	require.True(t, ok)
	assert.False(t, skipQueue)
	assert.EqualValues(t, 0, spec.ActorCounter)

	spec, _, ok = queue.popNextTaskToSend()
	require.True(t, ok)
	assert.EqualValues(t, 1, spec.ActorCounter)

	_, _, ok = queue.popNextTaskToSend()
	assert.False(t, ok)
}

func TestSubmitQueueDependencyFailureDoesNotBlockSuccessors(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	require.True(t, queue.emplace(0, newSpec(actorID, 0)))
	require.True(t, queue.emplace(1, newSpec(actorID, 1)))

	queue.markDependencyResolved(1)
	queue.markDependencyFailed(0)

	spec, _, ok := queue.popNextTaskToSend()
	require.True(t, ok)
	assert.EqualValues(t, 1, spec.ActorCounter)
	assert.False(t, queue.contains(0))
}

func TestSubmitQueueRetainsCompletedEntries(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	for seq := uint64(0); seq < 3; seq++ {
		require.True(t, queue.emplace(seq, newSpec(actorID, seq)))
		queue.markDependencyResolved(seq)
		_, _, ok := queue.popNextTaskToSend()
		require.True(t, ok)
	}

	// completed entries stay queued so a reconnection can replay them to a
	// server whose execution counter may have reset
	queue.markTaskCompleted(0, newSpec(actorID, 0))
	queue.markTaskCompleted(2, newSpec(actorID, 2))
	assert.True(t, queue.contains(0))
	assert.True(t, queue.contains(2))
	assert.Equal(t, 3, queue.size())

	// completed entries are never re-yielded by the ordered drain
	_, _, ok := queue.popNextTaskToSend()
	assert.False(t, ok)
}

func TestSubmitQueuePopAllOutOfOrderCompletedTasks(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	for seq := uint64(0); seq < 4; seq++ {
		require.True(t, queue.emplace(seq, newSpec(actorID, seq)))
		queue.markDependencyResolved(seq)
		_, _, ok := queue.popNextTaskToSend()
		require.True(t, ok)
	}

	// replies for 3 and 1 arrive; 0 and 2 are still awaiting theirs
	queue.markTaskCompleted(3, newSpec(actorID, 3))
	queue.markTaskCompleted(1, newSpec(actorID, 1))

	completed := queue.popAllOutOfOrderCompletedTasks()
	require.Len(t, completed, 2)
	assert.EqualValues(t, 1, completed[0].sequenceNumber)
	assert.EqualValues(t, 3, completed[1].sequenceNumber)

	// popped entries are gone; the unfinished ones remain
	assert.False(t, queue.contains(1))
	assert.False(t, queue.contains(3))
	assert.True(t, queue.contains(0))
	assert.True(t, queue.contains(2))

	assert.Empty(t, queue.popAllOutOfOrderCompletedTasks())
}

func TestSubmitQueueClearAllTasks(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)

	sent := newSpec(actorID, 0)
	require.True(t, queue.emplace(0, sent))
	queue.markDependencyResolved(0)
	_, _, ok := queue.popNextTaskToSend()
	require.True(t, ok)

	completed := newSpec(actorID, 1)
	require.True(t, queue.emplace(1, completed))
	queue.markDependencyResolved(1)
	_, _, ok = queue.popNextTaskToSend()
	require.True(t, ok)
	queue.markTaskCompleted(1, completed)

	unsent := newSpec(actorID, 2)
	require.True(t, queue.emplace(2, unsent))

	dropped := queue.clearAllTasks()
	// only the never-pushed task is reported; the in-flight one is failed
	// through its reply callback and the completed one already finished
	require.Len(t, dropped, 1)
	assert.Equal(t, unsent.TaskID, dropped[0])
	assert.Zero(t, queue.size())
}

func TestSubmitQueueRetryDemotesInFlightEntry(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	require.True(t, queue.emplace(0, newSpec(actorID, 0)))
	queue.markDependencyResolved(0)

	_, _, ok := queue.popNextTaskToSend()
	require.True(t, ok)

	// in-flight entries are not re-yielded
	_, _, ok = queue.popNextTaskToSend()
	require.False(t, ok)

	queue.markTaskInFlightAgain(0)
	spec, _, ok := queue.popNextTaskToSend()
	require.True(t, ok)
	assert.EqualValues(t, 0, spec.ActorCounter)
}

func TestSubmitQueueCompletionOfUnknownSequenceIsIgnored(t *testing.T) {
	actorID := id.NewActorID()
	queue := newSubmitQueue(actorID)
	queue.markTaskCompleted(7, newSpec(actorID, 7))
	assert.Zero(t, queue.size())
}
