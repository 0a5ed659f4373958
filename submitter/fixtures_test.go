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
	"sync"

	"go.uber.org/atomic"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/remote"
	"github.com/tochemey/taskmesh/task"
)

// pushRecord captures one push observed by a fake channel.
type pushRecord struct {
	request   *remote.PushTaskRequest
	skipQueue bool
	callback  remote.ReplyCallback
}

// fakeChannel records pushes and lets the test deliver replies at will.
type fakeChannel struct {
	mu            sync.Mutex
	address       remote.Address
	pushes        []pushRecord
	kills         []*remote.KillRequest
	processedUpTo int64
}

var _ remote.Channel = (*fakeChannel)(nil)

func newFakeChannel(address remote.Address) *fakeChannel {
	return &fakeChannel{address: address, processedUpTo: -1}
}

func (x *fakeChannel) PushActorTask(request *remote.PushTaskRequest, skipQueue bool, callback remote.ReplyCallback) {
	x.mu.Lock()
	x.pushes = append(x.pushes, pushRecord{request: request, skipQueue: skipQueue, callback: callback})
	x.mu.Unlock()
}

func (x *fakeChannel) KillActor(request *remote.KillRequest, callback func(error)) {
	x.mu.Lock()
	x.kills = append(x.kills, request)
	x.mu.Unlock()
	if callback != nil {
		callback(nil)
	}
}

func (x *fakeChannel) Address() remote.Address { return x.address }

func (x *fakeChannel) ClientProcessedUpToSeqno() int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.processedUpTo
}

func (x *fakeChannel) setProcessedUpTo(seqno int64) {
	x.mu.Lock()
	x.processedUpTo = seqno
	x.mu.Unlock()
}

func (x *fakeChannel) pushCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pushes)
}

func (x *fakeChannel) push(i int) pushRecord {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.pushes[i]
}

func (x *fakeChannel) allPushes() []pushRecord {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]pushRecord(nil), x.pushes...)
}

func (x *fakeChannel) killCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.kills)
}

func (x *fakeChannel) kill(i int) *remote.KillRequest {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.kills[i]
}

// reply delivers the outcome of the i-th push on the test goroutine.
func (x *fakeChannel) reply(i int, err error, reply *remote.PushTaskReply) {
	x.mu.Lock()
	callback := x.pushes[i].callback
	x.mu.Unlock()
	callback(err, reply)
}

// fakePool hands out fake channels keyed by worker and records disconnects.
type fakePool struct {
	mu          sync.Mutex
	channels    map[id.WorkerID]*fakeChannel
	disconnects []id.WorkerID
}

var _ remote.Pool = (*fakePool)(nil)

func newFakePool() *fakePool {
	return &fakePool{channels: make(map[id.WorkerID]*fakeChannel)}
}

func (x *fakePool) GetOrConnect(address remote.Address) remote.Channel {
	x.mu.Lock()
	defer x.mu.Unlock()
	if channel, ok := x.channels[address.WorkerID]; ok {
		return channel
	}
	channel := newFakeChannel(address)
	x.channels[address.WorkerID] = channel
	return channel
}

func (x *fakePool) Disconnect(workerID id.WorkerID) {
	x.mu.Lock()
	delete(x.channels, workerID)
	x.disconnects = append(x.disconnects, workerID)
	x.mu.Unlock()
}

// channelTo returns the fake channel the pool handed out for the worker.
func (x *fakePool) channelTo(workerID id.WorkerID) *fakeChannel {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.channels[workerID]
}

// manualResolver parks resolution callbacks until the test releases them.
type manualResolver struct {
	mu      sync.Mutex
	pending map[id.TaskID]func(error)
}

var _ DependencyResolver = (*manualResolver)(nil)

func newManualResolver() *manualResolver {
	return &manualResolver{pending: make(map[id.TaskID]func(error))}
}

func (x *manualResolver) ResolveDependencies(spec task.Spec, callback func(error)) {
	x.mu.Lock()
	x.pending[spec.TaskID] = callback
	x.mu.Unlock()
}

func (x *manualResolver) resolve(taskID id.TaskID, err error) {
	x.mu.Lock()
	callback := x.pending[taskID]
	delete(x.pending, taskID)
	x.mu.Unlock()
	callback(err)
}

// immediateResolver fires the callback synchronously, before
// ResolveDependencies returns, exercising the same-call-stack case.
type immediateResolver struct {
	err error
}

var _ DependencyResolver = (*immediateResolver)(nil)

func (x *immediateResolver) ResolveDependencies(_ task.Spec, callback func(error)) {
	callback(x.err)
}

// finisherEvent captures one finisher invocation.
type finisherEvent struct {
	method              string
	taskID              id.TaskID
	kind                ErrorKind
	cause               error
	creationTaskFailure *anypb.Any
	immediate           bool
	spec                task.Spec
	workerAddress       remote.Address
}

// fakeFinisher records every call. The optional guard runs at the top of each
// method: pointing it at a submitter operation that takes the lock turns
// every test into a lock-discipline check, since a callback invoked under the
// submitter mutex would deadlock.
type fakeFinisher struct {
	mu        sync.Mutex
	events    []finisherEvent
	willRetry *atomic.Bool
	guard     func()
}

var _ TaskFinisher = (*fakeFinisher)(nil)

func newFakeFinisher() *fakeFinisher {
	return &fakeFinisher{willRetry: atomic.NewBool(false)}
}

func (x *fakeFinisher) CompletePendingTask(taskID id.TaskID, _ *remote.PushTaskReply, workerAddress remote.Address) {
	x.runGuard()
	x.record(finisherEvent{method: "CompletePendingTask", taskID: taskID, workerAddress: workerAddress})
}

func (x *fakeFinisher) PendingTaskFailed(taskID id.TaskID, kind ErrorKind, cause error, creationTaskFailure *anypb.Any, immediate bool) bool {
	x.runGuard()
	x.record(finisherEvent{
		method:              "PendingTaskFailed",
		taskID:              taskID,
		kind:                kind,
		cause:               cause,
		creationTaskFailure: creationTaskFailure,
		immediate:           immediate,
	})
	return x.willRetry.Load()
}

func (x *fakeFinisher) MarkTaskCanceled(taskID id.TaskID) {
	x.runGuard()
	x.record(finisherEvent{method: "MarkTaskCanceled", taskID: taskID})
}

func (x *fakeFinisher) MarkPendingTaskFailed(spec task.Spec, kind ErrorKind, creationTaskFailure *anypb.Any) {
	x.runGuard()
	x.record(finisherEvent{
		method:              "MarkPendingTaskFailed",
		taskID:              spec.TaskID,
		kind:                kind,
		creationTaskFailure: creationTaskFailure,
		spec:                spec,
	})
}

func (x *fakeFinisher) runGuard() {
	if x.guard != nil {
		x.guard()
	}
}

func (x *fakeFinisher) record(event finisherEvent) {
	x.mu.Lock()
	x.events = append(x.events, event)
	x.mu.Unlock()
}

func (x *fakeFinisher) snapshot() []finisherEvent {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]finisherEvent(nil), x.events...)
}

func (x *fakeFinisher) eventsOf(method string) []finisherEvent {
	var out []finisherEvent
	for _, event := range x.snapshot() {
		if event.method == method {
			out = append(out, event)
		}
	}
	return out
}

func (x *fakeFinisher) eventsFor(taskID id.TaskID) []finisherEvent {
	var out []finisherEvent
	for _, event := range x.snapshot() {
		if event.taskID == taskID {
			out = append(out, event)
		}
	}
	return out
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now *atomic.Int64
}

var _ Clock = (*fakeClock)(nil)

func newFakeClock() *fakeClock {
	return &fakeClock{now: atomic.NewInt64(1_000)}
}

func (x *fakeClock) CurrentTimeMillis() int64 {
	return x.now.Load()
}

func (x *fakeClock) advance(millis int64) {
	x.now.Add(millis)
}

// newSpec builds a task spec targeting the given actor at the given counter.
func newSpec(actorID id.ActorID, counter uint64) task.Spec {
	return task.Spec{
		TaskID:       id.NewTaskID(),
		ActorID:      actorID,
		ActorCounter: counter,
		Method:       "DoWork",
	}
}
