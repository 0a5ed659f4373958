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

// Package remote defines the point-to-point channel abstraction the submitter
// pushes actor tasks through, and a channel pool keyed by worker.
package remote

import (
	"fmt"

	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/task"
)

// Address locates the worker process hosting an actor incarnation.
type Address struct {
	// Host is the hostname or IP of the worker.
	Host string
	// Port is the task-push RPC port of the worker.
	Port int
	// WorkerID identifies the worker process.
	WorkerID id.WorkerID
}

// HostPort returns the host:port form of the address.
func (x Address) HostPort() string {
	return fmt.Sprintf("%s:%d", x.Host, x.Port)
}

// PushTaskRequest is the payload of the actor-push RPC.
type PushTaskRequest struct {
	// Spec is the task to execute.
	Spec task.Spec
	// IntendedWorkerID is the worker the request is addressed to. The server
	// rejects requests addressed to an earlier incarnation.
	IntendedWorkerID id.WorkerID
	// SequenceNumber is the authoritative server-visible execution position.
	SequenceNumber uint64
}

// PushTaskReply is the reply of the actor-push RPC.
type PushTaskReply struct {
	// Results carries the opaque serialized return values of the invocation.
	Results []*anypb.Any
}

// KillRequest asks a worker to terminate its actor.
type KillRequest struct {
	// IntendedActorID is the actor to terminate.
	IntendedActorID id.ActorID
	// ForceKill terminates the actor without a clean exit.
	ForceKill bool
	// NoRestart prevents the runtime from restarting the killed actor.
	NoRestart bool
}

// ReplyCallback delivers the outcome of a push. A nil error carries a reply;
// a non-nil error indicates a network-level failure and the reply is nil.
type ReplyCallback func(err error, reply *PushTaskReply)

// Channel is a connection to one worker. Implementations must be safe for
// concurrent use and must invoke callbacks asynchronously: a callback fired
// from within PushActorTask or KillActor would deadlock the caller, which may
// hold its own lock across the call.
type Channel interface {
	// PushActorTask enqueues the request for delivery. When skipQueue is true
	// the request bypasses the channel's ordered send queue; it is used for
	// restart-time resends that carry their original sequence number.
	PushActorTask(request *PushTaskRequest, skipQueue bool, callback ReplyCallback)
	// KillActor delivers a kill request. The callback may be nil for
	// fire-and-forget semantics.
	KillActor(request *KillRequest, callback func(error))
	// Address returns the address this channel is connected to.
	Address() Address
	// ClientProcessedUpToSeqno returns the highest sequence number the server
	// acknowledged processing on this channel, or -1 when unknown. It is a
	// hint used only for backlog accounting.
	ClientProcessedUpToSeqno() int64
}

// Pool hands out channels to workers and tears them down. Implementations
// must be safe for concurrent use.
type Pool interface {
	// GetOrConnect returns the channel to the given worker, establishing it if
	// needed. It never fails: connection establishment is allowed to be lazy,
	// and a channel to an unreachable worker surfaces failures through push
	// callbacks.
	GetOrConnect(address Address) Channel
	// Disconnect tears down the channel to the given worker, if any.
	Disconnect(workerID id.WorkerID)
}
