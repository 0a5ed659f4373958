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

// Package task defines the task specification pushed to remote actors.
package task

import (
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
)

// Spec describes one method invocation on an actor. The caller assigns
// ActorCounter; per actor it is strictly increasing and defines the order in
// which the receiving worker executes tasks.
//
// A Spec is a value type. Copy produces an independent specification whose
// flags can be flipped without affecting the original; the argument payloads
// are opaque and immutable, so they are shared between copies.
type Spec struct {
	// TaskID uniquely identifies this invocation.
	TaskID id.TaskID
	// ActorID identifies the target actor.
	ActorID id.ActorID
	// ActorCounter is the caller-assigned sequence number of this invocation.
	ActorCounter uint64
	// Method is the name of the actor method to invoke.
	Method string
	// Args carries the opaque serialized arguments of the invocation.
	Args []*anypb.Any
	// Dependencies references the objects this invocation depends upon. The
	// task may not be pushed until every dependency is available.
	Dependencies []id.ObjectID
	// SkipExecution instructs the receiving worker to advance its execution
	// counter without running the method. Set on restart-time resends of tasks
	// that already completed on a previous incarnation.
	SkipExecution bool
}

// Copy returns an independent copy of the specification.
func (x Spec) Copy() Spec {
	out := x
	out.Args = append([]*anypb.Any(nil), x.Args...)
	out.Dependencies = append([]id.ObjectID(nil), x.Dependencies...)
	return out
}
