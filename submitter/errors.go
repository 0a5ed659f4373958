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

import "errors"

// ErrorKind classifies the failures the submitter reports to the task
// finisher.
type ErrorKind int

const (
	// ErrorKindDependencyResolutionFailed indicates a task's dependencies
	// could not be resolved. Terminal for that task only.
	ErrorKindDependencyResolutionFailed ErrorKind = iota
	// ErrorKindActorDied indicates the target actor failed permanently or a
	// push could not be delivered to it.
	ErrorKindActorDied
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindDependencyResolutionFailed:
		return "DEPENDENCY_RESOLUTION_FAILED"
	case ErrorKindActorDied:
		return "ACTOR_DIED"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrDeadActor is the cause attached to tasks canceled because their
	// target actor is permanently dead.
	ErrDeadActor = errors.New("cancelling task of dead actor")

	// ErrActorStateChange is the synthetic cause delivered to in-flight reply
	// callbacks when their channel is torn down.
	ErrActorStateChange = errors.New("fail all inflight tasks due to actor state change")
)
