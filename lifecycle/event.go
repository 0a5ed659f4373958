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

// Package lifecycle feeds actor lifecycle notifications from the runtime's
// control plane into the task submitter.
package lifecycle

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
)

// State is the actor state announced by the control plane.
type State string

const (
	// StateAlive announces a (re)started actor reachable at the event address.
	StateAlive State = "ALIVE"
	// StateRestarting announces a failed actor awaiting a new incarnation.
	StateRestarting State = "RESTARTING"
	// StateDead announces a permanently dead actor.
	StateDead State = "DEAD"
)

// Event is one actor lifecycle notification. Binary identifiers travel
// base64-encoded; the creation-task failure travels as a serialized
// [anypb.Any].
type Event struct {
	ActorID             []byte `json:"actor_id"`
	State               State  `json:"state"`
	Host                string `json:"host,omitempty"`
	Port                int    `json:"port,omitempty"`
	WorkerID            []byte `json:"worker_id,omitempty"`
	NumRestarts         int64  `json:"num_restarts"`
	CreationTaskFailure []byte `json:"creation_task_failure,omitempty"`
}

// decodeEvent parses an event off the wire.
func decodeEvent(data []byte) (*Event, error) {
	event := new(Event)
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to decode lifecycle event: %w", err)
	}
	return event, nil
}

// actorID returns the event's actor identifier.
func (x *Event) actorID() (id.ActorID, error) {
	return id.ActorIDFromBytes(x.ActorID)
}

// workerID returns the event's worker identifier.
func (x *Event) workerID() (id.WorkerID, error) {
	return id.WorkerIDFromBytes(x.WorkerID)
}

// creationTaskFailure returns the event's creation-task failure payload, or
// nil when the actor did not die in its creation task.
func (x *Event) creationTaskFailure() (*anypb.Any, error) {
	if len(x.CreationTaskFailure) == 0 {
		return nil, nil
	}
	failure := new(anypb.Any)
	if err := proto.Unmarshal(x.CreationTaskFailure, failure); err != nil {
		return nil, fmt.Errorf("failed to decode creation task failure: %w", err)
	}
	return failure, nil
}

// EncodeEvent serializes an event for publication. It is the inverse of the
// wire decoding performed by the feed and is primarily useful to control
// plane publishers and tests.
func EncodeEvent(event *Event) ([]byte, error) {
	return json.Marshal(event)
}
