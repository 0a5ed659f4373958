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

// Package id defines the opaque, fixed-width binary identifiers used across
// the runtime. Identifiers are plain value types so they can be used directly
// as map keys and compared with ==.
package id

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Size is the width in bytes of every identifier type.
const Size = 16

// ActorID uniquely identifies a stateful remote actor.
type ActorID [Size]byte

// TaskID uniquely identifies one method invocation on an actor.
type TaskID [Size]byte

// WorkerID uniquely identifies the worker process hosting an actor.
type WorkerID [Size]byte

// ObjectID uniquely identifies an object a task may depend upon.
type ObjectID [Size]byte

// NewActorID returns a new random ActorID.
func NewActorID() ActorID {
	return ActorID(uuid.New())
}

// NewTaskID returns a new random TaskID.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// NewWorkerID returns a new random WorkerID.
func NewWorkerID() WorkerID {
	return WorkerID(uuid.New())
}

// NewObjectID returns a new random ObjectID.
func NewObjectID() ObjectID {
	return ObjectID(uuid.New())
}

// ActorIDFromBytes builds an ActorID from its binary representation.
func ActorIDFromBytes(bytea []byte) (ActorID, error) {
	var out ActorID
	if err := fill(out[:], bytea); err != nil {
		return out, err
	}
	return out, nil
}

// TaskIDFromBytes builds a TaskID from its binary representation.
func TaskIDFromBytes(bytea []byte) (TaskID, error) {
	var out TaskID
	if err := fill(out[:], bytea); err != nil {
		return out, err
	}
	return out, nil
}

// WorkerIDFromBytes builds a WorkerID from its binary representation.
func WorkerIDFromBytes(bytea []byte) (WorkerID, error) {
	var out WorkerID
	if err := fill(out[:], bytea); err != nil {
		return out, err
	}
	return out, nil
}

// ObjectIDFromBytes builds an ObjectID from its binary representation.
func ObjectIDFromBytes(bytea []byte) (ObjectID, error) {
	var out ObjectID
	if err := fill(out[:], bytea); err != nil {
		return out, err
	}
	return out, nil
}

// Bytes returns the binary representation of the identifier.
func (x ActorID) Bytes() []byte { return append([]byte(nil), x[:]...) }

// Bytes returns the binary representation of the identifier.
func (x TaskID) Bytes() []byte { return append([]byte(nil), x[:]...) }

// Bytes returns the binary representation of the identifier.
func (x WorkerID) Bytes() []byte { return append([]byte(nil), x[:]...) }

// Bytes returns the binary representation of the identifier.
func (x ObjectID) Bytes() []byte { return append([]byte(nil), x[:]...) }

// String returns the hex representation of the identifier.
func (x ActorID) String() string { return hex.EncodeToString(x[:]) }

// String returns the hex representation of the identifier.
func (x TaskID) String() string { return hex.EncodeToString(x[:]) }

// String returns the hex representation of the identifier.
func (x WorkerID) String() string { return hex.EncodeToString(x[:]) }

// String returns the hex representation of the identifier.
func (x ObjectID) String() string { return hex.EncodeToString(x[:]) }

// Hash returns a 64-bit digest of the identifier, a compact form for log
// fields and metric attributes.
func (x ActorID) Hash() uint64 { return xxh3.Hash(x[:]) }

// Hash returns a 64-bit digest of the identifier, a compact form for log
// fields and metric attributes.
func (x TaskID) Hash() uint64 { return xxh3.Hash(x[:]) }

// Hash returns a 64-bit digest of the identifier, a compact form for log
// fields and metric attributes.
func (x WorkerID) Hash() uint64 { return xxh3.Hash(x[:]) }

// Hash returns a 64-bit digest of the identifier, a compact form for log
// fields and metric attributes.
func (x ObjectID) Hash() uint64 { return xxh3.Hash(x[:]) }

// IsNil reports whether the identifier is the zero value.
func (x ActorID) IsNil() bool { return x == ActorID{} }

// IsNil reports whether the identifier is the zero value.
func (x TaskID) IsNil() bool { return x == TaskID{} }

// IsNil reports whether the identifier is the zero value.
func (x WorkerID) IsNil() bool { return x == WorkerID{} }

// IsNil reports whether the identifier is the zero value.
func (x ObjectID) IsNil() bool { return x == ObjectID{} }

func fill(dst, src []byte) error {
	if len(src) != Size {
		return fmt.Errorf("invalid identifier length: expected %d bytes, got %d", Size, len(src))
	}
	copy(dst, src)
	return nil
}
