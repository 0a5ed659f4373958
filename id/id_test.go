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

package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorID(t *testing.T) {
	actorID := NewActorID()
	assert.False(t, actorID.IsNil())
	assert.Len(t, actorID.Bytes(), Size)
	assert.Len(t, actorID.String(), 2*Size)

	roundTripped, err := ActorIDFromBytes(actorID.Bytes())
	require.NoError(t, err)
	assert.Equal(t, actorID, roundTripped)

	_, err = ActorIDFromBytes([]byte("too short"))
	assert.Error(t, err)
}

func TestIDsAreMapKeys(t *testing.T) {
	taskID := NewTaskID()
	index := map[TaskID]int{taskID: 1}
	assert.Equal(t, 1, index[taskID])
}

func TestHashIsStable(t *testing.T) {
	workerID := NewWorkerID()
	assert.Equal(t, workerID.Hash(), workerID.Hash())

	other := NewWorkerID()
	assert.NotEqual(t, workerID.Hash(), other.Hash())
}

func TestZeroValueIsNil(t *testing.T) {
	var objectID ObjectID
	assert.True(t, objectID.IsNil())
	assert.False(t, NewObjectID().IsNil())
}
