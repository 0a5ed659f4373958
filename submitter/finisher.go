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

// TaskFinisher materializes task outcomes and owns the retry policy. It is
// externally owned and must be safe for concurrent calls. The submitter never
// invokes it while holding its lock.
type TaskFinisher interface {
	// CompletePendingTask delivers a successful reply for the given task.
	CompletePendingTask(taskID id.TaskID, reply *remote.PushTaskReply, workerAddress remote.Address)

	// PendingTaskFailed reports a task failure and returns true when the
	// finisher will schedule a retry of the task. The creation-task failure is
	// attached when the target actor died during creation.
	// immediatelyMarkObjectFail forces the task's result objects to be failed
	// right away instead of awaiting authoritative death information.
	PendingTaskFailed(taskID id.TaskID, kind ErrorKind, cause error, creationTaskFailure *anypb.Any, immediatelyMarkObjectFail bool) bool

	// MarkTaskCanceled records that the task will never run.
	MarkTaskCanceled(taskID id.TaskID)

	// MarkPendingTaskFailed fails the task's result objects with the given
	// kind. Used for tasks whose push was already attempted, where no retry
	// will happen.
	MarkPendingTaskFailed(spec task.Spec, kind ErrorKind, creationTaskFailure *anypb.Any)
}
