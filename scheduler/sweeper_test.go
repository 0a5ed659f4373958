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

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/taskmesh/log"
)

type countingSweeper struct {
	sweeps *atomic.Int32
}

func (x *countingSweeper) CheckTimeoutTasks() {
	x.sweeps.Inc()
}

func TestTimeoutSweeper(t *testing.T) {
	ctx := context.Background()
	sweeper := &countingSweeper{sweeps: atomic.NewInt32(0)}

	timeoutSweeper := NewTimeoutSweeper(sweeper, 20*time.Millisecond,
		WithSweeperLogger(log.DiscardLogger))
	require.NoError(t, timeoutSweeper.Start(ctx))
	assert.True(t, timeoutSweeper.Started())

	assert.Eventually(t, func() bool {
		return sweeper.sweeps.Load() >= 2
	}, time.Second, 10*time.Millisecond)

	timeoutSweeper.Stop(ctx)
	assert.False(t, timeoutSweeper.Started())
}

func TestTimeoutSweeperStopWithoutStart(t *testing.T) {
	sweeper := &countingSweeper{sweeps: atomic.NewInt32(0)}
	timeoutSweeper := NewTimeoutSweeper(sweeper, time.Second, WithSweeperLogger(log.DiscardLogger))
	// stopping a sweeper that never started is a no-op
	timeoutSweeper.Stop(context.Background())
	assert.Zero(t, sweeper.sweeps.Load())
}
