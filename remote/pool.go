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

package remote

import (
	"time"

	"github.com/flowchartsman/retry"
	"golang.org/x/sync/singleflight"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/internal/syncmap"
	"github.com/tochemey/taskmesh/log"
)

// Dialer establishes a channel to the worker at the given address.
type Dialer func(address Address) (Channel, error)

// ChannelPool is a Pool that caches one channel per worker. Concurrent
// GetOrConnect calls for the same worker share a single dial, and dial
// attempts are retried with exponential backoff before giving up.
type ChannelPool struct {
	dialer   Dialer
	channels *syncmap.SyncMap[id.WorkerID, Channel]
	group    singleflight.Group
	logger   log.Logger

	dialAttempts int
	dialMinDelay time.Duration
	dialMaxDelay time.Duration
}

// enforce compilation error
var _ Pool = (*ChannelPool)(nil)

// PoolOption configures a ChannelPool.
type PoolOption func(pool *ChannelPool)

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger log.Logger) PoolOption {
	return func(pool *ChannelPool) {
		pool.logger = logger
	}
}

// WithDialRetry tunes the dial retry policy.
func WithDialRetry(attempts int, minDelay, maxDelay time.Duration) PoolOption {
	return func(pool *ChannelPool) {
		pool.dialAttempts = attempts
		pool.dialMinDelay = minDelay
		pool.dialMaxDelay = maxDelay
	}
}

// NewChannelPool creates a ChannelPool dialing through the given Dialer.
func NewChannelPool(dialer Dialer, opts ...PoolOption) *ChannelPool {
	pool := &ChannelPool{
		dialer:       dialer,
		channels:     syncmap.New[id.WorkerID, Channel](),
		logger:       log.DiscardLogger,
		dialAttempts: 3,
		dialMinDelay: 100 * time.Millisecond,
		dialMaxDelay: time.Second,
	}

	for _, opt := range opts {
		opt(pool)
	}

	return pool
}

// GetOrConnect returns the channel to the given worker, dialing it on first
// use. When the dial ultimately fails the returned channel fails every push,
// which routes the failure through the caller's normal reply handling.
func (x *ChannelPool) GetOrConnect(address Address) Channel {
	if channel, ok := x.channels.Get(address.WorkerID); ok {
		return channel
	}

	result, _, _ := x.group.Do(address.WorkerID.String(), func() (any, error) {
		if channel, ok := x.channels.Get(address.WorkerID); ok {
			return channel, nil
		}

		var channel Channel
		retrier := retry.NewRetrier(x.dialAttempts, x.dialMinDelay, x.dialMaxDelay)
		err := retrier.Run(func() error {
			dialed, err := x.dialer(address)
			if err != nil {
				return err
			}
			channel = dialed
			return nil
		})
		if err != nil {
			x.logger.Warnf("failed to dial worker=%s addr=%s: %v", address.WorkerID, address.HostPort(), err)
			channel = &unreachableChannel{address: address, cause: err}
		}

		x.channels.Set(address.WorkerID, channel)
		return channel, nil
	})

	return result.(Channel)
}

// Disconnect drops the cached channel to the given worker.
func (x *ChannelPool) Disconnect(workerID id.WorkerID) {
	if _, ok := x.channels.Pop(workerID); ok {
		x.logger.Debugf("disconnected worker=%s", workerID)
	}
}

// Len returns the number of live channels in the pool.
func (x *ChannelPool) Len() int {
	return x.channels.Len()
}

// unreachableChannel stands in for a worker that could not be dialed. Every
// push fails asynchronously with the dial error so that failures surface
// through the regular reply path instead of the connect path.
type unreachableChannel struct {
	address Address
	cause   error
}

func (x *unreachableChannel) PushActorTask(_ *PushTaskRequest, _ bool, callback ReplyCallback) {
	go callback(x.cause, nil)
}

func (x *unreachableChannel) KillActor(_ *KillRequest, callback func(error)) {
	if callback != nil {
		go callback(x.cause)
	}
}

func (x *unreachableChannel) Address() Address {
	return x.address
}

func (x *unreachableChannel) ClientProcessedUpToSeqno() int64 {
	return -1
}
