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

package lifecycle

import (
	"context"
	"errors"

	gods "github.com/Workiva/go-datastructures/queue"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/tochemey/taskmesh/id"
	"github.com/tochemey/taskmesh/log"
	"github.com/tochemey/taskmesh/remote"
)

// defaultMailboxSize bounds the number of lifecycle events buffered between
// the subscription callback and the apply goroutine.
const defaultMailboxSize = 1024

// ActorEventSink consumes the lifecycle transitions decoded by the feed. It
// is implemented by the task submitter.
type ActorEventSink interface {
	// AddActorIfUnknown registers the actor. Idempotent.
	AddActorIfUnknown(actorID id.ActorID)
	// ConnectActor announces a reachable actor incarnation.
	ConnectActor(actorID id.ActorID, address remote.Address, numRestarts int64)
	// DisconnectActor announces a failed or dead actor incarnation.
	DisconnectActor(actorID id.ActorID, numRestarts int64, dead bool, creationTaskFailure *anypb.Any)
}

// Feed subscribes to actor lifecycle notifications on a NATS subject and
// applies them, in publication order, to an ActorEventSink. The subscription
// callback only enqueues; a single apply goroutine drains the buffer so the
// sink never runs on the NATS dispatch goroutine.
type Feed struct {
	conn    *nats.Conn
	subject string
	sink    ActorEventSink
	logger  log.Logger

	// mailbox decouples the subscription callback from the apply goroutine
	mailbox *gods.RingBuffer
	// announced tracks the actors already registered with the sink
	announced mapset.Set[id.ActorID]

	started      *atomic.Bool
	subscription *nats.Subscription
	done         chan struct{}
}

// FeedOption configures the lifecycle feed.
type FeedOption func(feed *Feed)

// WithFeedLogger sets the feed logger.
func WithFeedLogger(logger log.Logger) FeedOption {
	return func(feed *Feed) {
		feed.logger = logger
	}
}

// WithMailboxSize bounds the event buffer between the subscription callback
// and the apply goroutine.
func WithMailboxSize(size uint64) FeedOption {
	return func(feed *Feed) {
		feed.mailbox = gods.NewRingBuffer(size)
	}
}

// NewFeed creates a lifecycle feed reading the given subject off the given
// NATS connection and applying events to the given sink.
func NewFeed(conn *nats.Conn, subject string, sink ActorEventSink, opts ...FeedOption) *Feed {
	feed := &Feed{
		conn:      conn,
		subject:   subject,
		sink:      sink,
		logger:    log.DefaultLogger,
		mailbox:   gods.NewRingBuffer(defaultMailboxSize),
		announced: mapset.NewSet[id.ActorID](),
		started:   atomic.NewBool(false),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(feed)
	}

	return feed
}

// Start subscribes to the lifecycle subject and starts the apply goroutine.
func (x *Feed) Start(_ context.Context) error {
	if !x.started.CompareAndSwap(false, true) {
		return nil
	}

	x.logger.Infof("starting lifecycle feed on subject=%s...", x.subject)
	subscription, err := x.conn.Subscribe(x.subject, func(msg *nats.Msg) {
		if err := x.mailbox.Put(msg.Data); err != nil && !errors.Is(err, gods.ErrDisposed) {
			x.logger.Errorf("failed to buffer lifecycle event: %v", err)
		}
	})
	if err != nil {
		x.started.Store(false)
		return err
	}

	x.subscription = subscription
	go x.applyLoop()

	x.logger.Info("lifecycle feed started.:)")
	return nil
}

// Stop unsubscribes and waits for the apply goroutine to exit. Buffered
// events that were not applied yet are dropped.
func (x *Feed) Stop(_ context.Context) error {
	if !x.started.CompareAndSwap(true, false) {
		return nil
	}

	x.logger.Info("stopping lifecycle feed...")
	if err := x.subscription.Unsubscribe(); err != nil {
		x.logger.Errorf("failed to unsubscribe lifecycle feed: %v", err)
	}

	// disposing the mailbox unblocks the apply goroutine
	x.mailbox.Dispose()
	<-x.done

	x.logger.Info("lifecycle feed stopped.:)")
	return nil
}

// Started returns true when the feed is running.
func (x *Feed) Started() bool {
	return x.started.Load()
}

func (x *Feed) applyLoop() {
	defer close(x.done)
	for {
		item, err := x.mailbox.Get()
		if err != nil {
			// the mailbox was disposed by Stop
			return
		}
		x.apply(item.([]byte))
	}
}

func (x *Feed) apply(data []byte) {
	event, err := decodeEvent(data)
	if err != nil {
		x.logger.Errorf("dropping malformed lifecycle event: %v", err)
		return
	}

	actorID, err := event.actorID()
	if err != nil {
		x.logger.Errorf("dropping lifecycle event with bad actor id: %v", err)
		return
	}

	if x.announced.Add(actorID) {
		x.sink.AddActorIfUnknown(actorID)
	}

	switch event.State {
	case StateAlive:
		workerID, err := event.workerID()
		if err != nil {
			x.logger.Errorf("dropping ALIVE event for actor=%s with bad worker id: %v", actorID, err)
			return
		}
		address := remote.Address{
			Host:     event.Host,
			Port:     event.Port,
			WorkerID: workerID,
		}
		x.sink.ConnectActor(actorID, address, event.NumRestarts)
	case StateRestarting:
		x.sink.DisconnectActor(actorID, event.NumRestarts, false, nil)
	case StateDead:
		failure, err := event.creationTaskFailure()
		if err != nil {
			x.logger.Errorf("dropping creation task failure of dead actor=%s: %v", actorID, err)
		}
		x.sink.DisconnectActor(actorID, event.NumRestarts, true, failure)
	default:
		x.logger.Errorf("dropping lifecycle event with unknown state=%s for actor=%s", event.State, actorID)
	}
}
