// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

// Package event deals with subscriptions to real-time node events.
package event

import (
	"fmt"
	"sync"

	"github.com/emberchain/go-ember/log"
)

// Channel implements one-to-many subscriptions where events are delivered by
// invoking registered callback functions. It is the in-process analogue of a
// signal/slot connection point: the owning subsystem calls Send from whatever
// goroutine detected the state change, and every currently registered callback
// runs once with the value.
//
// Channels can be used from any number of goroutines. The internal lock is
// only held for registry bookkeeping, never while a callback executes, so a
// slow or re-entrant callback cannot block Subscribe, Unsubscribe or Close
// called from other goroutines.
//
// The zero value is ready to use.
type Channel[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]func(T)
	nextID uint64
	closed bool
}

// Subscribe registers the callback and returns the subscription controlling
// the registration. Registration ids are assigned monotonically and never
// reused, so a stale handle can never cancel a later registration.
//
// Subscribing on a closed channel returns an inert, already-unsubscribed
// subscription.
func (c *Channel[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		panic("event: Subscribe with nil callback")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return closedSubscription()
	}
	if c.subs == nil {
		c.subs = make(map[uint64]func(T))
	}
	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	activeSubscriptions.Inc()
	return &chanSub[T]{channel: c, id: id, err: make(chan error, 1)}
}

// Send invokes every callback registered at the time of the call with value,
// in unspecified order, and returns the number of callbacks invoked.
//
// The registered set is snapshotted once at the start of the pass: a callback
// registered during the pass is not invoked, and one unregistered during the
// pass stops receiving from the next pass onward. Each callback is re-resolved
// under the registry lock immediately before it runs, so a registration
// already removed at that point is skipped. The lock is not held across the
// invocation itself: an Unsubscribe that completes after the check counts the
// in-flight callback as already executing, and it is allowed to finish.
//
// A panicking callback is caught, counted and logged; it does not abort the
// pass or propagate to the caller.
func (c *Channel[T]) Send(value T) (nsent int) {
	c.mu.Lock()
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return 0
	}
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		// Re-resolve the callback under the lock. A registration removed
		// since the snapshot is skipped here; entering the callback while
		// holding nothing is what keeps re-entrant unsubscribes safe.
		c.mu.Lock()
		fn := c.subs[id]
		c.mu.Unlock()
		if fn == nil {
			continue
		}
		invoke(id, func() { fn(value) })
		nsent++
	}
	return nsent
}

// Close tears the channel down: all registrations are dropped and future
// Subscribe calls return inert subscriptions. Unsubscribing a handle obtained
// before Close remains a safe no-op. Close is idempotent.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	c.closed = true
	activeSubscriptions.Sub(float64(len(c.subs)))
	c.subs = nil
	c.mu.Unlock()
}

// Len returns the number of active registrations.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *Channel[T]) remove(id uint64) {
	c.mu.Lock()
	if _, ok := c.subs[id]; ok {
		delete(c.subs, id)
		activeSubscriptions.Dec()
	}
	c.mu.Unlock()
}

type chanSub[T any] struct {
	channel *Channel[T]
	id      uint64
	errOnce sync.Once
	err     chan error
}

func (s *chanSub[T]) Unsubscribe() {
	s.errOnce.Do(func() {
		s.channel.remove(s.id)
		close(s.err)
	})
}

func (s *chanSub[T]) Err() <-chan error {
	return s.err
}

// Query is a Channel whose subscribers answer each event with a bool. It
// carries interactive notifications (message boxes, questions) where the
// emitter needs to know whether any subscriber acknowledged.
//
// The zero value is ready to use.
type Query[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]func(T) bool
	nextID uint64
	closed bool
}

// Subscribe registers the callback. See Channel.Subscribe.
func (q *Query[T]) Subscribe(fn func(T) bool) Subscription {
	if fn == nil {
		panic("event: Subscribe with nil callback")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return closedSubscription()
	}
	if q.subs == nil {
		q.subs = make(map[uint64]func(T) bool)
	}
	q.nextID++
	id := q.nextID
	q.subs[id] = fn
	activeSubscriptions.Inc()
	return &querySub[T]{query: q, id: id, err: make(chan error, 1)}
}

// Send delivers value to every registered callback and reports whether at
// least one of them returned true. Delivery semantics match Channel.Send;
// a panicking callback counts as having answered false.
func (q *Query[T]) Send(value T) (acked bool, nsent int) {
	q.mu.Lock()
	ids := make([]uint64, 0, len(q.subs))
	for id := range q.subs {
		ids = append(ids, id)
	}
	q.mu.Unlock()

	for _, id := range ids {
		q.mu.Lock()
		fn := q.subs[id]
		q.mu.Unlock()
		if fn == nil {
			continue
		}
		invoke(id, func() {
			if fn(value) {
				acked = true
			}
		})
		nsent++
	}
	return acked, nsent
}

// Close tears the query channel down. See Channel.Close.
func (q *Query[T]) Close() {
	q.mu.Lock()
	q.closed = true
	activeSubscriptions.Sub(float64(len(q.subs)))
	q.subs = nil
	q.mu.Unlock()
}

// Len returns the number of active registrations.
func (q *Query[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

func (q *Query[T]) remove(id uint64) {
	q.mu.Lock()
	if _, ok := q.subs[id]; ok {
		delete(q.subs, id)
		activeSubscriptions.Dec()
	}
	q.mu.Unlock()
}

type querySub[T any] struct {
	query   *Query[T]
	id      uint64
	errOnce sync.Once
	err     chan error
}

func (s *querySub[T]) Unsubscribe() {
	s.errOnce.Do(func() {
		s.query.remove(s.id)
		close(s.err)
	})
}

func (s *querySub[T]) Err() <-chan error {
	return s.err
}

// invoke runs one callback, isolating the emission pass from panics.
func invoke(id uint64, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("%v", v)
			}
			callbackPanics.Inc()
			log.Error("Event subscriber callback failed", "id", id, "err", err)
		}
	}()
	fn()
}

// closedSubscription returns a subscription that is already unsubscribed.
func closedSubscription() Subscription {
	err := make(chan error)
	close(err)
	return &inertSub{err: err}
}

type inertSub struct {
	err chan error
}

func (s *inertSub) Unsubscribe() {}

func (s *inertSub) Err() <-chan error { return s.err }
