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

package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestChannelSendAll(t *testing.T) {
	var (
		ch     Channel[int]
		counts [9]int32
	)
	for i := range counts {
		i := i
		ch.Subscribe(func(v int) {
			if v != 42 {
				t.Errorf("callback %d: got value %d, want 42", i, v)
			}
			atomic.AddInt32(&counts[i], 1)
		})
	}
	if n := ch.Send(42); n != len(counts) {
		t.Fatalf("Send returned %d, want %d", n, len(counts))
	}
	for i := range counts {
		if c := atomic.LoadInt32(&counts[i]); c != 1 {
			t.Errorf("callback %d invoked %d times, want 1", i, c)
		}
	}
}

func TestChannelUnsubscribe(t *testing.T) {
	var (
		ch    Channel[string]
		calls int
	)
	sub := ch.Subscribe(func(string) { calls++ })
	ch.Send("a")
	sub.Unsubscribe()
	ch.Send("b")
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
	select {
	case <-sub.Err():
	default:
		t.Fatal("Err channel not closed after Unsubscribe")
	}
}

// Unsubscribing twice must be a harmless no-op.
func TestChannelUnsubscribeIdempotent(t *testing.T) {
	var ch Channel[int]
	sub := ch.Subscribe(func(int) {})
	sub.Unsubscribe()
	sub.Unsubscribe()
	if n := ch.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}
}

// A stale handle must not be able to cancel a registration made later.
func TestChannelNoIDReuse(t *testing.T) {
	var (
		ch    Channel[int]
		calls int
	)
	s1 := ch.Subscribe(func(int) { t.Error("first callback invoked") })
	s1.Unsubscribe()
	ch.Subscribe(func(int) { calls++ })
	s1.Unsubscribe()
	if n := ch.Send(0); n != 1 || calls != 1 {
		t.Fatalf("Send = %d, calls = %d, want 1, 1", n, calls)
	}
}

func TestChannelSelfUnsubscribeInCallback(t *testing.T) {
	var (
		ch    Channel[int]
		calls int
		sub   Subscription
	)
	sub = ch.Subscribe(func(int) {
		calls++
		sub.Unsubscribe()
	})
	done := make(chan struct{})
	go func() {
		ch.Send(1)
		ch.Send(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("self-unsubscribe deadlocked")
	}
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
}

func TestChannelUnsubscribeOtherInCallback(t *testing.T) {
	var (
		ch     Channel[int]
		others int32
		victim Subscription
	)
	victim = ch.Subscribe(func(int) {})
	ch.Subscribe(func(int) {
		victim.Unsubscribe()
		atomic.AddInt32(&others, 1)
	})
	for i := 0; i < 4; i++ {
		ch.Subscribe(func(int) { atomic.AddInt32(&others, 1) })
	}
	ch.Send(0)
	// The killer plus the four bystanders always run, whatever the map order.
	if n := atomic.LoadInt32(&others); n != 5 {
		t.Fatalf("%d unrelated callbacks ran, want 5", n)
	}
	if got := ch.Send(0); got != 5 {
		t.Fatalf("second Send reached %d callbacks, want 5", got)
	}
}

// A callback registered while an emission is in progress only receives
// subsequent emissions.
func TestChannelRegisterDuringSend(t *testing.T) {
	var (
		ch       Channel[int]
		nested   int32
		released = make(chan struct{})
		entered  = make(chan struct{})
	)
	ch.Subscribe(func(int) {
		close(entered)
		<-released
	})
	go ch.Send(1)
	<-entered
	ch.Subscribe(func(int) { atomic.AddInt32(&nested, 1) })
	close(released)
	if n := atomic.LoadInt32(&nested); n != 0 {
		t.Fatalf("late subscriber saw the in-flight emission %d times", n)
	}
	ch.Send(2)
	if n := atomic.LoadInt32(&nested); n != 1 {
		t.Fatalf("late subscriber invoked %d times by next emission, want 1", n)
	}
}

func TestChannelCallbackPanic(t *testing.T) {
	var (
		ch       Channel[int]
		survived int32
	)
	ch.Subscribe(func(int) { panic("boom") })
	ch.Subscribe(func(int) { atomic.AddInt32(&survived, 1) })
	ch.Subscribe(func(int) { atomic.AddInt32(&survived, 1) })
	if n := ch.Send(7); n != 3 {
		t.Fatalf("Send returned %d, want 3", n)
	}
	if n := atomic.LoadInt32(&survived); n != 2 {
		t.Fatalf("%d callbacks survived the panic, want 2", n)
	}
}

func TestChannelClose(t *testing.T) {
	var ch Channel[int]
	sub := ch.Subscribe(func(int) { t.Error("callback invoked after Close") })
	ch.Close()
	ch.Close()
	if n := ch.Send(0); n != 0 {
		t.Fatalf("Send on closed channel reached %d callbacks", n)
	}
	sub.Unsubscribe() // must not panic after teardown

	late := ch.Subscribe(func(int) { t.Error("subscribed after Close") })
	ch.Send(0)
	late.Unsubscribe()
	select {
	case <-late.Err():
	default:
		t.Fatal("subscription issued after Close is not inert")
	}
}

func TestChannelConcurrentOps(t *testing.T) {
	var (
		ch     Channel[int]
		wg     sync.WaitGroup
		emitWG sync.WaitGroup
		stop   = make(chan struct{})
	)
	// Emit continuously while other goroutines churn registrations.
	emitWG.Add(1)
	go func() {
		defer emitWG.Done()
		for {
			select {
			case <-stop:
				return
			default:
				ch.Send(1)
			}
		}
	}()
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				var calls int32
				sub := ch.Subscribe(func(int) { atomic.AddInt32(&calls, 1) })
				ch.Send(1)
				sub.Unsubscribe()
				sub.Unsubscribe()
			}
		}()
	}
	wg.Wait()
	close(stop)
	emitWG.Wait()

	// After the churn the registry must be empty again and further
	// emissions reach nobody.
	if n := ch.Len(); n != 0 {
		t.Fatalf("Len() = %d after all unsubscribes, want 0", n)
	}
	if n := ch.Send(1); n != 0 {
		t.Fatalf("Send reached %d callbacks after all unsubscribes", n)
	}
}

// Once Unsubscribe has returned with no emission in flight, no later
// emission may reach the callback.
func TestChannelNoSendAfterUnsubscribe(t *testing.T) {
	var (
		ch   Channel[int]
		dead atomic.Bool
	)
	sub := ch.Subscribe(func(int) {
		if dead.Load() {
			t.Error("callback invoked after Unsubscribe returned")
		}
	})
	for i := 0; i < 10; i++ {
		ch.Send(i)
	}
	sub.Unsubscribe()
	dead.Store(true)
	for i := 0; i < 10; i++ {
		if n := ch.Send(i); n != 0 {
			t.Fatalf("Send reached %d callbacks after Unsubscribe", n)
		}
	}
}

// Unsubscribing while the callback itself is executing must not deadlock:
// the in-flight invocation is allowed to finish and no further one starts.
func TestChannelUnsubscribeDuringCallback(t *testing.T) {
	var (
		ch       Channel[int]
		calls    int32
		entered  = make(chan struct{})
		released = make(chan struct{})
	)
	sub := ch.Subscribe(func(int) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-released
	})
	go ch.Send(1)
	<-entered

	done := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Unsubscribe blocked on an executing callback")
	}
	close(released)
	ch.Send(2)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("callback invoked %d times, want 1", n)
	}
}

func TestQuerySend(t *testing.T) {
	var q Query[string]
	acked, n := q.Send("anyone there?")
	if acked || n != 0 {
		t.Fatalf("empty query: acked=%v n=%d", acked, n)
	}

	q.Subscribe(func(string) bool { return false })
	acked, n = q.Send("msg")
	if acked || n != 1 {
		t.Fatalf("single decline: acked=%v n=%d, want false, 1", acked, n)
	}

	yes := q.Subscribe(func(string) bool { return true })
	acked, n = q.Send("msg")
	if !acked || n != 2 {
		t.Fatalf("one accept: acked=%v n=%d, want true, 2", acked, n)
	}

	yes.Unsubscribe()
	acked, _ = q.Send("msg")
	if acked {
		t.Fatal("acked after the accepting subscriber unsubscribed")
	}
}

func TestQueryCallbackPanic(t *testing.T) {
	var q Query[int]
	q.Subscribe(func(int) bool { panic("boom") })
	q.Subscribe(func(int) bool { return true })
	acked, n := q.Send(1)
	if !acked || n != 2 {
		t.Fatalf("acked=%v n=%d, want true, 2", acked, n)
	}
}
