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

package connmgr

import (
	"net"
	"testing"
	"time"

	"github.com/emberchain/go-ember/connmgr/nat"
)

func TestNodeCount(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	m.AddPeer(1, true)
	m.AddPeer(2, true)
	m.AddPeer(3, false)

	if got := m.NodeCount(ConnDirIn); got != 2 {
		t.Errorf("inbound count: got %d, want 2", got)
	}
	if got := m.NodeCount(ConnDirOut); got != 1 {
		t.Errorf("outbound count: got %d, want 1", got)
	}
	if got := m.NodeCount(ConnDirBoth); got != 3 {
		t.Errorf("total count: got %d, want 3", got)
	}

	m.RemovePeer(2)
	if got := m.NodeCount(ConnDirBoth); got != 2 {
		t.Errorf("total count after remove: got %d, want 2", got)
	}
}

func TestConnectionEvents(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	var counts []int
	sub := m.SubscribeConnections(func(count int) {
		counts = append(counts, count)
	})
	defer sub.Unsubscribe()

	m.AddPeer(1, true)
	m.AddPeer(2, false)
	m.RemovePeer(1)

	want := []int{1, 2, 1}
	if len(counts) != len(want) {
		t.Fatalf("got %d events, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("event %d: got count %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestSetNetworkActive(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	var events []bool
	sub := m.SubscribeNetworkActive(func(active bool) {
		events = append(events, active)
	})
	defer sub.Unsubscribe()

	if !m.NetworkActive() {
		t.Fatal("network should start active")
	}
	m.SetNetworkActive(true) // no change, no event
	m.SetNetworkActive(false)
	m.SetNetworkActive(false) // no change, no event
	m.SetNetworkActive(true)

	want := []bool{false, true}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, events[i], want[i])
		}
	}
}

func TestBanList(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	changes := 0
	sub := m.SubscribeBannedList(func() { changes++ })
	defer sub.Unsubscribe()

	until := time.Now().Add(time.Hour)
	m.BanAddress("192.0.2.1", until)
	if changes != 1 {
		t.Fatalf("got %d ban list changes, want 1", changes)
	}
	banned := m.Banned()
	if len(banned) != 1 || banned[0].Address != "192.0.2.1" {
		t.Fatalf("unexpected ban list %v", banned)
	}
	if banned[0].Until != until.Unix() {
		t.Errorf("ban until: got %d, want %d", banned[0].Until, until.Unix())
	}

	m.UnbanAddress("192.0.2.1")
	if changes != 2 {
		t.Fatalf("got %d ban list changes, want 2", changes)
	}
	m.UnbanAddress("192.0.2.1") // not banned, no event
	if changes != 2 {
		t.Fatalf("got %d ban list changes after double unban, want 2", changes)
	}
	if len(m.Banned()) != 0 {
		t.Fatal("ban list should be empty")
	}
}

// Toggling the port mapping loop must be idempotent in both directions and
// must not deadlock on disable.
func TestMapPortToggle(t *testing.T) {
	m := New(nat.ExtIP(net.IPv4(203, 0, 113, 7)), 8585)
	defer m.Close()

	m.MapPort(true)
	m.MapPort(true) // already running, no second loop
	if m.natSub == nil {
		t.Fatal("no mapping loop after enable")
	}
	first := m.natSub

	done := make(chan struct{})
	go func() {
		m.MapPort(false)
		m.MapPort(false) // already stopped
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("MapPort(false) did not return")
	}
	if m.natSub != nil {
		t.Fatal("mapping loop still registered after disable")
	}
	select {
	case <-first.Err():
	default:
		t.Fatal("mapping subscription not terminated")
	}
}

// A manager without a mapper ignores MapPort entirely.
func TestMapPortNoMapper(t *testing.T) {
	m := New(nil, 8585)
	defer m.Close()
	m.MapPort(true)
	if m.natSub != nil {
		t.Fatal("mapping loop started without a mapper")
	}
}

func TestTrafficCounters(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	m.RecordBytesRecv(100)
	m.RecordBytesRecv(20)
	m.RecordBytesSent(7)

	if got := m.TotalBytesRecv(); got != 120 {
		t.Errorf("bytes received: got %d, want 120", got)
	}
	if got := m.TotalBytesSent(); got != 7 {
		t.Errorf("bytes sent: got %d, want 7", got)
	}
}
