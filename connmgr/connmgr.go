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

// Package connmgr tracks peer connections: counts by direction, traffic
// totals, the network-active switch and the ban list. It also drives NAT port
// mapping for the listening port.
package connmgr

import (
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/emberchain/go-ember/connmgr/nat"
	"github.com/emberchain/go-ember/event"
	"github.com/emberchain/go-ember/log"
)

// Direction selects which peer connections to count.
type Direction int

const (
	ConnDirIn Direction = iota
	ConnDirOut
	ConnDirBoth
)

// Ban is one entry of the ban list.
type Ban struct {
	Address string
	Until   int64 // UNIX seconds; 0 means until removed
}

// Manager tracks the connection state of the node. All methods are safe for
// concurrent use.
type Manager struct {
	log    log.Logger
	mapper nat.Mapper
	port   int

	inbound  mapset.Set[uint64]
	outbound mapset.Set[uint64]

	bytesRecv atomic.Uint64
	bytesSent atomic.Uint64

	networkActive atomic.Bool

	mu     sync.Mutex
	banned map[string]Ban
	natSub event.Subscription // non-nil while a mapping loop runs

	connFeed   event.Channel[int]
	activeFeed event.Channel[bool]
	banFeed    event.Channel[struct{}]
}

// New creates a manager. mapper may be nil when port mapping is disabled;
// port is the listening port to map.
func New(mapper nat.Mapper, port int) *Manager {
	m := &Manager{
		log:      log.New("module", "connmgr"),
		mapper:   mapper,
		port:     port,
		inbound:  mapset.NewSet[uint64](),
		outbound: mapset.NewSet[uint64](),
		banned:   make(map[string]Ban),
	}
	m.networkActive.Store(true)
	return m
}

// AddPeer records a new peer connection and notifies subscribers with the new
// total connection count.
func (m *Manager) AddPeer(id uint64, inbound bool) {
	if inbound {
		m.inbound.Add(id)
	} else {
		m.outbound.Add(id)
	}
	m.connFeed.Send(m.NodeCount(ConnDirBoth))
}

// RemovePeer drops a peer connection and notifies subscribers.
func (m *Manager) RemovePeer(id uint64) {
	m.inbound.Remove(id)
	m.outbound.Remove(id)
	m.connFeed.Send(m.NodeCount(ConnDirBoth))
}

// NodeCount returns the number of connected peers in the given direction.
func (m *Manager) NodeCount(dir Direction) int {
	switch dir {
	case ConnDirIn:
		return m.inbound.Cardinality()
	case ConnDirOut:
		return m.outbound.Cardinality()
	default:
		return m.inbound.Cardinality() + m.outbound.Cardinality()
	}
}

// RecordBytesRecv adds to the total bytes received counter.
func (m *Manager) RecordBytesRecv(n uint64) { m.bytesRecv.Add(n) }

// RecordBytesSent adds to the total bytes sent counter.
func (m *Manager) RecordBytesSent(n uint64) { m.bytesSent.Add(n) }

// TotalBytesRecv returns the total bytes received across all peers.
func (m *Manager) TotalBytesRecv() uint64 { return m.bytesRecv.Load() }

// TotalBytesSent returns the total bytes sent across all peers.
func (m *Manager) TotalBytesSent() uint64 { return m.bytesSent.Load() }

// NetworkActive reports whether peer networking is enabled.
func (m *Manager) NetworkActive() bool {
	return m.networkActive.Load()
}

// SetNetworkActive enables or disables peer networking. Subscribers are
// notified only when the state actually changes.
func (m *Manager) SetNetworkActive(active bool) {
	if m.networkActive.Swap(active) == active {
		return
	}
	m.log.Info("Network activity changed", "active", active)
	m.activeFeed.Send(active)
}

// BanAddress adds an address to the ban list until the given time and
// notifies ban list subscribers.
func (m *Manager) BanAddress(addr string, until time.Time) {
	m.mu.Lock()
	m.banned[addr] = Ban{Address: addr, Until: until.Unix()}
	m.mu.Unlock()
	m.banFeed.Send(struct{}{})
}

// UnbanAddress removes an address from the ban list. Subscribers are notified
// only if the address was actually banned.
func (m *Manager) UnbanAddress(addr string) {
	m.mu.Lock()
	_, ok := m.banned[addr]
	delete(m.banned, addr)
	m.mu.Unlock()
	if ok {
		m.banFeed.Send(struct{}{})
	}
}

// Banned returns a snapshot of the current ban list.
func (m *Manager) Banned() []Ban {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Ban, 0, len(m.banned))
	for _, b := range m.banned {
		out = append(out, b)
	}
	return out
}

// MapPort starts or stops the NAT port mapping loop for the listening port.
// It is a no-op when no port mapper is configured. Disabling blocks until
// the mapping on the gateway has been removed.
func (m *Manager) MapPort(enable bool) {
	if m.mapper == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if enable && m.natSub == nil {
		m.natSub = event.NewSubscription(func(quit <-chan struct{}) error {
			nat.Map(m.mapper, quit, "tcp", m.port, m.port, "ember peer connections")
			return nil
		})
	} else if !enable && m.natSub != nil {
		m.natSub.Unsubscribe()
		m.natSub = nil
	}
}

// SubscribeConnections registers fn for connection count changes. The count
// passed is the new total number of peers.
func (m *Manager) SubscribeConnections(fn func(count int)) event.Subscription {
	return m.connFeed.Subscribe(fn)
}

// SubscribeNetworkActive registers fn for network activity toggles.
func (m *Manager) SubscribeNetworkActive(fn func(active bool)) event.Subscription {
	return m.activeFeed.Subscribe(fn)
}

// SubscribeBannedList registers fn for ban list changes.
func (m *Manager) SubscribeBannedList(fn func()) event.Subscription {
	return m.banFeed.Subscribe(func(struct{}) { fn() })
}

// Close stops the port mapping loop and tears down the event channels.
func (m *Manager) Close() {
	m.MapPort(false)
	m.connFeed.Close()
	m.activeFeed.Close()
	m.banFeed.Close()
}
