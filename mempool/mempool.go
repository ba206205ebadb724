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

// Package mempool tracks transactions waiting for inclusion in a block.
// Only the bookkeeping visible through the façade lives here; policy and
// relay belong to the owning subsystems.
package mempool

import (
	"errors"
	"sync"

	"github.com/emberchain/go-ember/event"
)

// ErrAlreadyKnown is returned when adding a transaction id twice.
var ErrAlreadyKnown = errors.New("mempool: transaction already known")

// entryOverhead approximates the bookkeeping bytes spent per entry beyond the
// serialized transaction itself.
const entryOverhead = 192

// Entry is one queued transaction.
type Entry struct {
	ID   string // transaction id, hex
	Size int64  // serialized size in bytes
	Fee  int64  // total fee in base units
	Time int64  // acceptance timestamp, UNIX seconds
}

// Pool is a concurrency-safe transaction pool with memory accounting.
//
// The zero value is not usable; create pools with New.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]Entry
	usage   int64

	txFeed event.Channel[Entry]
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{entries: make(map[string]Entry)}
}

// Add accepts a transaction into the pool.
func (p *Pool) Add(e Entry) error {
	p.mu.Lock()
	if _, ok := p.entries[e.ID]; ok {
		p.mu.Unlock()
		return ErrAlreadyKnown
	}
	p.entries[e.ID] = e
	p.usage += e.Size + entryOverhead
	p.mu.Unlock()

	p.txFeed.Send(e)
	return nil
}

// Remove drops a transaction from the pool, if present.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[id]; ok {
		p.usage -= e.Size + entryOverhead
		delete(p.entries, id)
	}
}

// Size returns the number of queued transactions.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// DynamicMemoryUsage returns the approximate memory held by the pool, in
// bytes.
func (p *Pool) DynamicMemoryUsage() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.usage
}

// SubscribeTransactions registers fn for newly accepted transactions.
func (p *Pool) SubscribeTransactions(fn func(Entry)) event.Subscription {
	return p.txFeed.Subscribe(fn)
}

// Close tears down the event channel.
func (p *Pool) Close() {
	p.txFeed.Close()
}
