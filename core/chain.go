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

// Package core tracks the validated state of the chain: the best known
// header, the best fully connected block, and the sync phase the node is in.
package core

import (
	"sync"
	"sync/atomic"

	"github.com/emberchain/go-ember/core/rawdb"
	"github.com/emberchain/go-ember/event"
	"github.com/emberchain/go-ember/log"
	"github.com/emberchain/go-ember/params"
)

// BlockIndex describes one entry of the chain index. Instances handed out by
// the Chain are immutable snapshots.
type BlockIndex struct {
	Height  int32 // distance from genesis
	Time    int64 // block timestamp, UNIX seconds
	ChainTx int64 // total transactions in the chain up to and including this block
}

// TipEvent is emitted when a chain tip advances. Index is an immutable
// snapshot and remains valid after the callback returns.
type TipEvent struct {
	InitialDownload bool
	Index           *BlockIndex
}

// Chain holds the current chain state. All methods are safe for concurrent
// use; queries take a consistent snapshot under the chain lock and return
// plain values.
type Chain struct {
	params *params.ChainParams
	db     *rawdb.Database // nil for a purely in-memory chain
	log    log.Logger

	mu         sync.RWMutex
	bestHeader *BlockIndex
	bestBlock  *BlockIndex

	initialDownload atomic.Bool
	reindexing      atomic.Bool
	importing       atomic.Bool

	headerTipFeed event.Channel[TipEvent]
	blockTipFeed  event.Channel[TipEvent]
}

// NewChain creates the chain state, restoring the persisted tips when db is
// not nil.
func NewChain(p *params.ChainParams, db *rawdb.Database) (*Chain, error) {
	c := &Chain{
		params: p,
		db:     db,
		log:    log.New("network", p.Name),
	}
	c.initialDownload.Store(true)
	if db != nil {
		rec, err := db.ReadBestHeader()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			c.bestHeader = &BlockIndex{Height: rec.Height, Time: rec.Time, ChainTx: rec.ChainTx}
		}
		rec, err = db.ReadBestBlock()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			c.bestBlock = &BlockIndex{Height: rec.Height, Time: rec.Time, ChainTx: rec.ChainTx}
			c.log.Info("Restored chain tip", "height", rec.Height, "time", rec.Time)
		}
	}
	return c, nil
}

// Params returns the chain parameters.
func (c *Chain) Params() *params.ChainParams {
	return c.params
}

// ConnectHeader records a new best header and notifies subscribers. The
// event is emitted on the caller's goroutine, outside the chain lock.
func (c *Chain) ConnectHeader(index BlockIndex) {
	snap := index // callbacks see a copy, never the caller's value
	c.mu.Lock()
	c.bestHeader = &snap
	// Persist while still holding the lock so the stored tip cannot fall
	// behind the in-memory one under concurrent connects.
	if c.db != nil {
		rec := rawdb.TipRecord{Height: snap.Height, Time: snap.Time, ChainTx: snap.ChainTx}
		if err := c.db.WriteBestHeader(rec); err != nil {
			c.log.Error("Failed to persist header tip", "height", snap.Height, "err", err)
		}
	}
	c.mu.Unlock()

	c.headerTipFeed.Send(TipEvent{InitialDownload: c.initialDownload.Load(), Index: &snap})
}

// ConnectBlock records a new best block and notifies subscribers. The best
// header is pulled along when it lags behind.
func (c *Chain) ConnectBlock(index BlockIndex) {
	snap := index
	c.mu.Lock()
	c.bestBlock = &snap
	if c.bestHeader == nil || c.bestHeader.Height < snap.Height {
		c.bestHeader = &snap
	}
	if c.db != nil {
		rec := rawdb.TipRecord{Height: snap.Height, Time: snap.Time, ChainTx: snap.ChainTx}
		if err := c.db.WriteBestBlock(rec); err != nil {
			c.log.Error("Failed to persist block tip", "height", snap.Height, "err", err)
		}
	}
	c.mu.Unlock()

	c.blockTipFeed.Send(TipEvent{InitialDownload: c.initialDownload.Load(), Index: &snap})
}

// SubscribeHeaderTip registers fn for header tip advances.
func (c *Chain) SubscribeHeaderTip(fn func(TipEvent)) event.Subscription {
	return c.headerTipFeed.Subscribe(fn)
}

// SubscribeBlockTip registers fn for block tip advances.
func (c *Chain) SubscribeBlockTip(fn func(TipEvent)) event.Subscription {
	return c.blockTipFeed.Subscribe(fn)
}

// HeaderTip returns the height and time of the best known header. Before any
// header is known it returns ok == false and zero values.
func (c *Chain) HeaderTip() (height int32, blockTime int64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bestHeader == nil {
		return 0, 0, false
	}
	return c.bestHeader.Height, c.bestHeader.Time, true
}

// Height returns the height of the best block, or -1 if no block beyond an
// unconnected genesis is known.
func (c *Chain) Height() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bestBlock == nil {
		return -1
	}
	return c.bestBlock.Height
}

// LastBlockTime returns the timestamp of the best block, falling back to the
// genesis time of the configured network.
func (c *Chain) LastBlockTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bestBlock != nil {
		return c.bestBlock.Time
	}
	return c.params.GenesisTime
}

// BestBlock returns a snapshot of the best block index, or nil.
func (c *Chain) BestBlock() *BlockIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bestBlock == nil {
		return nil
	}
	snap := *c.bestBlock
	return &snap
}

// VerificationProgress estimates how much of the chain's total transaction
// volume has been verified, in [0..1].
func (c *Chain) VerificationProgress() float64 {
	return GuessVerificationProgress(c.params.ChainTx, c.BestBlock())
}

// IsInitialBlockDownload reports whether the node is still catching up with
// the network.
func (c *Chain) IsInitialBlockDownload() bool {
	return c.initialDownload.Load()
}

// SetInitialBlockDownload flips the initial download flag. Validation calls
// this once the tip is within the accepted freshness window.
func (c *Chain) SetInitialBlockDownload(active bool) {
	c.initialDownload.Store(active)
}

// Reindexing reports whether a chain reindex is in progress.
func (c *Chain) Reindexing() bool { return c.reindexing.Load() }

// SetReindexing flips the reindex flag.
func (c *Chain) SetReindexing(active bool) { c.reindexing.Store(active) }

// Importing reports whether an external block import is in progress.
func (c *Chain) Importing() bool { return c.importing.Load() }

// SetImporting flips the import flag.
func (c *Chain) SetImporting(active bool) { c.importing.Store(active) }

// Close tears down the event channels. Outstanding subscriptions remain safe
// to unsubscribe.
func (c *Chain) Close() {
	c.headerTipFeed.Close()
	c.blockTipFeed.Close()
}
