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

// Package wallet implements the in-process wallet backend: individual wallet
// state and the loader that opens wallets and announces them to the rest of
// the node.
package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/emberchain/go-ember/event"
	"github.com/emberchain/go-ember/log"
)

// ErrAlreadyLoaded is returned when loading a wallet name twice.
var ErrAlreadyLoaded = errors.New("wallet: already loaded")

// Progress reports a long-running wallet operation such as a rescan.
type Progress struct {
	Title   string
	Percent int // 0..100
}

// Wallet is one loaded wallet. All methods are safe for concurrent use.
type Wallet struct {
	id   uuid.UUID
	name string
	log  log.Logger

	mu      sync.RWMutex
	balance int64

	progressFeed event.Channel[Progress]
}

func newWallet(name string) *Wallet {
	id := uuid.New()
	return &Wallet{
		id:   id,
		name: name,
		log:  log.New("wallet", name, "id", id),
	}
}

// ID returns the unique identifier assigned at load time.
func (w *Wallet) ID() uuid.UUID { return w.id }

// Name returns the wallet name.
func (w *Wallet) Name() string { return w.name }

// Balance returns the confirmed balance in base units.
func (w *Wallet) Balance() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance
}

// SetBalance records a new confirmed balance.
func (w *Wallet) SetBalance(amount int64) {
	w.mu.Lock()
	w.balance = amount
	w.mu.Unlock()
}

// ReportProgress announces progress of a long-running wallet operation.
func (w *Wallet) ReportProgress(title string, percent int) {
	w.progressFeed.Send(Progress{Title: title, Percent: percent})
}

// SubscribeProgress registers fn for wallet progress reports.
func (w *Wallet) SubscribeProgress(fn func(Progress)) event.Subscription {
	return w.progressFeed.Subscribe(fn)
}

// Close tears down the wallet's event channels.
func (w *Wallet) Close() {
	w.log.Debug("Closing wallet")
	w.progressFeed.Close()
}

// Loader opens wallets and announces each load exactly once.
type Loader struct {
	log log.Logger

	mu      sync.Mutex
	wallets map[string]*Wallet

	loadFeed event.Channel[*Wallet]
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{
		log:     log.New("module", "wallet"),
		wallets: make(map[string]*Wallet),
	}
}

// LoadWallet opens the named wallet and notifies subscribers. Loading the
// same name twice fails with ErrAlreadyLoaded.
func (l *Loader) LoadWallet(name string) (*Wallet, error) {
	l.mu.Lock()
	if _, ok := l.wallets[name]; ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, name)
	}
	w := newWallet(name)
	l.wallets[name] = w
	l.mu.Unlock()

	l.log.Info("Loaded wallet", "name", name, "id", w.ID())
	l.loadFeed.Send(w)
	return w, nil
}

// Wallet returns the loaded wallet with the given name, or nil.
func (l *Loader) Wallet(name string) *Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallets[name]
}

// Wallets returns a snapshot of all loaded wallets.
func (l *Loader) Wallets() []*Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Wallet, 0, len(l.wallets))
	for _, w := range l.wallets {
		out = append(out, w)
	}
	return out
}

// SubscribeLoadWallet registers fn for wallet loads.
func (l *Loader) SubscribeLoadWallet(fn func(*Wallet)) event.Subscription {
	return l.loadFeed.Subscribe(fn)
}

// Close closes all loaded wallets and tears down the load channel.
func (l *Loader) Close() {
	l.mu.Lock()
	wallets := make([]*Wallet, 0, len(l.wallets))
	for _, w := range l.wallets {
		wallets = append(wallets, w)
	}
	l.mu.Unlock()
	for _, w := range wallets {
		w.Close()
	}
	l.loadFeed.Close()
}
