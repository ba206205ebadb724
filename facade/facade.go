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

// Package facade is the stable boundary between the node's internals and
// external consumers such as a UI shell or control tooling. It exposes
// snapshot queries, fire-and-forget controls and per-event-kind subscription
// methods without leaking internal types, locks or goroutines.
//
// Callers must not hold callbacks' locks across façade calls; every Handle
// method returns immediately and the callback runs later on whichever
// goroutine emits the event.
package facade

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/emberchain/go-ember/connmgr"
	"github.com/emberchain/go-ember/event"
)

// ErrWalletUnavailable is returned by every wallet-path method when the node
// runs without wallet support. Wallet paths fail fast with this error instead
// of silently doing nothing.
var ErrWalletUnavailable = errors.New("facade: wallet support is not enabled")

// Handler is the caller-owned cancellation token for one event registration.
// Unsubscribe is idempotent and safe to call after the node has shut down.
type Handler = event.Subscription

// TipChangedFn receives chain tip advances. The progress estimate is computed
// at emission time from the tip the event describes.
type TipChangedFn func(initialDownload bool, height int32, blockTime int64, verificationProgress float64)

// Node is the primary gateway to a running node. Implementations are
// stateless wrappers; all methods are safe for concurrent use and every query
// returns a copied snapshot, never a reference into mutable internal state.
type Node interface {
	// Queries.

	// Height returns the height of the best fully connected block, or -1
	// before any block is connected.
	Height() int32
	// HeaderTip returns the best known header. Before the first header it
	// returns ok == false and the other results are unspecified.
	HeaderTip() (height int32, blockTime int64, ok bool)
	// LastBlockTime returns the timestamp of the best block, or the genesis
	// time when no block is connected.
	LastBlockTime() int64
	// VerificationProgress estimates the verified share of the chain's
	// transaction history, in [0..1].
	VerificationProgress() float64
	// IsInitialBlockDownload reports whether the node is still syncing.
	IsInitialBlockDownload() bool
	// Reindexing reports whether a chain reindex is in progress.
	Reindexing() bool
	// Importing reports whether an external block import is in progress.
	Importing() bool
	// Warnings returns the active node warnings as one display string, empty
	// when there is nothing to report. Changes to the set are announced
	// through HandleNotifyAlertChanged.
	Warnings() string
	// MempoolSize returns the number of queued transactions.
	MempoolSize() int
	// MempoolDynamicUsage returns the mempool's memory footprint in bytes.
	MempoolDynamicUsage() int64
	// NodeCount returns the number of connected peers in a direction.
	NodeCount(dir connmgr.Direction) int
	// TotalBytesRecv returns the total bytes received from all peers.
	TotalBytesRecv() uint64
	// TotalBytesSent returns the total bytes sent to all peers.
	TotalBytesSent() uint64
	// NetworkActive reports whether peer networking is enabled.
	NetworkActive() bool
	// Banned returns a snapshot of the ban list.
	Banned() []connmgr.Ban

	// Controls. These forward the command and report acceptance only; they
	// never wait for completion.

	// SetNetworkActive enables or disables peer networking.
	SetNetworkActive(active bool)
	// MapPort toggles NAT port mapping for the listening port.
	MapPort(enable bool)
	// Ban adds an address to the ban list until the given time.
	Ban(address string, until time.Time)
	// Unban removes an address from the ban list.
	Unban(address string)
	// StartShutdown requests a clean node shutdown and returns immediately.
	StartShutdown()
	// ShutdownRequested reports whether a shutdown has been requested.
	ShutdownRequested() bool
	// LoadWallet opens the named wallet. It fails with ErrWalletUnavailable
	// when the node runs without wallet support.
	LoadWallet(name string) (Wallet, error)

	// Subscriptions. Each returns a Handler owned by the caller;
	// unsubscribing it is the only way to cancel the registration.

	HandleInitMessage(fn func(message string)) Handler
	HandleMessageBox(fn func(message, caption string, style uint32) bool) Handler
	HandleQuestion(fn func(message, nonInteractiveMessage, caption string, style uint32) bool) Handler
	HandleShowProgress(fn func(title string, percent int, resumable bool)) Handler
	HandleNotifyNumConnectionsChanged(fn func(count int)) Handler
	HandleNotifyNetworkActiveChanged(fn func(active bool)) Handler
	HandleNotifyAlertChanged(fn func()) Handler
	HandleBannedListChanged(fn func()) Handler
	HandleTransactionAdded(fn func(txid string)) Handler
	HandleNotifyBlockTip(fn TipChangedFn) Handler
	HandleNotifyHeaderTip(fn TipChangedFn) Handler
	// HandleLoadWallet registers fn for wallet loads. Each loaded wallet is
	// delivered exactly once, wrapped in a fresh Wallet façade owned by the
	// callback's receiver. Fails with ErrWalletUnavailable when the node
	// runs without wallet support.
	HandleLoadWallet(fn func(Wallet)) (Handler, error)
}

// Wallet is the gateway to one loaded wallet. It holds a non-owning reference
// to the wallet; the wallet subsystem manages the wallet's lifetime.
type Wallet interface {
	// ID returns the identifier assigned when the wallet was loaded.
	ID() uuid.UUID
	// Name returns the wallet name.
	Name() string
	// Balance returns the confirmed balance in base units.
	Balance() int64
	// HandleShowProgress registers fn for long-running wallet operations
	// such as rescans.
	HandleShowProgress(fn func(title string, percent int)) Handler
}
