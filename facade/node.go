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

package facade

import (
	"time"

	"github.com/emberchain/go-ember/connmgr"
	"github.com/emberchain/go-ember/core"
	"github.com/emberchain/go-ember/mempool"
	"github.com/emberchain/go-ember/notify"
	"github.com/emberchain/go-ember/wallet"
)

// Backend collects the subsystem references a node façade forwards to. All
// references are non-owning; the node constructs and tears down the
// subsystems. Wallets is nil when wallet support is disabled.
type Backend struct {
	Chain   *core.Chain
	Mempool *mempool.Pool
	Conns   *connmgr.Manager
	Wallets *wallet.Loader
	Events  *notify.Events

	// Shutdown requests a clean node shutdown; ShutdownRequested reports
	// whether one is pending.
	Shutdown          func()
	ShutdownRequested func() bool
}

// NewNode wraps the backend in a Node façade.
func NewNode(b Backend) Node {
	return &nodeFacade{b: b}
}

type nodeFacade struct {
	b Backend
}

func (n *nodeFacade) Height() int32 {
	return n.b.Chain.Height()
}

func (n *nodeFacade) HeaderTip() (int32, int64, bool) {
	return n.b.Chain.HeaderTip()
}

func (n *nodeFacade) LastBlockTime() int64 {
	return n.b.Chain.LastBlockTime()
}

func (n *nodeFacade) VerificationProgress() float64 {
	return n.b.Chain.VerificationProgress()
}

func (n *nodeFacade) IsInitialBlockDownload() bool {
	return n.b.Chain.IsInitialBlockDownload()
}

func (n *nodeFacade) Reindexing() bool {
	return n.b.Chain.Reindexing()
}

func (n *nodeFacade) Importing() bool {
	return n.b.Chain.Importing()
}

func (n *nodeFacade) Warnings() string {
	return n.b.Events.Warnings()
}

func (n *nodeFacade) MempoolSize() int {
	return n.b.Mempool.Size()
}

func (n *nodeFacade) MempoolDynamicUsage() int64 {
	return n.b.Mempool.DynamicMemoryUsage()
}

func (n *nodeFacade) NodeCount(dir connmgr.Direction) int {
	return n.b.Conns.NodeCount(dir)
}

func (n *nodeFacade) TotalBytesRecv() uint64 {
	return n.b.Conns.TotalBytesRecv()
}

func (n *nodeFacade) TotalBytesSent() uint64 {
	return n.b.Conns.TotalBytesSent()
}

func (n *nodeFacade) NetworkActive() bool {
	return n.b.Conns.NetworkActive()
}

func (n *nodeFacade) Banned() []connmgr.Ban {
	return n.b.Conns.Banned()
}

func (n *nodeFacade) SetNetworkActive(active bool) {
	n.b.Conns.SetNetworkActive(active)
}

func (n *nodeFacade) MapPort(enable bool) {
	n.b.Conns.MapPort(enable)
}

func (n *nodeFacade) Ban(address string, until time.Time) {
	n.b.Conns.BanAddress(address, until)
}

func (n *nodeFacade) Unban(address string) {
	n.b.Conns.UnbanAddress(address)
}

func (n *nodeFacade) StartShutdown() {
	n.b.Shutdown()
}

func (n *nodeFacade) ShutdownRequested() bool {
	return n.b.ShutdownRequested()
}

func (n *nodeFacade) LoadWallet(name string) (Wallet, error) {
	if n.b.Wallets == nil {
		return nil, ErrWalletUnavailable
	}
	w, err := n.b.Wallets.LoadWallet(name)
	if err != nil {
		return nil, err
	}
	return &walletFacade{w: w}, nil
}

func (n *nodeFacade) HandleInitMessage(fn func(string)) Handler {
	return n.b.Events.HandleInitMessage(fn)
}

func (n *nodeFacade) HandleMessageBox(fn func(message, caption string, style uint32) bool) Handler {
	return n.b.Events.HandleMessageBox(func(m notify.Message) bool {
		return fn(m.Text, m.Caption, m.Style)
	})
}

func (n *nodeFacade) HandleQuestion(fn func(message, nonInteractiveMessage, caption string, style uint32) bool) Handler {
	return n.b.Events.HandleQuestion(func(q notify.Question) bool {
		return fn(q.Text, q.NonInteractiveText, q.Caption, q.Style)
	})
}

func (n *nodeFacade) HandleShowProgress(fn func(title string, percent int, resumable bool)) Handler {
	return n.b.Events.HandleShowProgress(func(p notify.Progress) {
		fn(p.Title, p.Percent, p.Resumable)
	})
}

func (n *nodeFacade) HandleNotifyNumConnectionsChanged(fn func(count int)) Handler {
	return n.b.Conns.SubscribeConnections(fn)
}

func (n *nodeFacade) HandleNotifyNetworkActiveChanged(fn func(active bool)) Handler {
	return n.b.Conns.SubscribeNetworkActive(fn)
}

func (n *nodeFacade) HandleNotifyAlertChanged(fn func()) Handler {
	return n.b.Events.HandleAlertChanged(fn)
}

func (n *nodeFacade) HandleBannedListChanged(fn func()) Handler {
	return n.b.Conns.SubscribeBannedList(fn)
}

func (n *nodeFacade) HandleTransactionAdded(fn func(txid string)) Handler {
	return n.b.Mempool.SubscribeTransactions(func(e mempool.Entry) {
		fn(e.ID)
	})
}

func (n *nodeFacade) HandleNotifyBlockTip(fn TipChangedFn) Handler {
	return n.b.Chain.SubscribeBlockTip(n.tipAdapter(fn))
}

func (n *nodeFacade) HandleNotifyHeaderTip(fn TipChangedFn) Handler {
	return n.b.Chain.SubscribeHeaderTip(n.tipAdapter(fn))
}

// tipAdapter translates the chain's internal tip event into the external
// callback tuple. The progress estimate is computed here, at emission time,
// from the tip the event carries.
func (n *nodeFacade) tipAdapter(fn TipChangedFn) func(core.TipEvent) {
	txData := n.b.Chain.Params().ChainTx
	return func(ev core.TipEvent) {
		progress := core.GuessVerificationProgress(txData, ev.Index)
		fn(ev.InitialDownload, ev.Index.Height, ev.Index.Time, progress)
	}
}

func (n *nodeFacade) HandleLoadWallet(fn func(Wallet)) (Handler, error) {
	if n.b.Wallets == nil {
		return nil, ErrWalletUnavailable
	}
	return n.b.Wallets.SubscribeLoadWallet(func(w *wallet.Wallet) {
		fn(&walletFacade{w: w})
	}), nil
}

// interface conformance check
var _ Node = (*nodeFacade)(nil)
