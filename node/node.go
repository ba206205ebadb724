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

// Package node assembles the subsystems into a running instance: it owns the
// data directory, the chain database and the subsystem lifecycles, and hands
// out the façade external consumers talk to.
package node

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/emberchain/go-ember/connmgr"
	"github.com/emberchain/go-ember/connmgr/nat"
	"github.com/emberchain/go-ember/core"
	"github.com/emberchain/go-ember/core/rawdb"
	"github.com/emberchain/go-ember/facade"
	"github.com/emberchain/go-ember/log"
	"github.com/emberchain/go-ember/mempool"
	"github.com/emberchain/go-ember/notify"
	"github.com/emberchain/go-ember/params"
	"github.com/emberchain/go-ember/wallet"
)

const (
	initializingState = iota
	runningState
	closedState
)

// Node is a container for the chain, mempool, connection and wallet
// subsystems of one instance.
type Node struct {
	config  *Config
	log     log.Logger
	dirLock *flock.Flock // prevents concurrent use of the instance directory

	db      *rawdb.Database
	chain   *core.Chain
	pool    *mempool.Pool
	conns   *connmgr.Manager
	wallets *wallet.Loader // nil when wallet support is disabled
	events  *notify.Events

	startStopLock sync.Mutex
	state         int

	stop         chan struct{} // closed when a shutdown is requested
	stopOnce     sync.Once
	shutdownFlag atomic.Bool
}

// New creates a node from the given configuration. The instance directory is
// locked immediately; the subsystems start with Start.
func New(conf *Config) (*Node, error) {
	// Copy the config and resolve the datadir so later working directory
	// changes don't affect the node.
	confCopy := *conf
	conf = &confCopy
	if conf.DataDir != "" {
		absdatadir, err := filepath.Abs(conf.DataDir)
		if err != nil {
			return nil, err
		}
		conf.DataDir = absdatadir
	}
	if conf.Network == "" {
		conf.Network = DefaultConfig.Network
	}
	if conf.Logger == nil {
		conf.Logger = log.New()
	}

	chainParams := params.ByName(conf.Network)
	if chainParams == nil {
		return nil, ErrUnknownNetwork
	}

	node := &Node{
		config: conf,
		log:    conf.Logger,
		stop:   make(chan struct{}),
		events: new(notify.Events),
	}
	if err := node.openDataDir(); err != nil {
		return nil, err
	}

	var db *rawdb.Database
	if dir := conf.chainDBDir(); dir != "" {
		var err error
		db, err = rawdb.Open(dir)
		if err != nil {
			node.closeDataDir()
			return nil, err
		}
	} else {
		db = rawdb.NewMemory()
	}
	node.db = db

	chain, err := core.NewChain(chainParams, db)
	if err != nil {
		db.Close()
		node.closeDataDir()
		return nil, err
	}
	node.chain = chain
	node.pool = mempool.New()

	mapper, err := nat.Parse(conf.NAT)
	if err != nil {
		db.Close()
		node.closeDataDir()
		return nil, err
	}
	node.conns = connmgr.New(mapper, conf.Port)

	if conf.EnableWallet {
		node.wallets = wallet.NewLoader()
	}
	return node, nil
}

func (n *Node) openDataDir() error {
	if n.config.DataDir == "" {
		return nil // ephemeral
	}
	if err := os.MkdirAll(n.config.DataDir, 0700); err != nil {
		return err
	}
	// Lock the instance directory to prevent concurrent use by another
	// node instance.
	n.dirLock = flock.New(filepath.Join(n.config.DataDir, "LOCK"))
	if locked, err := n.dirLock.TryLock(); err != nil {
		return convertFileLockError(err)
	} else if !locked {
		return ErrDatadirUsed
	}
	return nil
}

func (n *Node) closeDataDir() {
	if n.dirLock != nil && n.dirLock.Locked() {
		if err := n.dirLock.Unlock(); err != nil {
			n.log.Error("Can't release datadir lock", "err", err)
		}
		n.dirLock = nil
	}
}

// Start brings the subsystems online: networking is enabled and, when a NAT
// mechanism is configured, the listening port gets mapped.
func (n *Node) Start() error {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()

	switch n.state {
	case runningState:
		return ErrNodeRunning
	case closedState:
		return ErrNodeStopped
	}
	n.state = runningState

	n.events.InitMessage("Starting network threads")
	n.conns.SetNetworkActive(true)
	n.conns.MapPort(true)
	n.events.InitMessage("Done loading")
	n.log.Info("Node started", "network", n.config.Network, "datadir", n.config.DataDir)
	return nil
}

// Close shuts the subsystems down and releases the instance directory. It
// returns ErrNodeStopped when the node was never started.
func (n *Node) Close() error {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()

	switch n.state {
	case initializingState:
		// The node was never started.
		n.doClose()
		return nil
	case runningState:
		n.doClose()
		return nil
	case closedState:
		return ErrNodeStopped
	default:
		panic("node: unknown lifecycle state")
	}
}

func (n *Node) doClose() {
	n.state = closedState
	n.StartShutdown()

	if n.wallets != nil {
		n.wallets.Close()
	}
	n.conns.Close()
	n.pool.Close()
	n.chain.Close()
	n.events.Close()
	if err := n.db.Close(); err != nil {
		n.log.Error("Failed to close chain database", "err", err)
	}
	n.closeDataDir()
	n.log.Info("Node stopped")
}

// StartShutdown requests a clean shutdown and returns immediately. The actual
// teardown happens when the owner calls Close; Wait unblocks right away.
func (n *Node) StartShutdown() {
	n.stopOnce.Do(func() {
		n.shutdownFlag.Store(true)
		close(n.stop)
	})
}

// ShutdownRequested reports whether StartShutdown has been called.
func (n *Node) ShutdownRequested() bool {
	return n.shutdownFlag.Load()
}

// Wait blocks until a shutdown is requested.
func (n *Node) Wait() {
	<-n.stop
}

// Chain exposes the chain state to in-process consumers.
func (n *Node) Chain() *core.Chain { return n.chain }

// Mempool exposes the transaction pool to in-process consumers.
func (n *Node) Mempool() *mempool.Pool { return n.pool }

// Conns exposes the connection manager to in-process consumers.
func (n *Node) Conns() *connmgr.Manager { return n.conns }

// Notifications exposes the node-level notification channels.
func (n *Node) Notifications() *notify.Events { return n.events }

// Attach returns the stable façade external consumers use to query, control
// and subscribe to this node.
func (n *Node) Attach() facade.Node {
	return facade.NewNode(facade.Backend{
		Chain:             n.chain,
		Mempool:           n.pool,
		Conns:             n.conns,
		Wallets:           n.wallets,
		Events:            n.events,
		Shutdown:          n.StartShutdown,
		ShutdownRequested: n.ShutdownRequested,
	})
}
