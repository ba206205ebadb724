// Copyright 2024 The go-ember Authors
// This file is part of go-ember.
//
// go-ember is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ember is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ember. If not, see <http://www.gnu.org/licenses/>.

// ember is the command-line node for the Ember network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/emberchain/go-ember/event"
	"github.com/emberchain/go-ember/facade"
	"github.com/emberchain/go-ember/internal/debug"
	"github.com/emberchain/go-ember/internal/flags"
	"github.com/emberchain/go-ember/log"
	"github.com/emberchain/go-ember/node"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.EmberCategory,
	}
	dataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the database and the instance lock",
		Category: flags.EmberCategory,
	}
	networkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Name of the network to join (mainnet, testnet)",
		Category: flags.EmberCategory,
	}
	testnetFlag = &cli.BoolFlag{
		Name:     "testnet",
		Usage:    "Shorthand for --network testnet",
		Category: flags.EmberCategory,
	}
	portFlag = &cli.IntFlag{
		Name:     "port",
		Usage:    "Peer listening port",
		Value:    node.DefaultConfig.Port,
		Category: flags.NetworkingCategory,
	}
	natFlag = &cli.StringFlag{
		Name:     "nat",
		Usage:    "Port mapping mechanism (any|none|upnp|pmp|pmp:<IP>|extip:<IP>)",
		Value:    node.DefaultConfig.NAT,
		Category: flags.NetworkingCategory,
	}
	walletFlag = &cli.BoolFlag{
		Name:     "wallet",
		Usage:    "Enable the in-process wallet subsystem",
		Category: flags.WalletCategory,
	}
)

var nodeFlags = []cli.Flag{
	configFileFlag,
	dataDirFlag,
	networkFlag,
	testnetFlag,
	portFlag,
	natFlag,
	walletFlag,
}

var app = flags.NewApp("the go-ember command line interface")

func init() {
	app.Name = "ember"
	app.Flags = flags.Merge(nodeFlags, debug.Flags)
	app.Action = emberMain
	app.Commands = []*cli.Command{
		{
			Name:        "dumpconfig",
			Usage:       "Export configuration values in TOML format (to stdout by default)",
			Action:      dumpConfig,
			Flags:       nodeFlags,
			Category:    "MISCELLANEOUS COMMANDS",
			Description: "Exports the effective configuration, after applying the config file and flags.",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// emberMain starts the node and blocks until it is shut down, either by an
// interrupt signal or through the façade.
func emberMain(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	stack, err := node.New(&cfg.Node)
	if err != nil {
		return fmt.Errorf("failed to create the node: %w", err)
	}
	defer stack.Close()

	if err := stack.Start(); err != nil {
		return fmt.Errorf("failed to start the node: %w", err)
	}

	api := stack.Attach()
	var scope event.SubscriptionScope
	defer scope.Close()
	subscribeConsole(api, &scope)

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		select {
		case sig := <-sigc:
			log.Info("Got interrupt, shutting down...", "signal", sig)
			stack.StartShutdown()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		stack.Wait()
		return nil
	})
	return g.Wait()
}

// subscribeConsole logs node events so a headless run shows sync and network
// activity. The scope keeps the handles alive until shutdown.
func subscribeConsole(api facade.Node, scope *event.SubscriptionScope) {
	scope.Track(api.HandleInitMessage(func(message string) {
		log.Info(message)
	}))
	scope.Track(api.HandleNotifyBlockTip(func(initialDownload bool, height int32, blockTime int64, progress float64) {
		log.Info("New chain tip", "height", height, "time", blockTime,
			"progress", fmt.Sprintf("%.4f", progress), "syncing", initialDownload)
	}))
	scope.Track(api.HandleNotifyHeaderTip(func(initialDownload bool, height int32, blockTime int64, progress float64) {
		log.Debug("New header tip", "height", height, "time", blockTime, "syncing", initialDownload)
	}))
	scope.Track(api.HandleNotifyNumConnectionsChanged(func(count int) {
		log.Info("Peer count changed", "peers", count)
	}))
	scope.Track(api.HandleNotifyNetworkActiveChanged(func(active bool) {
		log.Info("Network activity changed", "active", active)
	}))
	scope.Track(api.HandleShowProgress(func(title string, percent int, resumable bool) {
		log.Info("Progress", "op", title, "percent", percent)
	}))
	if h, err := api.HandleLoadWallet(func(w facade.Wallet) {
		log.Info("Wallet loaded", "name", w.Name(), "id", w.ID())
	}); err == nil {
		scope.Track(h)
	}
}
