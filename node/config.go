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

package node

import (
	"path/filepath"

	"github.com/emberchain/go-ember/log"
)

const chaindataDir = "chaindata"

// Config holds the settings of a node instance. Fields left at their zero
// value fall back to the documented defaults.
type Config struct {
	// DataDir is the instance directory holding the chain database and the
	// directory lock. An empty DataDir runs the node fully in memory.
	DataDir string `toml:",omitempty"`

	// Network selects the chain parameters. Empty means mainnet.
	Network string `toml:",omitempty"`

	// Port is the peer listening port, used for NAT port mapping.
	Port int `toml:",omitempty"`

	// NAT is the port mapping mechanism description ("any", "upnp",
	// "pmp:192.168.0.1", "extip:77.12.33.4", "none").
	NAT string `toml:",omitempty"`

	// EnableWallet turns on the in-process wallet subsystem. When false,
	// every wallet path of the façade fails with a capability error.
	EnableWallet bool `toml:",omitempty"`

	// Logger is a custom logger for the node. Defaults to the global logger.
	Logger log.Logger `toml:"-"`
}

// DefaultConfig holds the defaults used when a field is unset.
var DefaultConfig = Config{
	Network: "mainnet",
	Port:    8585,
	NAT:     "any",
}

// chainDBDir returns the path of the chain database inside the instance
// directory, or empty for an in-memory node.
func (c *Config) chainDBDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, chaindataDir)
}
