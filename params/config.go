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

// Package params holds the per-network chain parameters.
package params

// TxData is a historic checkpoint of the transaction volume of a network,
// used to estimate verification progress before the node has seen the whole
// chain. The numbers are refreshed at release time.
type TxData struct {
	// Time is the UNIX timestamp of the checkpoint.
	Time int64
	// TxCount is the total number of transactions in the chain up to Time.
	TxCount int64
	// TxRate is the estimated number of transactions per second after Time.
	TxRate float64
}

// ChainParams holds the parameters of one Ember network.
type ChainParams struct {
	Name        string // network name ("mainnet", "testnet", ...)
	GenesisTime int64  // UNIX timestamp of the genesis block
	ChainTx     TxData // transaction volume checkpoint
}

// MainnetParams are the parameters of the main Ember network.
var MainnetParams = &ChainParams{
	Name:        "mainnet",
	GenesisTime: 1652140800,
	ChainTx: TxData{
		Time:    1704067200,
		TxCount: 48211650,
		TxRate:  2.35,
	},
}

// TestnetParams are the parameters of the public test network.
var TestnetParams = &ChainParams{
	Name:        "testnet",
	GenesisTime: 1663804800,
	ChainTx: TxData{
		Time:    1704067200,
		TxCount: 5120034,
		TxRate:  0.4,
	},
}

// ByName returns the chain parameters of the named network, or nil if the
// name is unknown.
func ByName(name string) *ChainParams {
	switch name {
	case "", "mainnet":
		return MainnetParams
	case "testnet":
		return TestnetParams
	default:
		return nil
	}
}
