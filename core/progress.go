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

package core

import (
	"time"

	"github.com/emberchain/go-ember/params"
)

// progressNow is swapped out by tests.
var progressNow = func() int64 { return time.Now().Unix() }

// GuessVerificationProgress estimates the fraction of the chain's total
// transaction volume verified up to tip. The total is extrapolated from the
// checkpoint data: before the checkpoint the checkpoint's own rate estimate
// is used, past it the extrapolation starts from the tip itself.
// Returns 0 when no tip is known.
func GuessVerificationProgress(data params.TxData, tip *BlockIndex) float64 {
	if tip == nil {
		return 0
	}
	now := progressNow()

	var txTotal float64
	if tip.ChainTx <= data.TxCount {
		txTotal = float64(data.TxCount) + float64(now-data.Time)*data.TxRate
	} else {
		txTotal = float64(tip.ChainTx) + float64(now-tip.Time)*data.TxRate
	}
	if txTotal <= 0 {
		return 0
	}
	progress := float64(tip.ChainTx) / txTotal
	if progress > 1 {
		progress = 1
	}
	return progress
}
