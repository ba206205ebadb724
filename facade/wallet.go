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
	"github.com/google/uuid"

	"github.com/emberchain/go-ember/wallet"
)

// walletFacade wraps one loaded wallet. The wallet subsystem owns the wallet;
// the façade only forwards.
type walletFacade struct {
	w *wallet.Wallet
}

func (f *walletFacade) ID() uuid.UUID { return f.w.ID() }

func (f *walletFacade) Name() string { return f.w.Name() }

func (f *walletFacade) Balance() int64 { return f.w.Balance() }

func (f *walletFacade) HandleShowProgress(fn func(title string, percent int)) Handler {
	return f.w.SubscribeProgress(func(p wallet.Progress) {
		fn(p.Title, p.Percent)
	})
}

var _ Wallet = (*walletFacade)(nil)
