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

package flags

const (
	EmberCategory      = "EMBER"
	NetworkingCategory = "NETWORKING"
	WalletCategory     = "WALLET"
	LoggingCategory    = "LOGGING AND DEBUGGING"
	MiscCategory       = "MISC"
)
