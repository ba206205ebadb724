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

package wallet

import (
	"errors"
	"testing"
)

func TestLoadWallet(t *testing.T) {
	l := NewLoader()
	defer l.Close()

	var loaded []*Wallet
	sub := l.SubscribeLoadWallet(func(w *Wallet) {
		loaded = append(loaded, w)
	})
	defer sub.Unsubscribe()

	w, err := l.LoadWallet("hot")
	if err != nil {
		t.Fatalf("LoadWallet: %v", err)
	}
	if w.Name() != "hot" {
		t.Errorf("name: got %q, want %q", w.Name(), "hot")
	}
	if len(loaded) != 1 || loaded[0] != w {
		t.Fatalf("load event not delivered, got %v", loaded)
	}

	if _, err := l.LoadWallet("hot"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Fatalf("duplicate load: got %v, want ErrAlreadyLoaded", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("duplicate load must not emit, got %d events", len(loaded))
	}
}

func TestWalletIDsUnique(t *testing.T) {
	l := NewLoader()
	defer l.Close()

	w1, err := l.LoadWallet("a")
	if err != nil {
		t.Fatal(err)
	}
	w2, err := l.LoadWallet("b")
	if err != nil {
		t.Fatal(err)
	}
	if w1.ID() == w2.ID() {
		t.Fatalf("wallet ids must be unique, both %v", w1.ID())
	}
	if l.Wallet("a") != w1 || l.Wallet("b") != w2 {
		t.Fatal("loader lookup mismatch")
	}
	if got := len(l.Wallets()); got != 2 {
		t.Fatalf("got %d wallets, want 2", got)
	}
}

func TestWalletProgress(t *testing.T) {
	l := NewLoader()
	defer l.Close()

	w, err := l.LoadWallet("rescan")
	if err != nil {
		t.Fatal(err)
	}

	var got []Progress
	sub := w.SubscribeProgress(func(p Progress) { got = append(got, p) })

	w.ReportProgress("Rescanning", 10)
	w.ReportProgress("Rescanning", 100)
	sub.Unsubscribe()
	w.ReportProgress("Rescanning", 100) // after unsubscribe

	if len(got) != 2 {
		t.Fatalf("got %d progress events, want 2", len(got))
	}
	if got[0].Percent != 10 || got[1].Percent != 100 {
		t.Errorf("unexpected progress values %v", got)
	}
	if got[0].Title != "Rescanning" {
		t.Errorf("title: got %q", got[0].Title)
	}
}

func TestWalletBalance(t *testing.T) {
	l := NewLoader()
	defer l.Close()

	w, err := l.LoadWallet("funds")
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance() != 0 {
		t.Fatalf("fresh wallet balance: got %d, want 0", w.Balance())
	}
	w.SetBalance(5000)
	if w.Balance() != 5000 {
		t.Fatalf("balance: got %d, want 5000", w.Balance())
	}
}
