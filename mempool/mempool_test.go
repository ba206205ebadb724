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

package mempool

import (
	"errors"
	"testing"
)

func TestAddRemove(t *testing.T) {
	p := New()
	defer p.Close()

	if err := p.Add(Entry{ID: "a", Size: 100}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(Entry{ID: "a", Size: 100}); !errors.Is(err, ErrAlreadyKnown) {
		t.Fatalf("duplicate add: got %v, want ErrAlreadyKnown", err)
	}
	if got := p.Size(); got != 1 {
		t.Errorf("size: got %d, want 1", got)
	}

	p.Remove("a")
	p.Remove("a") // removing twice is harmless
	if got := p.Size(); got != 0 {
		t.Errorf("size after remove: got %d, want 0", got)
	}
	if got := p.DynamicMemoryUsage(); got != 0 {
		t.Errorf("usage after remove: got %d, want 0", got)
	}
}

func TestMemoryAccounting(t *testing.T) {
	p := New()
	defer p.Close()

	if err := p.Add(Entry{ID: "a", Size: 100}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(Entry{ID: "b", Size: 250}); err != nil {
		t.Fatal(err)
	}
	want := int64(100 + 250 + 2*entryOverhead)
	if got := p.DynamicMemoryUsage(); got != want {
		t.Errorf("usage: got %d, want %d", got, want)
	}
}

func TestTransactionEvents(t *testing.T) {
	p := New()
	defer p.Close()

	var ids []string
	sub := p.SubscribeTransactions(func(e Entry) { ids = append(ids, e.ID) })

	p.Add(Entry{ID: "a"})
	p.Add(Entry{ID: "a"}) // rejected, no event
	p.Add(Entry{ID: "b"})
	sub.Unsubscribe()
	p.Add(Entry{ID: "c"})

	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("got events %v, want [a b]", ids)
	}
}
