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

package rawdb

import "testing"

func TestTipRoundTrip(t *testing.T) {
	db := NewMemory()
	defer db.Close()

	if rec, err := db.ReadBestHeader(); err != nil || rec != nil {
		t.Fatalf("fresh db header tip: got (%v, %v), want (nil, nil)", rec, err)
	}
	if rec, err := db.ReadBestBlock(); err != nil || rec != nil {
		t.Fatalf("fresh db block tip: got (%v, %v), want (nil, nil)", rec, err)
	}

	header := TipRecord{Height: 12, Time: 1_600_007_200, ChainTx: 30}
	block := TipRecord{Height: -1, Time: 0, ChainTx: 0}
	if err := db.WriteBestHeader(header); err != nil {
		t.Fatal(err)
	}
	if err := db.WriteBestBlock(block); err != nil {
		t.Fatal(err)
	}

	rec, err := db.ReadBestHeader()
	if err != nil {
		t.Fatal(err)
	}
	if *rec != header {
		t.Errorf("header tip: got %+v, want %+v", *rec, header)
	}
	rec, err = db.ReadBestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if *rec != block {
		t.Errorf("block tip: got %+v, want %+v", *rec, block)
	}
}

func TestTipOverwrite(t *testing.T) {
	db := NewMemory()
	defer db.Close()

	if err := db.WriteBestBlock(TipRecord{Height: 1, Time: 10, ChainTx: 2}); err != nil {
		t.Fatal(err)
	}
	if err := db.WriteBestBlock(TipRecord{Height: 2, Time: 20, ChainTx: 5}); err != nil {
		t.Fatal(err)
	}
	rec, err := db.ReadBestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Height != 2 || rec.Time != 20 || rec.ChainTx != 5 {
		t.Errorf("overwritten tip: got %+v", *rec)
	}
}

func TestOnDiskReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.WriteBestHeader(TipRecord{Height: 7, Time: 70, ChainTx: 9}); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	rec, err := db.ReadBestHeader()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Height != 7 {
		t.Errorf("reopened header tip: got %+v", rec)
	}
}
