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

// Package rawdb holds the low-level chain state accessors backed by leveldb.
package rawdb

import (
	"encoding/binary"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lverrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/emberchain/go-ember/log"
)

var (
	bestHeaderKey = []byte("BestHeader")
	bestBlockKey  = []byte("BestBlock")
)

// ErrCorrupt is returned when a stored record does not decode.
var ErrCorrupt = errors.New("rawdb: corrupt record")

// TipRecord is the persisted form of a chain tip.
type TipRecord struct {
	Height  int32
	Time    int64
	ChainTx int64
}

// Database is a thin wrapper around a leveldb key/value store holding the
// persisted chain state of one node instance.
type Database struct {
	db  *leveldb.DB
	log log.Logger
}

// Open opens (or creates) the chain database in the given directory.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
	})
	if _, corrupted := err.(*lverrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Database{db: db, log: log.New("database", path)}, nil
}

// NewMemory returns a database backed by an in-memory store, for tests and
// ephemeral nodes.
func NewMemory() *Database {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err) // memory storage cannot fail to open
	}
	return &Database{db: db, log: log.New("database", "memory")}
}

// Close flushes and releases the underlying store.
func (d *Database) Close() error {
	return d.db.Close()
}

// ReadBestHeader retrieves the persisted header tip, if any.
func (d *Database) ReadBestHeader() (*TipRecord, error) {
	return d.readTip(bestHeaderKey)
}

// WriteBestHeader persists the header tip.
func (d *Database) WriteBestHeader(rec TipRecord) error {
	return d.writeTip(bestHeaderKey, rec)
}

// ReadBestBlock retrieves the persisted block tip, if any.
func (d *Database) ReadBestBlock() (*TipRecord, error) {
	return d.readTip(bestBlockKey)
}

// WriteBestBlock persists the block tip.
func (d *Database) WriteBestBlock(rec TipRecord) error {
	return d.writeTip(bestBlockKey, rec)
}

func (d *Database) readTip(key []byte) (*TipRecord, error) {
	data, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) != 20 {
		d.log.Error("Invalid tip record", "key", string(key), "size", len(data))
		return nil, ErrCorrupt
	}
	return &TipRecord{
		Height:  int32(binary.BigEndian.Uint32(data[0:4])),
		Time:    int64(binary.BigEndian.Uint64(data[4:12])),
		ChainTx: int64(binary.BigEndian.Uint64(data[12:20])),
	}, nil
}

func (d *Database) writeTip(key []byte, rec TipRecord) error {
	var data [20]byte
	binary.BigEndian.PutUint32(data[0:4], uint32(rec.Height))
	binary.BigEndian.PutUint64(data[4:12], uint64(rec.Time))
	binary.BigEndian.PutUint64(data[12:20], uint64(rec.ChainTx))
	return d.db.Put(key, data[:], nil)
}
