// Copyright 2018 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"context"
	"fmt"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
)

// Version is the opaque concurrency-control token a store returns on read
// and checks on conditional write. Absent records have version 0.
type Version uint64

var (
	// ErrNotFound is returned when reading a key that was never written.
	ErrNotFound = errors.New("record not found")

	// ErrRejected is returned by a conditional write whose version
	// precondition no longer holds. It is a soft failure, not a fault.
	ErrRejected = errors.New("conditional write rejected")
)

// ReadItem addresses one record of a MultiRead.
type ReadItem struct {
	Table uint64
	Key   []byte
}

// ReadResult is the per-item outcome of a MultiRead.
type ReadResult struct {
	Value   []byte
	Version Version
	Err     error
}

// WriteItem is one record of a MultiWrite. When Conditional is set the
// write succeeds only while the stored version is <= MaxVersion.
type WriteItem struct {
	Table       uint64
	Key         []byte
	Value       []byte
	MaxVersion  Version
	Conditional bool
}

// StoreCreator creates a store layer.
type StoreCreator interface {
	Create(p *properties.Properties) (Store, error)
}

// Store is the client of the key-value store under test. Implementations
// are registered by name and picked on the command line.
type Store interface {
	// Close closes the store layer.
	Close() error

	// InitThread initializes the state associated to the goroutine worker.
	// The returned context will be passed to the following usage.
	InitThread(ctx context.Context, threadID int, threadCount int) context.Context

	// CleanupThread cleans up the state when the worker finished.
	CleanupThread(ctx context.Context)

	// CreateTable creates the table if needed and returns its id.
	CreateTable(ctx context.Context, name string) (uint64, error)

	// GetTableID returns the id of an existing table.
	GetTableID(ctx context.Context, name string) (uint64, error)

	// Read returns the record's value and version, or ErrNotFound.
	Read(ctx context.Context, table uint64, key []byte) ([]byte, Version, error)

	// Write upserts the record unconditionally and advances its version.
	Write(ctx context.Context, table uint64, key []byte, value []byte) error

	// ConditionalWrite upserts the record only while its stored version is
	// <= maxVersion, returning ErrRejected otherwise.
	ConditionalWrite(ctx context.Context, table uint64, key []byte, value []byte, maxVersion Version) error

	// IncrementAndGet atomically adds delta to an 8-byte little-endian
	// integer record and returns the new value. Absent records count as 0.
	IncrementAndGet(ctx context.Context, table uint64, key []byte, delta int64) (int64, error)

	// MultiRead reads a batch of records, one result per item. Only a
	// transport fault is reported through the error return.
	MultiRead(ctx context.Context, items []ReadItem) ([]ReadResult, error)

	// MultiWrite writes a batch of records, one status per item. A rejected
	// conditional item carries ErrRejected; siblings are unaffected.
	MultiWrite(ctx context.Context, items []WriteItem) ([]error, error)
}

var storeCreators = map[string]StoreCreator{}

// RegisterStoreCreator registers a creator for the store backend.
func RegisterStoreCreator(name string, creator StoreCreator) {
	_, ok := storeCreators[name]
	if ok {
		panic(fmt.Sprintf("duplicate register store %s", name))
	}

	storeCreators[name] = creator
}

// GetStoreCreator gets the StoreCreator for the store backend.
func GetStoreCreator(name string) StoreCreator {
	return storeCreators[name]
}
