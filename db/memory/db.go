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

package memory

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
)

type record struct {
	value   []byte
	version bench.Version
}

// DB is an in-process versioned key-value store. Every write advances the
// record's version by one; conditional writes compare against it. It keeps
// the whole store behind one RWMutex, which is plenty for tests and for
// smoke-running workloads without a cluster.
type DB struct {
	mu        sync.RWMutex
	tables    map[string]uint64
	data      map[uint64]map[string]record
	nextTable uint64
}

// New creates an empty store.
func New() *DB {
	return &DB{
		tables: make(map[string]uint64),
		data:   make(map[uint64]map[string]record),
	}
}

func (db *DB) Close() error {
	return nil
}

func (db *DB) InitThread(ctx context.Context, _ int, _ int) context.Context {
	return ctx
}

func (db *DB) CleanupThread(_ context.Context) {
}

func (db *DB) CreateTable(_ context.Context, name string) (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if id, ok := db.tables[name]; ok {
		return id, nil
	}
	db.nextTable++
	db.tables[name] = db.nextTable
	db.data[db.nextTable] = make(map[string]record)
	return db.nextTable, nil
}

func (db *DB) GetTableID(_ context.Context, name string) (uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.tables[name]
	if !ok {
		return 0, errors.Annotatef(bench.ErrNotFound, "table %s", name)
	}
	return id, nil
}

func (db *DB) Read(_ context.Context, table uint64, key []byte) ([]byte, bench.Version, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.readLocked(table, key)
}

func (db *DB) readLocked(table uint64, key []byte) ([]byte, bench.Version, error) {
	t, ok := db.data[table]
	if !ok {
		return nil, 0, errors.Annotatef(bench.ErrNotFound, "table %d", table)
	}
	rec, ok := t[string(key)]
	if !ok {
		return nil, 0, bench.ErrNotFound
	}
	value := make([]byte, len(rec.value))
	copy(value, rec.value)
	return value, rec.version, nil
}

func (db *DB) Write(_ context.Context, table uint64, key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.writeLocked(table, key, value)
}

func (db *DB) writeLocked(table uint64, key []byte, value []byte) error {
	t, ok := db.data[table]
	if !ok {
		return errors.Annotatef(bench.ErrNotFound, "table %d", table)
	}
	old := t[string(key)]
	stored := make([]byte, len(value))
	copy(stored, value)
	t[string(key)] = record{value: stored, version: old.version + 1}
	return nil
}

func (db *DB) ConditionalWrite(_ context.Context, table uint64, key []byte, value []byte, maxVersion bench.Version) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.conditionalWriteLocked(table, key, value, maxVersion)
}

func (db *DB) conditionalWriteLocked(table uint64, key []byte, value []byte, maxVersion bench.Version) error {
	t, ok := db.data[table]
	if !ok {
		return errors.Annotatef(bench.ErrNotFound, "table %d", table)
	}
	old := t[string(key)]
	if old.version > maxVersion {
		return bench.ErrRejected
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	t[string(key)] = record{value: stored, version: old.version + 1}
	return nil
}

func (db *DB) IncrementAndGet(_ context.Context, table uint64, key []byte, delta int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.data[table]
	if !ok {
		return 0, errors.Annotatef(bench.ErrNotFound, "table %d", table)
	}
	old := t[string(key)]
	var current int64
	switch len(old.value) {
	case 0:
		current = 0
	case 8:
		current = int64(binary.LittleEndian.Uint64(old.value))
	default:
		return 0, errors.Errorf("record is not a counter, length %d", len(old.value))
	}
	current += delta
	stored := make([]byte, 8)
	binary.LittleEndian.PutUint64(stored, uint64(current))
	t[string(key)] = record{value: stored, version: old.version + 1}
	return current, nil
}

func (db *DB) MultiRead(_ context.Context, items []bench.ReadItem) ([]bench.ReadResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	results := make([]bench.ReadResult, len(items))
	for i, item := range items {
		value, version, err := db.readLocked(item.Table, item.Key)
		results[i] = bench.ReadResult{Value: value, Version: version, Err: err}
	}
	return results, nil
}

func (db *DB) MultiWrite(_ context.Context, items []bench.WriteItem) ([]error, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	statuses := make([]error, len(items))
	for i, item := range items {
		if item.Conditional {
			statuses[i] = db.conditionalWriteLocked(item.Table, item.Key, item.Value, item.MaxVersion)
		} else {
			statuses[i] = db.writeLocked(item.Table, item.Key, item.Value)
		}
	}
	return statuses, nil
}

type memoryCreator struct{}

func (memoryCreator) Create(_ *properties.Properties) (bench.Store, error) {
	return New(), nil
}

func init() {
	bench.RegisterStoreCreator("memory", memoryCreator{})
}
