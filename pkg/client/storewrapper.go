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

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/measurement"
)

// StoreWrapper times every store call and feeds the per-operation
// histograms.
type StoreWrapper struct {
	Store bench.Store
}

func measure(start time.Time, op string, err error) {
	lan := time.Now().Sub(start)
	if err != nil {
		measurement.Measure(fmt.Sprintf("%s_ERROR", op), start, lan)
		return
	}

	measurement.Measure(op, start, lan)
}

func (s StoreWrapper) Close() error {
	return s.Store.Close()
}

func (s StoreWrapper) InitThread(ctx context.Context, threadID int, threadCount int) context.Context {
	return s.Store.InitThread(ctx, threadID, threadCount)
}

func (s StoreWrapper) CleanupThread(ctx context.Context) {
	s.Store.CleanupThread(ctx)
}

func (s StoreWrapper) CreateTable(ctx context.Context, name string) (uint64, error) {
	return s.Store.CreateTable(ctx, name)
}

func (s StoreWrapper) GetTableID(ctx context.Context, name string) (uint64, error) {
	return s.Store.GetTableID(ctx, name)
}

func (s StoreWrapper) Read(ctx context.Context, table uint64, key []byte) (_ []byte, _ bench.Version, err error) {
	start := time.Now()
	defer func() {
		measure(start, "READ", err)
	}()

	return s.Store.Read(ctx, table, key)
}

func (s StoreWrapper) Write(ctx context.Context, table uint64, key []byte, value []byte) (err error) {
	start := time.Now()
	defer func() {
		measure(start, "WRITE", err)
	}()

	return s.Store.Write(ctx, table, key, value)
}

func (s StoreWrapper) ConditionalWrite(ctx context.Context, table uint64, key []byte, value []byte, maxVersion bench.Version) (err error) {
	start := time.Now()
	defer func() {
		measure(start, "COND_WRITE", err)
	}()

	return s.Store.ConditionalWrite(ctx, table, key, value, maxVersion)
}

func (s StoreWrapper) IncrementAndGet(ctx context.Context, table uint64, key []byte, delta int64) (_ int64, err error) {
	start := time.Now()
	defer func() {
		measure(start, "INCREMENT", err)
	}()

	return s.Store.IncrementAndGet(ctx, table, key, delta)
}

func (s StoreWrapper) MultiRead(ctx context.Context, items []bench.ReadItem) (_ []bench.ReadResult, err error) {
	start := time.Now()
	defer func() {
		measure(start, "MULTI_READ", err)
	}()

	return s.Store.MultiRead(ctx, items)
}

func (s StoreWrapper) MultiWrite(ctx context.Context, items []bench.WriteItem) (_ []error, err error) {
	start := time.Now()
	defer func() {
		measure(start, "MULTI_WRITE", err)
	}()

	return s.Store.MultiWrite(ctx, items)
}
