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
	"sync"
	"time"

	"github.com/magiconair/properties"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/measurement"
	"github.com/pingcap/go-socialbench/pkg/prop"
)

type worker struct {
	p         *properties.Properties
	workStore bench.Store
	workload  bench.Workload
	threadID  int
	duration  time.Duration
	opsDone   int64
}

func newWorker(p *properties.Properties, threadID int, workload bench.Workload, store bench.Store) *worker {
	w := new(worker)
	w.p = p
	w.threadID = threadID
	w.workload = workload
	w.workStore = store

	minutes := p.GetFloat64(prop.RunTime, prop.RunTimeDefault)
	w.duration = time.Duration(minutes * float64(time.Minute))

	return w
}

// run does transactions until the wall clock runs out. The deadline is
// checked at the top of each iteration only, so an in-flight transaction
// always completes; the run may overrun by up to one transaction.
func (w *worker) run(ctx context.Context) {
	deadline := time.Now().Add(w.duration)

	for time.Now().Before(deadline) {
		err := w.workload.DoTransaction(ctx, w.workStore)
		if err != nil && !w.p.GetBool(prop.Silence, prop.SilenceDefault) {
			fmt.Printf("operation err: %v\n", err)
		}

		if measurement.IsWarmUpFinished() {
			w.opsDone++
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Client runs a workload against a specific store.
type Client struct {
	p        *properties.Properties
	workload bench.Workload
	store    bench.Store
}

// NewClient returns a client with the given workload and store.
// The workload and store can't be nil.
func NewClient(p *properties.Properties, workload bench.Workload, store bench.Store) *Client {
	return &Client{p: p, workload: workload, store: store}
}

// Load bulk-populates the store, single-shot from one thread.
func (c *Client) Load(ctx context.Context) error {
	ctx = c.workload.InitThread(ctx, 0, 1)
	ctx = c.store.InitThread(ctx, 0, 1)
	defer func() {
		c.store.CleanupThread(ctx)
		c.workload.CleanupThread(ctx)
	}()

	return c.workload.Load(ctx, c.store)
}

// Run runs the workload to the target store, and blocks until all workers end.
func (c *Client) Run(ctx context.Context) {
	var wg sync.WaitGroup
	threadCount := c.p.GetInt(prop.ThreadCount, int(prop.ThreadCountDefault))

	wg.Add(threadCount)
	measureCtx, measureCancel := context.WithCancel(ctx)
	measureCh := make(chan struct{}, 1)
	go func() {
		defer func() {
			measureCh <- struct{}{}
		}()
		dur := c.p.GetInt64(prop.WarmUpTime, 0)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(dur) * time.Second):
		}
		// finish warming up
		measurement.EnableWarmUp(false)

		dur = c.p.GetInt64(prop.LogInterval, 10)
		t := time.NewTicker(time.Duration(dur) * time.Second)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				measurement.Summary()
			case <-measureCtx.Done():
				return
			}
		}
	}()

	for i := 0; i < threadCount; i++ {
		go func(threadId int) {
			defer wg.Done()

			w := newWorker(c.p, threadId, c.workload, c.store)
			ctx := c.workload.InitThread(ctx, threadId, threadCount)
			ctx = c.store.InitThread(ctx, threadId, threadCount)
			w.run(ctx)
			c.store.CleanupThread(ctx)
			c.workload.CleanupThread(ctx)
		}(i)
	}

	wg.Wait()
	measureCancel()
	<-measureCh
}
