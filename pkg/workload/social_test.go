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

package workload

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/magiconair/properties"

	"github.com/pingcap/go-socialbench/db/memory"
	"github.com/pingcap/go-socialbench/pkg/measurement"
	"github.com/pingcap/go-socialbench/pkg/prop"
)

func testProps(t *testing.T) *properties.Properties {
	t.Helper()

	edgeList := filepath.Join(t.TempDir(), "edges.txt")
	if err := os.WriteFile(edgeList, []byte("1 2\n1 3\n2 3\n3 1\n"), 0o644); err != nil {
		t.Fatalf("write edge list failed: %v", err)
	}

	p := properties.NewProperties()
	p.Set(prop.TotalUsers, "3")
	p.Set(prop.TweetsPerUser, "1")
	p.Set(prop.EdgeList, edgeList)
	p.Set(prop.OutputDir, t.TempDir())
	return p
}

func TestSocialWorkloadEndToEnd(t *testing.T) {
	store := memory.New()
	defer store.Close()

	p := testProps(t)
	measurement.InitMeasure(p)

	w, err := socialCreator{}.Create(p)
	if err != nil {
		t.Fatalf("create workload failed: %v", err)
	}
	defer w.Close()

	p.Set(prop.Command, "load")
	ctx := w.InitThread(context.Background(), 0, 1)
	if err := w.Load(ctx, store); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	w.CleanupThread(ctx)

	p.Set(prop.Command, "run")
	ctx = w.InitThread(context.Background(), 0, 1)
	for i := 0; i < 50; i++ {
		if err := w.DoTransaction(ctx, store); err != nil {
			t.Fatalf("transaction %d failed: %v", i, err)
		}
	}
	w.CleanupThread(ctx)

	state := ctx.Value(stateKey).(*socialState)
	if got := state.stats.timelineCount + state.stats.postCount; got != 50 {
		t.Fatalf("counted %d transactions, want 50", got)
	}
	if state.stats.errCount != 0 {
		t.Fatalf("unexpected errors: %d", state.stats.errCount)
	}

	outputDir := p.GetString(prop.OutputDir, "")
	for _, name := range []string{"s00_t00.lat", "t00.dat"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Fatalf("missing output file %s: %v", name, err)
		}
	}
}

func TestUserChooserRanges(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for _, distribution := range []string{"uniform", "zipfian", "hotspot"} {
		p := properties.NewProperties()
		p.Set(prop.RequestDistribution, distribution)
		chooser, err := newUserChooser(p, 100)
		if err != nil {
			t.Fatalf("%s chooser failed: %v", distribution, err)
		}
		for i := 0; i < 1000; i++ {
			if id := chooser.Next(r); id < 1 || id > 100 {
				t.Fatalf("%s chooser drew %d, want [1, 100]", distribution, id)
			}
		}
	}
}

func TestUserChooserWorkingSetOverride(t *testing.T) {
	p := properties.NewProperties()
	p.Set(prop.RequestDistribution, "zipfian")
	p.Set(prop.WorkingSetSize, "10")
	chooser, err := newUserChooser(p, 100)
	if err != nil {
		t.Fatalf("chooser failed: %v", err)
	}

	// the working set maps draws onto 10 evenly spaced users
	r := rand.New(rand.NewSource(1))
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := chooser.Next(r)
		if (id-1)%10 != 0 || id < 1 || id > 100 {
			t.Fatalf("working set drew %d", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != 10 {
		t.Fatalf("working set covered %d users, want 10", len(seen))
	}

	p.Set(prop.WorkingSetSize, "200")
	if _, err := newUserChooser(p, 100); err == nil {
		t.Fatal("expected an error when the working set exceeds the user range")
	}
}

func TestUserChooserUnknownDistribution(t *testing.T) {
	p := properties.NewProperties()
	p.Set(prop.RequestDistribution, "latest")
	if _, err := newUserChooser(p, 100); err == nil {
		t.Fatal("expected an error for an unknown distribution")
	}
}
