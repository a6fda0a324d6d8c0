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

package social

import (
	"context"
	"testing"

	"github.com/pingcap/go-socialbench/db/memory"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

func TestTimelineEmptyStream(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, err := CreateTables(context.Background(), store)
	if err != nil {
		t.Fatalf("create tables failed: %v", err)
	}

	res, err := ReadTimeline(context.Background(), store, tables, 42, 10)
	if err != nil {
		t.Fatalf("timeline of unknown user failed: %v", err)
	}
	if len(res.Entries) != 0 || res.Missing != 0 || res.StreamLen != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestTimelineAfterLoad(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	// user 1's stream holds the seeded tweets of followers 2 and 3; only
	// tweet 2 has a body (user 3 is never a source), so one page slot is
	// a gap.
	res, err := ReadTimeline(context.Background(), store, tables, 1, 10)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if res.StreamLen != 2 {
		t.Fatalf("stream length = %d, want 2", res.StreamLen)
	}
	if len(res.Entries) != 1 || res.Missing != 1 {
		t.Fatalf("entries = %d, missing = %d, want 1 and 1", len(res.Entries), res.Missing)
	}
	if res.Entries[0].ID != 2 || res.Entries[0].Tweet.Author != 2 {
		t.Fatalf("unexpected entry %+v", res.Entries[0])
	}
}

func TestTimelinePaging(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, err := CreateTables(context.Background(), store)
	if err != nil {
		t.Fatalf("create tables failed: %v", err)
	}

	ctx := context.Background()
	stream := make([]uint64, 20)
	for i := range stream {
		id := uint64(i + 1)
		stream[i] = id
		body := codec.EncodeTweet(codec.Tweet{Text: "t", Time: int64(i), Author: 7})
		if err := store.Write(ctx, tables.Tweet, codec.EncodeKey(id, codec.ColumnData), body); err != nil {
			t.Fatalf("write tweet %d failed: %v", id, err)
		}
	}
	if err := store.Write(ctx, tables.User, codec.EncodeKey(5, codec.ColumnStream), codec.EncodeIDList(stream)); err != nil {
		t.Fatalf("write stream failed: %v", err)
	}

	res, err := ReadTimeline(ctx, store, tables, 5, 8)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(res.Entries) != 8 || res.Missing != 0 {
		t.Fatalf("entries = %d, missing = %d, want 8 and 0", len(res.Entries), res.Missing)
	}
	// tail of the stream, most recent first
	for i, e := range res.Entries {
		if want := uint64(20 - i); e.ID != want {
			t.Fatalf("entry %d id = %d, want %d", i, e.ID, want)
		}
	}
}
