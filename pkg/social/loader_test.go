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
	"reflect"
	"strings"
	"testing"

	"github.com/pingcap/go-socialbench/db/memory"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

func loadGraph(t *testing.T, store *memory.DB, edges string, totalUsers, tweetsPerUser uint64) (Tables, LoaderStats) {
	t.Helper()
	loader := &GraphLoader{
		TotalUsers:    totalUsers,
		TweetsPerUser: tweetsPerUser,
		Silence:       true,
	}
	stats, err := loader.Load(context.Background(), store, strings.NewReader(edges))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	tables, err := OpenTables(context.Background(), store)
	if err != nil {
		t.Fatalf("open tables failed: %v", err)
	}
	return tables, stats
}

func readIDList(t *testing.T, store *memory.DB, table uint64, id uint64, col codec.Column) []uint64 {
	t.Helper()
	value, _, err := store.Read(context.Background(), table, codec.EncodeKey(id, col))
	if err != nil {
		t.Fatalf("read %d/%s failed: %v", id, col, err)
	}
	ids, err := codec.DecodeIDList(value)
	if err != nil {
		t.Fatalf("decode %d/%s failed: %v", id, col, err)
	}
	return ids
}

func TestLoaderRoundTrip(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, stats := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	if stats.Edges != 3 {
		t.Fatalf("expected 3 edges, got %d", stats.Edges)
	}
	if stats.Users != 2 {
		t.Fatalf("expected 2 source users, got %d", stats.Users)
	}

	if got := readIDList(t, store, tables.User, 1, codec.ColumnFollowers); !reflect.DeepEqual(got, []uint64{2, 3}) {
		t.Fatalf("followers of 1 = %v", got)
	}
	if got := readIDList(t, store, tables.User, 2, codec.ColumnFollowers); !reflect.DeepEqual(got, []uint64{3}) {
		t.Fatalf("followers of 2 = %v", got)
	}

	// with tweetsPerUser=1 and totalUsers=3, user u's seeded tweet id is u
	if got := readIDList(t, store, tables.User, 1, codec.ColumnTweets); !reflect.DeepEqual(got, []uint64{1}) {
		t.Fatalf("tweets of 1 = %v", got)
	}
	// the stream holds one seeded tweet per follower
	if got := readIDList(t, store, tables.User, 1, codec.ColumnStream); !reflect.DeepEqual(got, []uint64{2, 3}) {
		t.Fatalf("stream of 1 = %v", got)
	}

	for _, id := range []uint64{1, 2} {
		value, _, err := store.Read(context.Background(), tables.Tweet, codec.EncodeKey(id, codec.ColumnData))
		if err != nil {
			t.Fatalf("tweet %d body missing: %v", id, err)
		}
		tweet, err := codec.DecodeTweet(value)
		if err != nil {
			t.Fatalf("tweet %d decode failed: %v", id, err)
		}
		if tweet.Author != id {
			t.Fatalf("tweet %d author = %d", id, tweet.Author)
		}
		if tweet.Time != startingTweetTime+int64(id/tweetsPerSecond) {
			t.Fatalf("tweet %d time = %d", id, tweet.Time)
		}
		if !strings.HasPrefix(fillerText, tweet.Text) {
			t.Fatalf("tweet %d text is not a filler prefix: %q", id, tweet.Text)
		}
	}
}

func TestLoaderSeedsCounters(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 2)

	// next user id continues past the last source seen
	next, err := store.IncrementAndGet(context.Background(), tables.ID, codec.EncodeCounterKey(codec.CounterUserID), 1)
	if err != nil {
		t.Fatalf("increment userid failed: %v", err)
	}
	if next != 3 {
		t.Fatalf("next user id = %d, want 3", next)
	}

	// next tweet id continues past the seeded range
	wantBase := int64(SeedTweetID(3, 1, 2))
	next, err = store.IncrementAndGet(context.Background(), tables.ID, codec.EncodeCounterKey(codec.CounterTweetID), 1)
	if err != nil {
		t.Fatalf("increment tweetid failed: %v", err)
	}
	if next != wantBase+1 {
		t.Fatalf("next tweet id = %d, want %d", next, wantBase+1)
	}
}

func TestLoaderRejectsEmptyInput(t *testing.T) {
	store := memory.New()
	defer store.Close()

	loader := &GraphLoader{TotalUsers: 3, TweetsPerUser: 1, Silence: true}
	if _, err := loader.Load(context.Background(), store, strings.NewReader("")); err == nil {
		t.Fatal("expected an error on empty edge list")
	}
	if _, err := loader.Load(context.Background(), store, strings.NewReader("1")); err == nil {
		t.Fatal("expected an error on dangling source")
	}
}
