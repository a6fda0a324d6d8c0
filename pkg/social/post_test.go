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
	"sync"
	"testing"

	"github.com/pingcap/go-socialbench/db/memory"
	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

func TestPostFansOutToFollowers(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	res, err := PostTweet(context.Background(), store, tables, 1, "hello")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if res.Followers != 2 || res.Rejected != 0 {
		t.Fatalf("followers = %d, rejected = %d, want 2 and 0", res.Followers, res.Rejected)
	}

	// tweet id continues past the seeded range
	if res.TweetID != 3 {
		t.Fatalf("tweet id = %d, want 3", res.TweetID)
	}

	// the author's list and both follower streams carry the new id
	tweets := readIDList(t, store, tables.User, 1, codec.ColumnTweets)
	if tweets[len(tweets)-1] != res.TweetID {
		t.Fatalf("tweets of 1 = %v, want tail %d", tweets, res.TweetID)
	}
	for _, f := range []uint64{2, 3} {
		stream := readIDList(t, store, tables.User, f, codec.ColumnStream)
		if stream[len(stream)-1] != res.TweetID {
			t.Fatalf("stream of %d = %v, want tail %d", f, stream, res.TweetID)
		}
	}

	// and the body is readable through the timeline path
	tl, err := ReadTimeline(context.Background(), store, tables, 2, 1)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(tl.Entries) != 1 || tl.Entries[0].ID != res.TweetID || tl.Entries[0].Tweet.Text != "hello" {
		t.Fatalf("unexpected timeline %+v", tl)
	}
}

func TestPostWithoutFollowers(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, err := CreateTables(context.Background(), store)
	if err != nil {
		t.Fatalf("create tables failed: %v", err)
	}

	res, err := PostTweet(context.Background(), store, tables, 9, "quiet")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if res.Followers != 0 || res.Rejected != 0 {
		t.Fatalf("unexpected fan-out %+v", res)
	}
	tweets := readIDList(t, store, tables.User, 9, codec.ColumnTweets)
	if len(tweets) != 1 || tweets[0] != res.TweetID {
		t.Fatalf("tweets of 9 = %v", tweets)
	}
}

func TestPostDurabilityBeforePublish(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		author := uint64(i%2 + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := PostTweet(context.Background(), store, tables, author, "post"); err != nil {
				t.Errorf("post failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// every id any stream references must have a body
	for _, u := range []uint64{1, 2, 3} {
		for _, id := range readIDList(t, store, tables.User, u, codec.ColumnStream) {
			_, _, err := store.Read(context.Background(), tables.Tweet, codec.EncodeKey(id, codec.ColumnData))
			if err != nil && id > 3 {
				t.Fatalf("stream of %d references tweet %d with no body: %v", u, id, err)
			}
		}
	}
}

func TestPostAuthorListComplete(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	var posted []uint64
	for i := 0; i < 5; i++ {
		res, err := PostTweet(context.Background(), store, tables, 2, "again")
		if err != nil {
			t.Fatalf("post %d failed: %v", i, err)
		}
		posted = append(posted, res.TweetID)
	}

	tweets := readIDList(t, store, tables.User, 2, codec.ColumnTweets)
	tail := tweets[len(tweets)-len(posted):]
	for i, id := range posted {
		if tail[i] != id {
			t.Fatalf("tweets of 2 = %v, want tail %v", tweets, posted)
		}
	}
}

// racingStore sneaks a write into one follower's stream between the fan-out
// read and the conditional fan-out write, forcing a version mismatch on that
// single stream.
type racingStore struct {
	bench.Store
	table uint64
	key   []byte
	once  sync.Once
}

func (s *racingStore) MultiRead(ctx context.Context, items []bench.ReadItem) ([]bench.ReadResult, error) {
	results, err := s.Store.MultiRead(ctx, items)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		value, _, rerr := s.Store.Read(ctx, s.table, s.key)
		if rerr != nil {
			value = nil
		}
		if werr := s.Store.Write(ctx, s.table, s.key, codec.AppendID(value, 999)); werr != nil {
			panic(werr)
		}
	})
	return results, err
}

func TestPostFanOutBestEffort(t *testing.T) {
	store := memory.New()
	defer store.Close()

	tables, _ := loadGraph(t, store, "1 2\n1 3\n2 3\n", 3, 1)

	racing := &racingStore{
		Store: store,
		table: tables.User,
		key:   codec.EncodeKey(3, codec.ColumnStream),
	}
	res, err := PostTweet(context.Background(), racing, tables, 1, "contended")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if res.Followers != 2 || res.Rejected != 1 {
		t.Fatalf("followers = %d, rejected = %d, want 2 and 1", res.Followers, res.Rejected)
	}

	// the uncontended follower still got the tweet, the contended one kept
	// the interloper's append and missed it
	stream2 := readIDList(t, store, tables.User, 2, codec.ColumnStream)
	if stream2[len(stream2)-1] != res.TweetID {
		t.Fatalf("stream of 2 = %v, want tail %d", stream2, res.TweetID)
	}
	stream3 := readIDList(t, store, tables.User, 3, codec.ColumnStream)
	if stream3[len(stream3)-1] != 999 {
		t.Fatalf("stream of 3 = %v, want tail 999", stream3)
	}
}
