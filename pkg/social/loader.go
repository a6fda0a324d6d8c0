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
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

// Tweet times are synthesized as if the whole corpus had been posted at a
// fixed rate starting from a fixed epoch.
const (
	startingTweetTime = 1230800000
	tweetsPerSecond   = 1000
)

// fillerText is the prefix pool for synthetic tweet bodies; each tweet takes
// a random-length prefix of it.
const fillerText = "The problem addressed here concerns a set of isolated processors, some unknown subset of which may be faulty, that communicate only by means"

const loaderProgressEvery = 100000

// RandomTweetText returns a random-length prefix of the filler corpus; both
// the loader and the posting workload draw tweet bodies from it.
func RandomTweetText(r *rand.Rand) string {
	return fillerText[:r.Intn(codec.MaxTweetText)]
}

// LoaderStats reports what a load run pushed into the store.
type LoaderStats struct {
	Edges      uint64
	Users      uint64
	Writes     uint64
	KeyBytes   uint64
	ValueBytes uint64
}

// GraphLoader bulk-populates the store from a follower edge list. Edges
// sharing a source must be adjacent in the input; the loader groups by
// contiguous source runs and never re-sorts.
type GraphLoader struct {
	TotalUsers    uint64
	TweetsPerUser uint64

	// Silence suppresses the periodic progress lines.
	Silence bool

	r *rand.Rand
}

// SeedTweetID returns the id of the tweetIndex'th seeded tweet of a user.
// Seeded ids are computed, not allocated, so the loader needs no counter
// round-trip per tweet; the counters are seeded once, at the end, just past
// this range.
func SeedTweetID(totalUsers, tweetIndex, userID uint64) uint64 {
	return totalUsers*tweetIndex + userID
}

// Load streams the edge list into the store. Any store error is returned
// immediately; a bulk load runs once against an empty store and is not
// retried.
func (l *GraphLoader) Load(ctx context.Context, store bench.Store, edges io.Reader) (LoaderStats, error) {
	if l.r == nil {
		l.r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	tables, err := CreateTables(ctx, store)
	if err != nil {
		return LoaderStats{}, err
	}
	if !l.Silence {
		fmt.Printf("created/found %s (id %d), %s (id %d), %s (id %d)\n",
			UserTableName, tables.User, TweetTableName, tables.Tweet, IDTableName, tables.ID)
	}

	var stats LoaderStats
	var followers []uint64
	curSrc := uint64(0)
	seenSrc := false
	start := time.Now()

	scanner := bufio.NewScanner(edges)
	scanner.Split(bufio.ScanWords)
	for {
		src, ok, err := scanWord(scanner)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		dst, ok, err := scanWord(scanner)
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, errors.Errorf("edge list ends with dangling source %d", src)
		}

		if !seenSrc {
			curSrc = src
			seenSrc = true
		}
		if src != curSrc {
			if err := l.flushUser(ctx, store, tables, curSrc, followers, &stats); err != nil {
				return stats, err
			}
			curSrc = src
			followers = followers[:0]
		}
		followers = append(followers, dst)

		stats.Edges++
		if !l.Silence && stats.Edges%loaderProgressEvery == 0 {
			elapsed := time.Since(start).Seconds()
			mb := float64(stats.KeyBytes+stats.ValueBytes) / 1000000.0
			fmt.Printf("processed %d edges (%.2f MB) in %.2f seconds, avg. %.2f MB/s\n",
				stats.Edges, mb, elapsed, mb/elapsed)
		}
	}

	if !seenSrc {
		return stats, errors.New("edge list is empty")
	}

	// the last group has no following source to trigger it
	if err := l.flushUser(ctx, store, tables, curSrc, followers, &stats); err != nil {
		return stats, err
	}

	// Seed the allocation counters just past the loaded id ranges so live
	// posting continues without collision.
	lastTweetID := SeedTweetID(l.TotalUsers, l.TweetsPerUser-1, curSrc)
	if err := l.seedCounter(ctx, store, tables, codec.CounterUserID, curSrc, &stats); err != nil {
		return stats, err
	}
	if err := l.seedCounter(ctx, store, tables, codec.CounterTweetID, lastTweetID, &stats); err != nil {
		return stats, err
	}

	return stats, nil
}

func scanWord(scanner *bufio.Scanner) (uint64, bool, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, false, errors.Trace(err)
		}
		return 0, false, nil
	}
	v, err := strconv.ParseUint(scanner.Text(), 10, 64)
	if err != nil {
		return 0, false, errors.Annotatef(err, "bad edge list token %q", scanner.Text())
	}
	return v, true, nil
}

// flushUser writes the four records of one source user: the follower list,
// the precomputed stream, the seeded tweet bodies, and the owned-tweets list.
func (l *GraphLoader) flushUser(ctx context.Context, store bench.Store, tables Tables, src uint64, followers []uint64, stats *LoaderStats) error {
	if err := l.write(ctx, store, tables.User, codec.EncodeKey(src, codec.ColumnFollowers), codec.EncodeIDList(followers), stats); err != nil {
		return err
	}

	stream := make([]uint64, 0, uint64(len(followers))*l.TweetsPerUser)
	for tweetIndex := uint64(0); tweetIndex < l.TweetsPerUser; tweetIndex++ {
		for _, f := range followers {
			stream = append(stream, SeedTweetID(l.TotalUsers, tweetIndex, f))
		}
	}
	if err := l.write(ctx, store, tables.User, codec.EncodeKey(src, codec.ColumnStream), codec.EncodeIDList(stream), stats); err != nil {
		return err
	}

	tweets := make([]uint64, 0, l.TweetsPerUser)
	for tweetIndex := uint64(0); tweetIndex < l.TweetsPerUser; tweetIndex++ {
		id := SeedTweetID(l.TotalUsers, tweetIndex, src)
		tweets = append(tweets, id)
		body := codec.EncodeTweet(codec.Tweet{
			Text:   RandomTweetText(l.r),
			Time:   startingTweetTime + int64(id/tweetsPerSecond),
			Author: src,
		})
		if err := l.write(ctx, store, tables.Tweet, codec.EncodeKey(id, codec.ColumnData), body, stats); err != nil {
			return err
		}
	}

	if err := l.write(ctx, store, tables.User, codec.EncodeKey(src, codec.ColumnTweets), codec.EncodeIDList(tweets), stats); err != nil {
		return err
	}

	stats.Users++
	return nil
}

func (l *GraphLoader) seedCounter(ctx context.Context, store bench.Store, tables Tables, kind codec.CounterKind, value uint64, stats *LoaderStats) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	return l.write(ctx, store, tables.ID, codec.EncodeCounterKey(kind), buf[:], stats)
}

func (l *GraphLoader) write(ctx context.Context, store bench.Store, table uint64, key, value []byte, stats *LoaderStats) error {
	if err := store.Write(ctx, table, key, value); err != nil {
		return errors.Annotatef(err, "load write table %d", table)
	}
	stats.Writes++
	stats.KeyBytes += uint64(len(key))
	stats.ValueBytes += uint64(len(value))
	return nil
}
