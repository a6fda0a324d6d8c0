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

	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

// TimelineEntry is one fetched tweet of a timeline page.
type TimelineEntry struct {
	ID    uint64
	Tweet codec.Tweet
}

// TimelineResult is the outcome of one timeline read.
type TimelineResult struct {
	Entries []TimelineEntry
	// Missing counts page slots whose tweet body was absent. A gap, not a
	// fault; the caller only tallies it.
	Missing int
	// StreamLen is the full stream length before paging.
	StreamLen int

	KeyBytes   int64
	ValueBytes int64
}

// ReadTimeline reconstructs a user's timeline page: read the precomputed
// stream index, then batch-fetch the bodies of the most recent pageSize
// entries. A user with no stream record reads as an empty timeline.
func ReadTimeline(ctx context.Context, store bench.Store, tables Tables, userID uint64, pageSize int) (TimelineResult, error) {
	var res TimelineResult

	streamKey := codec.EncodeKey(userID, codec.ColumnStream)
	stream, _, err := store.Read(ctx, tables.User, streamKey)
	if errors.Cause(err) == bench.ErrNotFound {
		return res, nil
	}
	if err != nil {
		return res, errors.Annotatef(err, "read stream of user %d", userID)
	}
	res.KeyBytes += int64(len(streamKey))
	res.ValueBytes += int64(len(stream))
	res.StreamLen = codec.IDListLen(stream)

	n := pageSize
	if res.StreamLen < n {
		n = res.StreamLen
	}
	if n == 0 {
		return res, nil
	}

	// most recent entries sit at the tail
	items := make([]bench.ReadItem, n)
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = codec.IDListAt(stream, res.StreamLen-1-i)
		items[i] = bench.ReadItem{
			Table: tables.Tweet,
			Key:   codec.EncodeKey(ids[i], codec.ColumnData),
		}
		res.KeyBytes += int64(len(items[i].Key))
	}

	results, err := store.MultiRead(ctx, items)
	if err != nil {
		return res, errors.Annotatef(err, "multiread timeline of user %d", userID)
	}

	res.Entries = make([]TimelineEntry, 0, n)
	for i, r := range results {
		if r.Err != nil {
			res.Missing++
			continue
		}
		tweet, err := codec.DecodeTweet(r.Value)
		if err != nil {
			return res, errors.Annotatef(err, "tweet %d", ids[i])
		}
		res.ValueBytes += int64(len(r.Value))
		res.Entries = append(res.Entries, TimelineEntry{ID: ids[i], Tweet: tweet})
	}
	return res, nil
}
