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
	"time"

	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/codec"
)

// PostResult is the outcome of one tweet post.
type PostResult struct {
	TweetID uint64
	// Followers is the fan-out size, Rejected the number of follower streams
	// whose conditional append lost a race. Rejections are final within this
	// post; the follower's timeline simply misses this tweet.
	Followers int
	Rejected  int

	KeyBytes   int64
	ValueBytes int64
}

// PostTweet stores a new tweet and fans its id out to every follower's
// stream under optimistic concurrency control. The tweet body is written
// before any index references its id, so a reader racing with the fan-out
// never dereferences a missing body. Only version-mismatch rejections on the
// fan-out are soft; every other store error aborts the post.
func PostTweet(ctx context.Context, store bench.Store, tables Tables, authorID uint64, text string) (PostResult, error) {
	var res PostResult

	// The atomic counter is the single strongly-ordered step: two concurrent
	// posts can never share an id.
	id, err := store.IncrementAndGet(ctx, tables.ID, codec.EncodeCounterKey(codec.CounterTweetID), 1)
	if err != nil {
		return res, errors.Annotate(err, "allocate tweet id")
	}
	res.TweetID = uint64(id)

	dataKey := codec.EncodeKey(res.TweetID, codec.ColumnData)
	body := codec.EncodeTweet(codec.Tweet{
		Text:   text,
		Time:   time.Now().Unix(),
		Author: authorID,
	})
	if err := store.Write(ctx, tables.Tweet, dataKey, body); err != nil {
		return res, errors.Annotatef(err, "write tweet %d", res.TweetID)
	}
	res.KeyBytes += int64(len(dataKey))
	res.ValueBytes += int64(len(body))

	// Only the author ever appends to their own list, so the read-modify-
	// write needs no version check.
	tweetsKey := codec.EncodeKey(authorID, codec.ColumnTweets)
	tweets, _, err := store.Read(ctx, tables.User, tweetsKey)
	if err != nil && errors.Cause(err) != bench.ErrNotFound {
		return res, errors.Annotatef(err, "read tweets of user %d", authorID)
	}
	tweets = codec.AppendID(tweets, res.TweetID)
	if err := store.Write(ctx, tables.User, tweetsKey, tweets); err != nil {
		return res, errors.Annotatef(err, "write tweets of user %d", authorID)
	}
	res.KeyBytes += 2 * int64(len(tweetsKey))
	res.ValueBytes += int64(len(tweets))

	followersKey := codec.EncodeKey(authorID, codec.ColumnFollowers)
	followersVal, _, err := store.Read(ctx, tables.User, followersKey)
	if errors.Cause(err) == bench.ErrNotFound {
		return res, nil
	}
	if err != nil {
		return res, errors.Annotatef(err, "read followers of user %d", authorID)
	}
	res.KeyBytes += int64(len(followersKey))
	res.ValueBytes += int64(len(followersVal))

	followers, err := codec.DecodeIDList(followersVal)
	if err != nil {
		return res, errors.Annotatef(err, "followers of user %d", authorID)
	}
	res.Followers = len(followers)
	if res.Followers == 0 {
		return res, nil
	}

	// Fan-out: capture every follower stream with its version, append the new
	// id locally, then write each stream back conditioned on the version seen.
	// A rejected item means another post appended to that stream in between;
	// it is counted and left alone.
	reads := make([]bench.ReadItem, res.Followers)
	for i, f := range followers {
		reads[i] = bench.ReadItem{
			Table: tables.User,
			Key:   codec.EncodeKey(f, codec.ColumnStream),
		}
		res.KeyBytes += int64(len(reads[i].Key))
	}
	streams, err := store.MultiRead(ctx, reads)
	if err != nil {
		return res, errors.Annotatef(err, "multiread follower streams of user %d", authorID)
	}

	writes := make([]bench.WriteItem, res.Followers)
	for i, s := range streams {
		if s.Err != nil && errors.Cause(s.Err) != bench.ErrNotFound {
			return res, errors.Annotatef(s.Err, "read stream of follower %d", followers[i])
		}
		// an absent stream appends onto empty at version 0
		value := codec.AppendID(s.Value, res.TweetID)
		writes[i] = bench.WriteItem{
			Table:       tables.User,
			Key:         reads[i].Key,
			Value:       value,
			MaxVersion:  s.Version,
			Conditional: true,
		}
		res.KeyBytes += int64(len(reads[i].Key))
		res.ValueBytes += int64(len(s.Value) + len(value))
	}

	statuses, err := store.MultiWrite(ctx, writes)
	if err != nil {
		return res, errors.Annotatef(err, "multiwrite follower streams of user %d", authorID)
	}
	for _, st := range statuses {
		if st != nil {
			res.Rejected++
		}
	}
	return res, nil
}
