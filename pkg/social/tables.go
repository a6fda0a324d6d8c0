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
)

// Table names. User records (FOLLOWERS, STREAM, TWEETS) live in the user
// table, tweet DATA records in the tweet table, and the two id-allocation
// counters in the id table.
const (
	UserTableName  = "UserTable"
	TweetTableName = "TweetTable"
	IDTableName    = "IDTable"
)

// Tables holds the resolved ids of the three benchmark tables.
type Tables struct {
	User  uint64
	Tweet uint64
	ID    uint64
}

// CreateTables creates the three tables if needed and returns their ids.
// The loader calls this once before populating.
func CreateTables(ctx context.Context, store bench.Store) (Tables, error) {
	var t Tables
	var err error
	if t.User, err = store.CreateTable(ctx, UserTableName); err != nil {
		return t, errors.Annotate(err, "create user table")
	}
	if t.Tweet, err = store.CreateTable(ctx, TweetTableName); err != nil {
		return t, errors.Annotate(err, "create tweet table")
	}
	if t.ID, err = store.CreateTable(ctx, IDTableName); err != nil {
		return t, errors.Annotate(err, "create id table")
	}
	return t, nil
}

// OpenTables looks up the three tables, which must already exist. Workers
// call this once per thread against a loaded store.
func OpenTables(ctx context.Context, store bench.Store) (Tables, error) {
	var t Tables
	var err error
	if t.User, err = store.GetTableID(ctx, UserTableName); err != nil {
		return t, errors.Annotate(err, "open user table")
	}
	if t.Tweet, err = store.GetTableID(ctx, TweetTableName); err != nil {
		return t, errors.Annotate(err, "open tweet table")
	}
	if t.ID, err = store.GetTableID(ctx, IDTableName); err != nil {
		return t, errors.Annotate(err, "open id table")
	}
	return t, nil
}
