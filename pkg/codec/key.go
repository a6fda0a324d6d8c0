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

package codec

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// Column addresses one of the records attached to an entity.
type Column uint8

// Record columns. FOLLOWERS, STREAM and TWEETS hang off a user id, DATA
// hangs off a tweet id.
const (
	ColumnFollowers Column = iota + 1
	ColumnStream
	ColumnTweets
	ColumnData
)

func (c Column) String() string {
	switch c {
	case ColumnFollowers:
		return "FOLLOWERS"
	case ColumnStream:
		return "STREAM"
	case ColumnTweets:
		return "TWEETS"
	case ColumnData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// CounterKind addresses one of the singleton id-allocation counters.
type CounterKind uint8

const (
	CounterUserID CounterKind = iota + 1
	CounterTweetID
)

const keyLen = 9

// EncodeKey encodes (id, column) into the fixed 9-byte record key:
// 8-byte big-endian entity id followed by the column byte.
func EncodeKey(id uint64, col Column) []byte {
	buf := make([]byte, keyLen)
	binary.BigEndian.PutUint64(buf, id)
	buf[8] = byte(col)
	return buf
}

// DecodeKey decodes a record key produced by EncodeKey.
func DecodeKey(key []byte) (uint64, Column, error) {
	if len(key) != keyLen {
		return 0, 0, errors.Errorf("invalid record key length %d", len(key))
	}
	col := Column(key[8])
	if col < ColumnFollowers || col > ColumnData {
		return 0, 0, errors.Errorf("invalid record key column %d", key[8])
	}
	return binary.BigEndian.Uint64(key), col, nil
}

// EncodeCounterKey encodes the key of an id-allocation counter. Counter keys
// are a single byte, so they can never collide with record keys.
func EncodeCounterKey(kind CounterKind) []byte {
	return []byte{byte(kind)}
}

// DecodeCounterKey decodes a counter key produced by EncodeCounterKey.
func DecodeCounterKey(key []byte) (CounterKind, error) {
	if len(key) != 1 {
		return 0, errors.Errorf("invalid counter key length %d", len(key))
	}
	kind := CounterKind(key[0])
	if kind != CounterUserID && kind != CounterTweetID {
		return 0, errors.Errorf("invalid counter kind %d", key[0])
	}
	return kind, nil
}
