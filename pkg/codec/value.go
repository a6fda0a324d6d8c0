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

// MaxTweetText is the longest tweet text the codec accepts.
const MaxTweetText = 140

// Tweet is the decoded form of a DATA record.
type Tweet struct {
	Text   string
	Time   int64
	Author uint64
}

const tweetHeaderLen = 16

// EncodeTweet encodes a tweet record: 8-byte little-endian time, 8-byte
// little-endian author id, then the text bytes.
func EncodeTweet(t Tweet) []byte {
	text := t.Text
	if len(text) > MaxTweetText {
		text = text[:MaxTweetText]
	}
	buf := make([]byte, tweetHeaderLen+len(text))
	binary.LittleEndian.PutUint64(buf, uint64(t.Time))
	binary.LittleEndian.PutUint64(buf[8:], t.Author)
	copy(buf[tweetHeaderLen:], text)
	return buf
}

// DecodeTweet decodes a record produced by EncodeTweet.
func DecodeTweet(value []byte) (Tweet, error) {
	if len(value) < tweetHeaderLen {
		return Tweet{}, errors.Errorf("invalid tweet record length %d", len(value))
	}
	return Tweet{
		Time:   int64(binary.LittleEndian.Uint64(value)),
		Author: binary.LittleEndian.Uint64(value[8:]),
		Text:   string(value[tweetHeaderLen:]),
	}, nil
}

// EncodeIDList encodes an ordered id list as concatenated 8-byte
// little-endian integers.
func EncodeIDList(ids []uint64) []byte {
	buf := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		buf = AppendID(buf, id)
	}
	return buf
}

// DecodeIDList decodes a value produced by EncodeIDList.
func DecodeIDList(value []byte) ([]uint64, error) {
	if len(value)%8 != 0 {
		return nil, errors.Errorf("invalid id list length %d", len(value))
	}
	ids := make([]uint64, 0, len(value)/8)
	for off := 0; off < len(value); off += 8 {
		ids = append(ids, binary.LittleEndian.Uint64(value[off:]))
	}
	return ids, nil
}

// AppendID appends one id to an encoded id list without decoding it. The
// fan-out path appends to follower streams this way.
func AppendID(value []byte, id uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], id)
	return append(value, b[:]...)
}

// IDListLen returns the number of ids in an encoded id list.
func IDListLen(value []byte) int {
	return len(value) / 8
}

// IDListAt returns the id at position i of an encoded id list.
func IDListAt(value []byte, i int) uint64 {
	return binary.LittleEndian.Uint64(value[i*8:])
}
