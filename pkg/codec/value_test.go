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
	"reflect"
	"strings"
	"testing"
)

func TestTweetRoundTrip(t *testing.T) {
	in := Tweet{Text: "hello fan-out", Time: 1230800042, Author: 7}
	out, err := DecodeTweet(EncodeTweet(in))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("want %+v, but got %+v", in, out)
	}
}

func TestTweetEmptyText(t *testing.T) {
	out, err := DecodeTweet(EncodeTweet(Tweet{Time: 1, Author: 2}))
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "" || out.Time != 1 || out.Author != 2 {
		t.Fatalf("unexpected decode %+v", out)
	}
}

func TestTweetTextTruncated(t *testing.T) {
	long := strings.Repeat("x", MaxTweetText+30)
	out, err := DecodeTweet(EncodeTweet(Tweet{Text: long}))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Text) != MaxTweetText {
		t.Fatalf("expected text truncated to %d bytes, got %d", MaxTweetText, len(out.Text))
	}
}

func TestDecodeTweetMalformed(t *testing.T) {
	if _, err := DecodeTweet(make([]byte, tweetHeaderLen-1)); err == nil {
		t.Fatal("expected error for short tweet record")
	}
}

func TestIDListRoundTrip(t *testing.T) {
	ids := []uint64{3, 1, 4, 1, 5, 9, 1 << 50}
	got, err := DecodeIDList(EncodeIDList(ids))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, got) {
		t.Fatalf("want %v, but got %v", ids, got)
	}
}

func TestIDListAppendRaw(t *testing.T) {
	buf := EncodeIDList([]uint64{10, 20})
	buf = AppendID(buf, 30)

	if n := IDListLen(buf); n != 3 {
		t.Fatalf("expected 3 ids, got %d", n)
	}
	if got := IDListAt(buf, 2); got != 30 {
		t.Fatalf("expected appended id 30, got %d", got)
	}

	ids, err := DecodeIDList(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []uint64{10, 20, 30}) {
		t.Fatalf("unexpected list %v", ids)
	}
}

func TestDecodeIDListMalformed(t *testing.T) {
	if _, err := DecodeIDList(make([]byte, 7)); err == nil {
		t.Fatal("expected error for truncated id list")
	}
}
