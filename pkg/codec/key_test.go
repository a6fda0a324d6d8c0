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
	"bytes"
	"testing"
)

func TestKeyRoundTrip(t *testing.T) {
	cols := []Column{ColumnFollowers, ColumnStream, ColumnTweets, ColumnData}
	ids := []uint64{0, 1, 99999, 1 << 40, ^uint64(0)}

	for _, col := range cols {
		for _, id := range ids {
			key := EncodeKey(id, col)
			gotID, gotCol, err := DecodeKey(key)
			if err != nil {
				t.Fatalf("decode (%d, %s): %v", id, col, err)
			}
			if gotID != id || gotCol != col {
				t.Fatalf("round trip (%d, %s) became (%d, %s)", id, col, gotID, gotCol)
			}
		}
	}
}

func TestKeyInjective(t *testing.T) {
	seen := make(map[string]struct{})
	cols := []Column{ColumnFollowers, ColumnStream, ColumnTweets, ColumnData}
	for id := uint64(0); id < 64; id++ {
		for _, col := range cols {
			k := string(EncodeKey(id, col))
			if _, ok := seen[k]; ok {
				t.Fatalf("key collision for (%d, %s)", id, col)
			}
			seen[k] = struct{}{}
		}
	}
	// counter keys live in a separate length class
	for _, kind := range []CounterKind{CounterUserID, CounterTweetID} {
		k := string(EncodeCounterKey(kind))
		if _, ok := seen[k]; ok {
			t.Fatalf("counter key %d collides with a record key", kind)
		}
		seen[k] = struct{}{}
	}
	if len(seen) != 64*4+2 {
		t.Fatalf("expected %d distinct keys, got %d", 64*4+2, len(seen))
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := EncodeKey(42, ColumnStream)
	b := EncodeKey(42, ColumnStream)
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding not deterministic: %x vs %x", a, b)
	}
}

func TestDecodeKeyMalformed(t *testing.T) {
	if _, _, err := DecodeKey(nil); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, _, err := DecodeKey(make([]byte, 8)); err == nil {
		t.Fatal("expected error for short key")
	}
	bad := EncodeKey(1, ColumnData)
	bad[8] = 0xff
	if _, _, err := DecodeKey(bad); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestCounterKeyRoundTrip(t *testing.T) {
	for _, kind := range []CounterKind{CounterUserID, CounterTweetID} {
		got, err := DecodeCounterKey(EncodeCounterKey(kind))
		if err != nil {
			t.Fatalf("decode counter %d: %v", kind, err)
		}
		if got != kind {
			t.Fatalf("counter round trip %d became %d", kind, got)
		}
	}
	if _, err := DecodeCounterKey([]byte{0xff}); err == nil {
		t.Fatal("expected error for unknown counter kind")
	}
}
