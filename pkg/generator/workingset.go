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

package generator

import "math/rand"

// WorkingSet draws user ids from a bounded working set spread evenly over
// the full id space, modeling skewed access locality: a draw w in
// [0, setSize) maps to w*(totalItems/setSize)+1.
type WorkingSet struct {
	Number
	setSize int64
	stride  int64
}

// NewWorkingSet creates a WorkingSet generator over [1, totalItems].
// setSize must be in (0, totalItems].
func NewWorkingSet(totalItems int64, setSize int64) *WorkingSet {
	if setSize <= 0 || setSize > totalItems {
		setSize = totalItems
	}
	return &WorkingSet{
		setSize: setSize,
		stride:  totalItems / setSize,
	}
}

// Next implements the Generator Next interface.
func (w *WorkingSet) Next(r *rand.Rand) int64 {
	n := r.Int63n(w.setSize)*w.stride + 1
	w.SetLastValue(n)
	return n
}
