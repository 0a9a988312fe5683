// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fuse

// maxIovecs bounds how many segments a single OutputChain may flatten into.
// It matches the number of scatter-gather entries a reply ever actually
// needs (header, fixed struct, at most a couple of borrowed blobs), so
// exceeding it means a handler built an unreasonably fragmented chain
// rather than anything the kernel itself demands.
const maxIovecs = 8

// OutputChain is a recursive list of borrowed byte-slice segments: a slice
// of segments plus an optional pointer to a chain that precedes it. It is
// the scatter-gather assembly structure a reply builds before a single
// writev call — appending to it never copies or concatenates any bytes.
//
// The zero value is not meaningful; build chains with TailChain and extend
// them with Preceded.
type OutputChain struct {
	segments [][]byte
	then     *OutputChain
}

// TailChain starts a chain whose only segments are the given ones. It is
// called "tail" because Preceded grows the chain backwards from here.
func TailChain(segments ...[]byte) OutputChain {
	return OutputChain{segments: segments}
}

// Preceded returns a new chain consisting of segments followed by every
// segment already in c. That is,
//
//	c.Preceded(a, b).Flatten() == append([][]byte{a, b}, c.Flatten()...)
func (c OutputChain) Preceded(segments ...[]byte) OutputChain {
	prior := c
	return OutputChain{segments: segments, then: &prior}
}

// Flatten walks the chain front-to-back and returns every segment in order.
// It allocates a slice of slice headers (not of byte content) and panics if
// the chain holds more than maxIovecs segments in total, since that would
// indicate an internal bug rather than a legitimate reply shape.
func (c OutputChain) Flatten() [][]byte {
	var out [][]byte
	for cur := &c; cur != nil; cur = cur.then {
		out = append(out, cur.segments...)
	}
	if len(out) > maxIovecs {
		panic("fuse: OutputChain grew past the inlined iovec limit")
	}
	return out
}

// TotalLen returns the sum of every segment's length.
func (c OutputChain) TotalLen() int {
	n := 0
	for _, s := range c.Flatten() {
		n += len(s)
	}
	return n
}
