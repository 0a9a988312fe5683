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

import (
	"bytes"
	"testing"
)

func TestOutputChainTailOnly(t *testing.T) {
	c := TailChain([]byte("taco"), []byte("burrito"))

	segs := c.Flatten()
	if len(segs) != 2 {
		t.Fatalf("Flatten() returned %d segments, want 2", len(segs))
	}
	if !bytes.Equal(segs[0], []byte("taco")) || !bytes.Equal(segs[1], []byte("burrito")) {
		t.Errorf("Flatten() = %q, want [taco burrito]", segs)
	}
	if got, want := c.TotalLen(), len("taco")+len("burrito"); got != want {
		t.Errorf("TotalLen() = %d, want %d", got, want)
	}
}

func TestOutputChainPrecededOrdering(t *testing.T) {
	c := TailChain([]byte("z")).Preceded([]byte("a"), []byte("b"))

	segs := c.Flatten()
	want := [][]byte{[]byte("a"), []byte("b"), []byte("z")}
	if len(segs) != len(want) {
		t.Fatalf("Flatten() returned %d segments, want %d", len(segs), len(want))
	}
	for i := range want {
		if !bytes.Equal(segs[i], want[i]) {
			t.Errorf("segment %d = %q, want %q", i, segs[i], want[i])
		}
	}
}

func TestOutputChainMultiplePrecede(t *testing.T) {
	c := TailChain([]byte("c")).Preceded([]byte("b")).Preceded([]byte("a"))

	segs := c.Flatten()
	want := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	for i := range want {
		if !bytes.Equal(segs[i], want[i]) {
			t.Errorf("segment %d = %q, want %q", i, segs[i], want[i])
		}
	}
}

func TestOutputChainTotalLenEmptySegments(t *testing.T) {
	c := TailChain(nil, []byte("x"), nil)
	if got, want := c.TotalLen(), 1; got != want {
		t.Errorf("TotalLen() = %d, want %d", got, want)
	}
}

func TestOutputChainFlattenPanicsPastLimit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Flatten() did not panic past maxIovecs segments")
		}
	}()

	c := TailChain(make([][]byte, maxIovecs+1)...)
	c.Flatten()
}
