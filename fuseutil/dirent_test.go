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

package fuseutil

import (
	"testing"
	"unsafe"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/internal/wire"
)

func TestWriteDirentAligns(t *testing.T) {
	cases := []struct {
		name    string
		wantPad int
	}{
		{"a", 7},        // len 1, pad to next multiple of 8
		{"abcdefgh", 0}, // len 8, already aligned
		{"abcdefghi", 7},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, 4096)
			n := WriteDirent(buf, DirentEntry{
				Ino:    42,
				Offset: 1,
				Name:   tc.name,
				Type:   fuseops.RegularFiletype,
			})
			want := wire.DirentSize + len(tc.name) + tc.wantPad
			if n != want {
				t.Errorf("WriteDirent(%q) = %d bytes, want %d", tc.name, n, want)
			}
			if n%wire.DirentAlignment != 0 {
				t.Errorf("WriteDirent(%q) wrote %d bytes, not 8-byte aligned", tc.name, n)
			}
		})
	}
}

func TestWriteDirentTooSmallReturnsZero(t *testing.T) {
	buf := make([]byte, wire.DirentSize)
	n := WriteDirent(buf, DirentEntry{Name: "toolong", Type: fuseops.RegularFiletype})
	if n != 0 {
		t.Errorf("WriteDirent with undersized buffer = %d, want 0", n)
	}
}

func TestWriteDirentFieldsRoundTrip(t *testing.T) {
	buf := make([]byte, 4096)
	n := WriteDirent(buf, DirentEntry{
		Ino:    7,
		Offset: 3,
		Name:   "taco",
		Type:   fuseops.DirectoryFiletype,
	})
	if n == 0 {
		t.Fatal("WriteDirent returned 0")
	}

	d := (*wire.Dirent)(unsafe.Pointer(&buf[0]))
	if d.Ino != 7 {
		t.Errorf("Ino = %d, want 7", d.Ino)
	}
	if d.Off != 3 {
		t.Errorf("Off = %d, want 3", d.Off)
	}
	if d.Namelen != uint32(len("taco")) {
		t.Errorf("Namelen = %d, want %d", d.Namelen, len("taco"))
	}
	if d.Type != 4 { // DT_DIR
		t.Errorf("Type = %d, want DT_DIR (4)", d.Type)
	}
	gotName := string(buf[wire.DirentSize : wire.DirentSize+4])
	if gotName != "taco" {
		t.Errorf("name bytes = %q, want %q", gotName, "taco")
	}
}

func TestWriteDirentPlusIncludesEntry(t *testing.T) {
	buf := make([]byte, 4096)
	entry := fuseops.Entry{
		Ino:      42,
		Filetype: fuseops.RegularFiletype,
		EntryTtl: fuseops.TtlMax,
		AttrTtl:  fuseops.TtlMax,
	}

	n := WriteDirentPlus(buf, DirentEntry{
		Ino:    42,
		Offset: 1,
		Name:   "taco",
		Type:   fuseops.RegularFiletype,
	}, entry)

	direntPlusSize := int(unsafe.Sizeof(wire.DirentPlus{}))
	want := direntPlusSize + len("taco") + 4 // pad to 8-byte boundary
	if n != want {
		t.Errorf("WriteDirentPlus = %d bytes, want %d", n, want)
	}

	dp := (*wire.DirentPlus)(unsafe.Pointer(&buf[0]))
	if dp.Dirent.Ino != 42 {
		t.Errorf("Dirent.Ino = %d, want 42", dp.Dirent.Ino)
	}
}
