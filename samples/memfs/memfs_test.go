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

package memfs

import (
	"bytes"
	"context"
	"testing"
	"time"
	"unsafe"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/internal/wire"
)

// fixedClock is a stand-in for timeutil.RealClock in tests that want a
// reproducible timestamp rather than whatever time the test happens to run.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeSink captures the single reply a test's call produced, the same shape
// Session.Send assembles for real but without any actual device fd.
type fakeSink struct {
	unique  uint64
	errno   int32
	data    []byte
	unveils []fuseops.Ino
}

func (s *fakeSink) Send(unique uint64, errno int32, segments ...[]byte) {
	s.unique = unique
	s.errno = errno
	s.data = nil
	for _, seg := range segments {
		s.data = append(s.data, seg...)
	}
}

func (s *fakeSink) Unveil(ino fuseops.Ino) {
	s.unveils = append(s.unveils, ino)
}

func (s *fakeSink) entryOut(t *testing.T) wire.EntryOut {
	t.Helper()
	if len(s.data) < int(unsafe.Sizeof(wire.EntryOut{})) {
		t.Fatalf("reply too short for EntryOut: %d bytes", len(s.data))
	}
	return *(*wire.EntryOut)(unsafe.Pointer(&s.data[0]))
}

func (s *fakeSink) attrOut(t *testing.T) wire.AttrOut {
	t.Helper()
	if len(s.data) < int(unsafe.Sizeof(wire.AttrOut{})) {
		t.Fatalf("reply too short for AttrOut: %d bytes", len(s.data))
	}
	return *(*wire.AttrOut)(unsafe.Pointer(&s.data[0]))
}

func hdr(unique uint64, ino fuseops.Ino) fuseops.Header {
	return fuseops.Header{Unique: unique, Ino: ino}
}

func TestMemfsMkdirLookupRoundTrip(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	ctx := context.Background()

	var mkdirSink fakeSink
	mkdirReply := fuseops.NewEntryReply(&mkdirSink, 1)
	fs.Mkdir(ctx, &fuseops.MkdirRequest{Header: hdr(1, fuseops.RootIno), Name: "docs", Mode: 0755}, mkdirReply)

	if mkdirSink.errno != 0 {
		t.Fatalf("Mkdir errno = %d, want 0", mkdirSink.errno)
	}
	created := mkdirSink.entryOut(t)
	if created.NodeID == 0 {
		t.Fatal("Mkdir did not allocate an inode")
	}

	var lookupSink fakeSink
	lookupReply := fuseops.NewEntryReply(&lookupSink, 2)
	fs.Lookup(ctx, &fuseops.LookupRequest{Header: hdr(2, fuseops.RootIno), Name: "docs"}, lookupReply)

	if lookupSink.errno != 0 {
		t.Fatalf("Lookup errno = %d, want 0", lookupSink.errno)
	}
	found := lookupSink.entryOut(t)
	if found.NodeID != created.NodeID {
		t.Errorf("Lookup found inode %d, want %d", found.NodeID, created.NodeID)
	}
}

func TestMemfsLookupMissingNameFails(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	var sink fakeSink
	reply := fuseops.NewEntryReply(&sink, 1)
	fs.Lookup(context.Background(), &fuseops.LookupRequest{Header: hdr(1, fuseops.RootIno), Name: "nope"}, reply)

	if sink.errno != 0 {
		t.Fatalf("Lookup of a missing name returned errno %d, want 0 (negative caching reply)", sink.errno)
	}
	if sink.entryOut(t).NodeID != 0 {
		t.Error("Lookup of a missing name reported a nonzero NodeID")
	}
}

func TestMemfsLookupUnderMissingParentFails(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	var sink fakeSink
	reply := fuseops.NewEntryReply(&sink, 1)
	fs.Lookup(context.Background(), &fuseops.LookupRequest{Header: hdr(1, fuseops.Ino(999)), Name: "nope"}, reply)

	if sink.errno >= 0 {
		t.Errorf("Lookup under a nonexistent parent returned errno %d, want a negative error", sink.errno)
	}
}

func TestMemfsCreateWriteRead(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	ctx := context.Background()

	var createSink fakeSink
	createReply := fuseops.NewCreateReply(&createSink, 1)
	fs.Create(ctx, &fuseops.CreateRequest{Header: hdr(1, fuseops.RootIno), Name: "notes.txt", Mode: 0644}, createReply)
	if createSink.errno != 0 {
		t.Fatalf("Create errno = %d, want 0", createSink.errno)
	}
	entry := createSink.entryOut(t)
	ino := fuseops.Ino(entry.NodeID)

	var writeSink fakeSink
	data := []byte("hello, memfs")
	writeReply := fuseops.NewWriteReply(&writeSink, 2, uint32(len(data)))
	fs.Write(ctx, &fuseops.WriteRequest{Header: hdr(2, ino), Handle: fuseops.HandleID(ino), Offset: 0, Data: data}, writeReply)
	if writeSink.errno != 0 {
		t.Fatalf("Write errno = %d, want 0", writeSink.errno)
	}

	var readSink fakeSink
	readReply := fuseops.NewBytesReply(&readSink, 3)
	fs.Read(ctx, &fuseops.ReadRequest{Header: hdr(3, ino), Handle: fuseops.HandleID(ino), Offset: 0, Size: uint32(len(data))}, readReply)
	if readSink.errno != 0 {
		t.Fatalf("Read errno = %d, want 0", readSink.errno)
	}
	if !bytes.Equal(readSink.data, data) {
		t.Errorf("Read = %q, want %q", readSink.data, data)
	}

	var getattrSink fakeSink
	getattrReply := fuseops.NewStatReply(&getattrSink, 4)
	fs.Getattr(ctx, &fuseops.GetattrRequest{Header: hdr(4, ino)}, getattrReply)
	if getattrSink.errno != 0 {
		t.Fatalf("Getattr errno = %d, want 0", getattrSink.errno)
	}
	attr := getattrSink.attrOut(t)
	if attr.Attr.Size != uint64(len(data)) {
		t.Errorf("Attr.Size = %d, want %d", attr.Attr.Size, len(data))
	}
}

func TestMemfsWritePastEndOfFileGrows(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	ctx := context.Background()

	var createSink fakeSink
	createReply := fuseops.NewCreateReply(&createSink, 1)
	fs.Create(ctx, &fuseops.CreateRequest{Header: hdr(1, fuseops.RootIno), Name: "sparse.bin"}, createReply)
	ino := fuseops.Ino(createSink.entryOut(t).NodeID)

	var writeSink fakeSink
	writeReply := fuseops.NewWriteReply(&writeSink, 2, 4)
	fs.Write(ctx, &fuseops.WriteRequest{Header: hdr(2, ino), Handle: fuseops.HandleID(ino), Offset: 10, Data: []byte("taco")}, writeReply)
	if writeSink.errno != 0 {
		t.Fatalf("Write errno = %d, want 0", writeSink.errno)
	}

	var getattrSink fakeSink
	fs.Getattr(ctx, &fuseops.GetattrRequest{Header: hdr(3, ino)}, fuseops.NewStatReply(&getattrSink, 3))
	attr := getattrSink.attrOut(t)
	if attr.Attr.Size != 14 {
		t.Errorf("Attr.Size after sparse write = %d, want 14", attr.Attr.Size)
	}
}

func TestMemfsUnlinkThenLookupFails(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	ctx := context.Background()

	var createSink fakeSink
	fs.Create(ctx, &fuseops.CreateRequest{Header: hdr(1, fuseops.RootIno), Name: "gone.txt"}, fuseops.NewCreateReply(&createSink, 1))
	if createSink.errno != 0 {
		t.Fatalf("Create errno = %d, want 0", createSink.errno)
	}

	var unlinkSink fakeSink
	fs.Unlink(ctx, &fuseops.UnlinkRequest{Header: hdr(2, fuseops.RootIno), Name: "gone.txt"}, fuseops.NewEmptyReply(&unlinkSink, 2))
	if unlinkSink.errno != 0 {
		t.Fatalf("Unlink errno = %d, want 0", unlinkSink.errno)
	}

	var lookupSink fakeSink
	fs.Lookup(ctx, &fuseops.LookupRequest{Header: hdr(3, fuseops.RootIno), Name: "gone.txt"}, fuseops.NewEntryReply(&lookupSink, 3))
	if lookupSink.errno != 0 {
		t.Fatalf("Lookup after Unlink returned errno %d, want 0 (negative caching reply)", lookupSink.errno)
	}
	if lookupSink.entryOut(t).NodeID != 0 {
		t.Error("Lookup after Unlink reported a nonzero NodeID")
	}
}

func TestMemfsReaddirListsChildren(t *testing.T) {
	fs := New(fixedClock{t: time.Unix(1000, 0)})
	ctx := context.Background()

	var mkdirSink fakeSink
	fs.Mkdir(ctx, &fuseops.MkdirRequest{Header: hdr(1, fuseops.RootIno), Name: "docs", Mode: 0755}, fuseops.NewEntryReply(&mkdirSink, 1))

	var openSink fakeSink
	fs.Opendir(ctx, &fuseops.OpendirRequest{Header: hdr(2, fuseops.RootIno)}, fuseops.NewOpenReply(&openSink, 2))
	if openSink.errno != 0 {
		t.Fatalf("Opendir errno = %d, want 0", openSink.errno)
	}

	var readdirSink fakeSink
	readdirReply := fuseops.NewReaddirReply(&readdirSink, 3, 4096)
	fs.Readdir(ctx, &fuseops.ReaddirRequest{
		Header: hdr(3, fuseops.RootIno),
		Handle: fuseops.HandleID(fuseops.RootIno),
		Offset: 0,
		Size:   4096,
	}, readdirReply)
	if readdirSink.errno != 0 {
		t.Fatalf("Readdir errno = %d, want 0", readdirSink.errno)
	}
	if len(readdirSink.data) == 0 {
		t.Fatal("Readdir returned no directory records")
	}
}
