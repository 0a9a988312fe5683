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
	"context"
	"testing"
	"time"
	"unsafe"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/fuseutil"
	"github.com/kernelfs/fuse/internal/buffer"
	"github.com/kernelfs/fuse/internal/wire"
)

// recordingHandler embeds NotImplementedHandler and records whatever
// requests dispatch hands to the methods it overrides, so tests can assert
// on decode correctness without a full filesystem behind it.
type recordingHandler struct {
	fuseutil.NotImplementedHandler

	lookup  *fuseops.LookupRequest
	getattr *fuseops.GetattrRequest
	setattr *fuseops.SetattrRequest
	mkdir   *fuseops.MkdirRequest
	read    *fuseops.ReadRequest
	write   *fuseops.WriteRequest
	access  *fuseops.AccessRequest
}

func (h *recordingHandler) Lookup(ctx context.Context, req *fuseops.LookupRequest, reply *fuseops.EntryReply) fuseops.Done {
	h.lookup = req
	return reply.NotFound()
}

func (h *recordingHandler) Getattr(ctx context.Context, req *fuseops.GetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	h.getattr = req
	return reply.Stat(req.Ino, fuseops.RegularFiletype, fuseops.Attrs{Size: 4}, fuseops.TtlMax)
}

func (h *recordingHandler) Setattr(ctx context.Context, req *fuseops.SetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	h.setattr = req
	return reply.Stat(req.Ino, fuseops.RegularFiletype, fuseops.Attrs{}, fuseops.TtlMax)
}

func (h *recordingHandler) Mkdir(ctx context.Context, req *fuseops.MkdirRequest, reply *fuseops.EntryReply) fuseops.Done {
	h.mkdir = req
	return reply.NotFoundUncached()
}

func (h *recordingHandler) Read(ctx context.Context, req *fuseops.ReadRequest, reply *fuseops.BytesReply) fuseops.Done {
	h.read = req
	return reply.Bytes([]byte("taco"))
}

func (h *recordingHandler) Write(ctx context.Context, req *fuseops.WriteRequest, reply *fuseops.WriteReply) fuseops.Done {
	h.write = req
	return reply.All()
}

func (h *recordingHandler) Access(ctx context.Context, req *fuseops.AccessRequest, reply *fuseops.EmptyReply) fuseops.Done {
	h.access = req
	return reply.Ok()
}

// dispatchMessage builds an InMessage out of hdr+body, wires up a Session
// around one end of a socketpair, calls dispatch, and returns whatever was
// written back so a test can inspect the reply bytes if it cares to.
func dispatchMessage(t *testing.T, handler fuseops.Handler, hdr wire.InHeader, body []byte) []byte {
	t.Helper()
	local, remote := socketpairFiles(t)

	sess := &Session{dev: local, handler: handler}

	full := append(podBytes(hdr), body...)
	m := buffer.NewInMessage(8192)
	if err := m.Init(bytes.NewReader(full)); err != nil {
		t.Fatalf("InMessage.Init: %v", err)
	}

	sess.dispatch(context.Background(), m)

	remote.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 4096)
	n, err := remote.Read(buf)
	if err != nil {
		t.Fatalf("remote.Read: %v", err)
	}
	return buf[:n]
}

func TestDispatchLookup(t *testing.T) {
	h := &recordingHandler{}
	hdr := wire.InHeader{Opcode: uint32(wire.OpLookup), Unique: 1, NodeID: 5}
	body := append([]byte("taco"), 0)

	dispatchMessage(t, h, hdr, body)

	if h.lookup == nil {
		t.Fatal("Lookup was not called")
	}
	if h.lookup.Name != "taco" {
		t.Errorf("Name = %q, want %q", h.lookup.Name, "taco")
	}
	if h.lookup.Ino != 5 {
		t.Errorf("Ino = %d, want 5", h.lookup.Ino)
	}
}

func TestDispatchGetattr(t *testing.T) {
	h := &recordingHandler{}
	body := wire.GetattrIn{GetattrFlags: wire.GetattrFhValid, Fh: 99}
	hdr := wire.InHeader{Opcode: uint32(wire.OpGetattr), Unique: 2, NodeID: 7}

	dispatchMessage(t, h, hdr, podBytes(body))

	if h.getattr == nil {
		t.Fatal("Getattr was not called")
	}
	if !h.getattr.HandleValid {
		t.Error("HandleValid = false, want true")
	}
	if h.getattr.Handle != 99 {
		t.Errorf("Handle = %d, want 99", h.getattr.Handle)
	}
}

func TestDispatchSetattrSizeAndMode(t *testing.T) {
	h := &recordingHandler{}
	body := wire.SetattrIn{
		Valid: wire.SetattrSize | wire.SetattrMode,
		Size:  1024,
		Mode:  0644,
	}
	hdr := wire.InHeader{Opcode: uint32(wire.OpSetattr), Unique: 3, NodeID: 9}

	dispatchMessage(t, h, hdr, podBytes(body))

	if h.setattr == nil {
		t.Fatal("Setattr was not called")
	}
	if h.setattr.Size == nil || *h.setattr.Size != 1024 {
		t.Errorf("Size = %v, want 1024", h.setattr.Size)
	}
	if h.setattr.Mode == nil || *h.setattr.Mode != 0644 {
		t.Errorf("Mode = %v, want 0644", h.setattr.Mode)
	}
	if h.setattr.UID != nil {
		t.Errorf("UID = %v, want nil (not in Valid mask)", h.setattr.UID)
	}
}

func TestDispatchMkdir(t *testing.T) {
	h := &recordingHandler{}
	body := append(podBytes(wire.MkdirIn{Mode: 0755, Umask: 022}), append([]byte("burrito"), 0)...)
	hdr := wire.InHeader{Opcode: uint32(wire.OpMkdir), Unique: 4, NodeID: 1}

	dispatchMessage(t, h, hdr, body)

	if h.mkdir == nil {
		t.Fatal("Mkdir was not called")
	}
	if h.mkdir.Name != "burrito" {
		t.Errorf("Name = %q, want %q", h.mkdir.Name, "burrito")
	}
	if h.mkdir.Mode != 0755 {
		t.Errorf("Mode = %o, want %o", h.mkdir.Mode, 0755)
	}
}

func TestDispatchReadWrite(t *testing.T) {
	h := &recordingHandler{}

	readBody := wire.ReadIn{Fh: 3, Offset: 10, Size: 4}
	dispatchMessage(t, h, wire.InHeader{Opcode: uint32(wire.OpRead), Unique: 5}, podBytes(readBody))
	if h.read == nil {
		t.Fatal("Read was not called")
	}
	if h.read.Offset != 10 || h.read.Size != 4 {
		t.Errorf("Read request = %+v, want offset 10 size 4", h.read)
	}

	writeIn := wire.WriteIn{Fh: 3, Offset: 0, Size: 4}
	writeBody := append(podBytes(writeIn), []byte("taco")...)
	dispatchMessage(t, h, wire.InHeader{Opcode: uint32(wire.OpWrite), Unique: 6}, writeBody)
	if h.write == nil {
		t.Fatal("Write was not called")
	}
	if !bytes.Equal(h.write.Data, []byte("taco")) {
		t.Errorf("Write.Data = %q, want %q", h.write.Data, "taco")
	}
}

func TestDispatchUnknownOpcodeAnswersENOSYS(t *testing.T) {
	h := &recordingHandler{}
	hdr := wire.InHeader{Opcode: 9999, Unique: 11}

	reply := dispatchMessage(t, h, hdr, nil)

	outHdr := (*wire.OutHeader)(unsafe.Pointer(&reply[0]))
	if outHdr.Error != -int32(ENOSYS) {
		t.Errorf("Error = %d, want %d (ENOSYS)", outHdr.Error, -int32(ENOSYS))
	}
	if outHdr.Unique != 11 {
		t.Errorf("Unique = %d, want 11", outHdr.Unique)
	}
}

func TestDispatchMalformedBodyAnswersEIO(t *testing.T) {
	h := &recordingHandler{}
	// Getattr's body is fixed-size; one truncated byte should fail decode.
	hdr := wire.InHeader{Opcode: uint32(wire.OpGetattr), Unique: 12}

	reply := dispatchMessage(t, h, hdr, []byte{0})

	outHdr := (*wire.OutHeader)(unsafe.Pointer(&reply[0]))
	if outHdr.Error != -int32(EIO) {
		t.Errorf("Error = %d, want %d (EIO)", outHdr.Error, -int32(EIO))
	}
	if h.getattr != nil {
		t.Error("Getattr was called despite a truncated body")
	}
}
