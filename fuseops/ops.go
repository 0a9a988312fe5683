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

package fuseops

import (
	"context"

	"github.com/kernelfs/fuse/internal/wire"
)

// Header is embedded in every request type. Unique identifies the request
// for replies and for matching a later Interrupt; Ino is the inode the
// kernel addressed the request to (the mountpoint's own identity for
// requests like Statfs that are not about any one inode).
type Header struct {
	Unique uint64
	Ino    Ino
	UID    uint32
	GID    uint32
	PID    uint32
}

// Entry describes an inode newly bound to a name, as produced by Lookup,
// Mkdir, Mknod, Symlink, Link and Create. Calling a reply's Known method
// with an Entry causes the session to report one additional lookup-count
// reference for Ino to the host via Handler's Unveil callback; the host is
// expected to balance this with Forget accounting.
type Entry struct {
	Ino        Ino
	Generation uint64
	Attrs      Attrs
	Filetype   Filetype
	EntryTtl   Ttl
	AttrTtl    Ttl
}

// Wire exposes e's on-wire EntryOut encoding for callers outside this
// package that need to embed it in a larger record, such as
// fuseutil.WriteDirentPlus assembling a ReaddirPlus record.
func (e Entry) Wire() wire.EntryOut {
	return e.wire()
}

func (e Entry) wire() wire.EntryOut {
	entrySec, entryNsec := e.EntryTtl.wire()
	attrSec, attrNsec := e.AttrTtl.wire()
	return wire.EntryOut{
		NodeID:         uint64(e.Ino),
		Generation:     e.Generation,
		EntryValid:     entrySec,
		AttrValid:      attrSec,
		EntryValidNsec: entryNsec,
		AttrValidNsec:  attrNsec,
		Attr:           e.Attrs.Build(e.Ino, e.Filetype),
	}
}

// Handler is implemented by a host filesystem. Every method is handed a
// request and a reply and must return the Done value produced by calling
// exactly one of the reply's terminal methods. Embed
// fuseutil.NotImplementedHandler to pick up ENOSYS defaults for methods a
// particular filesystem does not care about.
type Handler interface {
	Init(ctx context.Context, req *InitRequest, reply *InitReply) Done

	Lookup(ctx context.Context, req *LookupRequest, reply *EntryReply) Done
	Forget(ctx context.Context, req *ForgetRequest, reply *NoReply) Done
	Getattr(ctx context.Context, req *GetattrRequest, reply *StatReply) Done
	Setattr(ctx context.Context, req *SetattrRequest, reply *StatReply) Done

	Readlink(ctx context.Context, req *ReadlinkRequest, reply *BytesReply) Done
	Symlink(ctx context.Context, req *SymlinkRequest, reply *EntryReply) Done
	Mknod(ctx context.Context, req *MknodRequest, reply *EntryReply) Done
	Mkdir(ctx context.Context, req *MkdirRequest, reply *EntryReply) Done
	Unlink(ctx context.Context, req *UnlinkRequest, reply *EmptyReply) Done
	Rmdir(ctx context.Context, req *RmdirRequest, reply *EmptyReply) Done
	Rename(ctx context.Context, req *RenameRequest, reply *EmptyReply) Done
	Link(ctx context.Context, req *LinkRequest, reply *EntryReply) Done

	Open(ctx context.Context, req *OpenRequest, reply *OpenReply) Done
	Read(ctx context.Context, req *ReadRequest, reply *BytesReply) Done
	Write(ctx context.Context, req *WriteRequest, reply *WriteReply) Done
	Flush(ctx context.Context, req *FlushRequest, reply *EmptyReply) Done
	Release(ctx context.Context, req *ReleaseRequest, reply *EmptyReply) Done
	Fsync(ctx context.Context, req *FsyncRequest, reply *EmptyReply) Done

	Opendir(ctx context.Context, req *OpendirRequest, reply *OpenReply) Done
	Readdir(ctx context.Context, req *ReaddirRequest, reply *ReaddirReply) Done
	Releasedir(ctx context.Context, req *ReleasedirRequest, reply *EmptyReply) Done
	Fsyncdir(ctx context.Context, req *FsyncdirRequest, reply *EmptyReply) Done

	Setxattr(ctx context.Context, req *SetxattrRequest, reply *EmptyReply) Done
	Getxattr(ctx context.Context, req *GetxattrRequest, reply *GetxattrReply) Done
	Listxattr(ctx context.Context, req *ListxattrRequest, reply *ListxattrReply) Done
	Removexattr(ctx context.Context, req *RemovexattrRequest, reply *EmptyReply) Done

	Statfs(ctx context.Context, req *StatfsRequest, reply *InfoReply) Done
	Access(ctx context.Context, req *AccessRequest, reply *EmptyReply) Done
	Create(ctx context.Context, req *CreateRequest, reply *CreateReply) Done
	Bmap(ctx context.Context, req *BmapRequest, reply *BmapReply) Done
	Destroy(ctx context.Context, req *DestroyRequest, reply *NoReply) Done

	// Unveil is called once for every successful entry-producing reply this
	// session sends for ino: EntryReply.Known (Lookup, Mkdir, Mknod,
	// Symlink, Link), CreateReply.KnownWithHandle, and once per non-"."/".."
	// record in a ReaddirPlus listing. Each call hands the kernel one new
	// lookup-count reference; the host is expected to balance it against
	// the matching ForgetLookup.Nlookup it eventually receives via Forget.
	// Hosts that don't reclaim inodes on Forget can leave this a no-op.
	Unveil(ino Ino)
}

////////////////////////////////////////////////////////////////////////
// Requests
////////////////////////////////////////////////////////////////////////

type InitRequest struct {
	Header
	Major        uint32
	Minor        uint32
	MaxReadahead uint32
	Flags        uint32
}

type LookupRequest struct {
	Header
	Name string
}

// ForgetLookup is one (inode, count) pair the kernel is retiring. A plain
// Forget carries exactly one; a BatchForget carries as many as the kernel
// chose to coalesce. The registry unifies both opcodes into this shape so
// Handler only ever sees one Forget method.
type ForgetLookup struct {
	Ino     Ino
	Nlookup uint64
}

type ForgetRequest struct {
	Header
	Lookups []ForgetLookup
}

type GetattrRequest struct {
	Header
	Handle      HandleID
	HandleValid bool
}

type SetattrRequest struct {
	Header
	Handle      HandleID
	HandleValid bool
	Valid       uint32
	Size        *uint64
	Mode        *uint32
	UID         *uint32
	GID         *uint32
	Atime       *Timestamp
	Mtime       *Timestamp
	AtimeNow    bool
	MtimeNow    bool
}

// Setattr field bits, re-exported so hosts can test SetattrRequest.Valid
// without importing the wire package.
const (
	SetattrMode  = wire.SetattrMode
	SetattrUID   = wire.SetattrUID
	SetattrGID   = wire.SetattrGID
	SetattrSize  = wire.SetattrSize
	SetattrAtime = wire.SetattrAtime
	SetattrMtime = wire.SetattrMtime
)

type ReadlinkRequest struct {
	Header
}

type SymlinkRequest struct {
	Header
	Name   string
	Target string
}

type MknodRequest struct {
	Header
	Name  string
	Mode  uint32
	Rdev  uint32
	Umask uint32
}

type MkdirRequest struct {
	Header
	Name  string
	Mode  uint32
	Umask uint32
}

type UnlinkRequest struct {
	Header
	Name string
}

type RmdirRequest struct {
	Header
	Name string
}

type RenameRequest struct {
	Header
	NewDirIno Ino
	OldName   string
	NewName   string
	Flags     uint32
}

type LinkRequest struct {
	Header
	OldIno Ino
	Name   string
}

type OpenRequest struct {
	Header
	Flags uint32
}

type OpendirRequest struct {
	Header
	Flags uint32
}

type ReadRequest struct {
	Header
	Handle HandleID
	Offset int64
	Size   uint32
	Flags  uint32
}

type WriteRequest struct {
	Header
	Handle HandleID
	Offset int64
	Data   []byte
	Flags  uint32
}

type StatfsRequest struct {
	Header
}

type DestroyRequest struct {
	Header
}

type ReleaseRequest struct {
	Header
	Handle HandleID
	Flags  uint32
	Flush  bool
}

type ReleasedirRequest struct {
	Header
	Handle HandleID
	Flags  uint32
}

type FsyncRequest struct {
	Header
	Handle       HandleID
	DataSyncOnly bool
}

type FsyncdirRequest struct {
	Header
	Handle       HandleID
	DataSyncOnly bool
}

type SetxattrRequest struct {
	Header
	Name  string
	Value []byte
	Flags uint32
}

type GetxattrRequest struct {
	Header
	Name string
	Size uint32
}

type ListxattrRequest struct {
	Header
	Size uint32
}

type RemovexattrRequest struct {
	Header
	Name string
}

type FlushRequest struct {
	Header
	Handle    HandleID
	LockOwner uint64
}

type ReaddirRequest struct {
	Header
	Handle HandleID
	Offset DirOffset
	Size   uint32
	Plus   bool
}

type AccessRequest struct {
	Header
	Mask uint32
}

type CreateRequest struct {
	Header
	Name  string
	Flags uint32
	Mode  uint32
	Umask uint32
}

type BmapRequest struct {
	Header
	Block     uint64
	Blocksize uint32
}
