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
	"context"
	"fmt"
	"time"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/internal/buffer"
	"github.com/kernelfs/fuse/internal/wire"
)

// dispatch decodes one message's body according to its header's opcode and
// routes it to the matching Handler method. Decode failures are answered
// with EIO and logged; an opcode this package does not translate into a
// Handler method (the POSIX byte-range lock family, ioctl, poll, and the
// handful of newer opcodes this revision does not yet supplement) is
// answered with ENOSYS, the documented disposition for an operation the
// server does not implement.
func (s *Session) dispatch(ctx context.Context, m *buffer.InMessage) {
	hdr := m.Header()
	cur := m.Cursor()
	op := wire.Opcode(hdr.Opcode)
	unique := hdr.Unique
	base := baseHeader(hdr)

	fail := func() {
		warnLog("request %d: %v", unique, truncatedError())
		s.Send(unique, -int32(EIO))
	}

	switch op {
	case wire.OpLookup:
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.LookupRequest{Header: base, Name: name}
		reply := fuseops.NewEntryReply(s, unique)
		s.handler.Lookup(ctx, req, reply)

	case wire.OpForget:
		body, err := wire.POD[wire.ForgetIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ForgetRequest{
			Header:  base,
			Lookups: []fuseops.ForgetLookup{{Ino: base.Ino, Nlookup: body.Nlookup}},
		}
		reply := fuseops.NewNoReply(s, unique)
		s.handler.Forget(ctx, req, reply)

	case wire.OpBatchForget:
		hdrBody, err := wire.POD[wire.BatchForgetIn](&cur)
		if err != nil {
			fail()
			return
		}
		items, err := wire.PODSlice[wire.ForgetOne](&cur)
		if err != nil {
			fail()
			return
		}
		if uint32(len(items)) != hdrBody.Count {
			warnLog("request %d: %v", unique, badLengthError(fmt.Errorf("batch forget: header said %d entries, body had %d", hdrBody.Count, len(items))))
			s.Send(unique, -int32(EIO))
			return
		}
		lookups := make([]fuseops.ForgetLookup, len(items))
		for i, it := range items {
			lookups[i] = fuseops.ForgetLookup{Ino: fuseops.Ino(it.NodeID), Nlookup: it.Nlookup}
		}
		req := &fuseops.ForgetRequest{Header: base, Lookups: lookups}
		reply := fuseops.NewNoReply(s, unique)
		s.handler.Forget(ctx, req, reply)

	case wire.OpGetattr:
		body, err := wire.POD[wire.GetattrIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.GetattrRequest{
			Header:      base,
			Handle:      fuseops.HandleID(body.Fh),
			HandleValid: body.GetattrFlags&wire.GetattrFhValid != 0,
		}
		reply := fuseops.NewStatReply(s, unique)
		s.handler.Getattr(ctx, req, reply)

	case wire.OpSetattr:
		body, err := wire.POD[wire.SetattrIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := setattrRequest(base, body)
		reply := fuseops.NewStatReply(s, unique)
		s.handler.Setattr(ctx, req, reply)

	case wire.OpReadlink:
		req := &fuseops.ReadlinkRequest{Header: base}
		reply := fuseops.NewBytesReply(s, unique)
		s.handler.Readlink(ctx, req, reply)

	case wire.OpSymlink:
		name, err := cur.CString(false)
		if err != nil {
			fail()
			return
		}
		target, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.SymlinkRequest{Header: base, Name: name, Target: target}
		reply := fuseops.NewEntryReply(s, unique)
		s.handler.Symlink(ctx, req, reply)

	case wire.OpMknod:
		body, err := wire.POD[wire.MknodIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.MknodRequest{Header: base, Name: name, Mode: body.Mode, Rdev: body.Rdev, Umask: body.Umask}
		reply := fuseops.NewEntryReply(s, unique)
		s.handler.Mknod(ctx, req, reply)

	case wire.OpMkdir:
		body, err := wire.POD[wire.MkdirIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.MkdirRequest{Header: base, Name: name, Mode: body.Mode, Umask: body.Umask}
		reply := fuseops.NewEntryReply(s, unique)
		s.handler.Mkdir(ctx, req, reply)

	case wire.OpUnlink:
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.UnlinkRequest{Header: base, Name: name}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Unlink(ctx, req, reply)

	case wire.OpRmdir:
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.RmdirRequest{Header: base, Name: name}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Rmdir(ctx, req, reply)

	case wire.OpRename:
		body, err := wire.POD[wire.RenameIn](&cur)
		if err != nil {
			fail()
			return
		}
		oldName, err := cur.CString(false)
		if err != nil {
			fail()
			return
		}
		newName, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.RenameRequest{Header: base, NewDirIno: fuseops.Ino(body.NewDir), OldName: oldName, NewName: newName}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Rename(ctx, req, reply)

	case wire.OpRename2:
		body, err := wire.POD[wire.Rename2In](&cur)
		if err != nil {
			fail()
			return
		}
		oldName, err := cur.CString(false)
		if err != nil {
			fail()
			return
		}
		newName, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.RenameRequest{
			Header: base, NewDirIno: fuseops.Ino(body.NewDir),
			OldName: oldName, NewName: newName, Flags: body.Flags,
		}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Rename(ctx, req, reply)

	case wire.OpLink:
		body, err := wire.POD[wire.LinkIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.LinkRequest{Header: base, OldIno: fuseops.Ino(body.OldNodeID), Name: name}
		reply := fuseops.NewEntryReply(s, unique)
		s.handler.Link(ctx, req, reply)

	case wire.OpOpen:
		body, err := wire.POD[wire.OpenIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.OpenRequest{Header: base, Flags: body.Flags}
		reply := fuseops.NewOpenReply(s, unique)
		s.handler.Open(ctx, req, reply)

	case wire.OpOpendir:
		body, err := wire.POD[wire.OpendirIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.OpendirRequest{Header: base, Flags: body.Flags}
		reply := fuseops.NewOpenReply(s, unique)
		s.handler.Opendir(ctx, req, reply)

	case wire.OpRead:
		body, err := wire.POD[wire.ReadIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ReadRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			Offset: int64(body.Offset), Size: body.Size, Flags: body.Flags,
		}
		reply := fuseops.NewBytesReply(s, unique)
		s.handler.Read(ctx, req, reply)

	case wire.OpWrite:
		body, err := wire.POD[wire.WriteIn](&cur)
		if err != nil {
			fail()
			return
		}
		data, err := cur.Bytes(body.Size)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.WriteRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			Offset: int64(body.Offset), Data: data, Flags: body.Flags,
		}
		reply := fuseops.NewWriteReply(s, unique, body.Size)
		s.handler.Write(ctx, req, reply)

	case wire.OpFlush:
		body, err := wire.POD[wire.FlushIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.FlushRequest{Header: base, Handle: fuseops.HandleID(body.Fh), LockOwner: body.LockOwner}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Flush(ctx, req, reply)

	case wire.OpRelease:
		body, err := wire.POD[wire.ReleaseIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ReleaseRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh), Flags: body.Flags,
			Flush: body.ReleaseFlags&wire.ReleaseFlush != 0,
		}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Release(ctx, req, reply)

	case wire.OpReleasedir:
		body, err := wire.POD[wire.ReleasedirIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ReleasedirRequest{Header: base, Handle: fuseops.HandleID(body.Fh), Flags: body.Flags}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Releasedir(ctx, req, reply)

	case wire.OpFsync:
		body, err := wire.POD[wire.FsyncIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.FsyncRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			DataSyncOnly: body.FsyncFlags&wire.FsyncFdatasync != 0,
		}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Fsync(ctx, req, reply)

	case wire.OpFsyncdir:
		body, err := wire.POD[wire.FsyncIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.FsyncdirRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			DataSyncOnly: body.FsyncFlags&wire.FsyncFdatasync != 0,
		}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Fsyncdir(ctx, req, reply)

	case wire.OpSetxattr:
		body, err := wire.POD[wire.SetxattrIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(false)
		if err != nil {
			fail()
			return
		}
		value, err := cur.Bytes(body.Size)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.SetxattrRequest{Header: base, Name: name, Value: value, Flags: body.Flags}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Setxattr(ctx, req, reply)

	case wire.OpGetxattr:
		body, err := wire.POD[wire.GetxattrIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.GetxattrRequest{Header: base, Name: name, Size: body.Size}
		reply := fuseops.NewGetxattrReply(s, unique, body.Size == 0)
		s.handler.Getxattr(ctx, req, reply)

	case wire.OpListxattr:
		body, err := wire.POD[wire.ListxattrIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ListxattrRequest{Header: base, Size: body.Size}
		reply := fuseops.NewListxattrReply(s, unique, body.Size == 0)
		s.handler.Listxattr(ctx, req, reply)

	case wire.OpRemovexattr:
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.RemovexattrRequest{Header: base, Name: name}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Removexattr(ctx, req, reply)

	case wire.OpStatfs:
		req := &fuseops.StatfsRequest{Header: base}
		reply := fuseops.NewInfoReply(s, unique)
		s.handler.Statfs(ctx, req, reply)

	case wire.OpAccess:
		body, err := wire.POD[wire.AccessIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.AccessRequest{Header: base, Mask: body.Mask}
		reply := fuseops.NewEmptyReply(s, unique)
		s.handler.Access(ctx, req, reply)

	case wire.OpCreate:
		body, err := wire.POD[wire.CreateIn](&cur)
		if err != nil {
			fail()
			return
		}
		name, err := cur.CString(true)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.CreateRequest{Header: base, Name: name, Flags: body.Flags, Mode: body.Mode, Umask: body.Umask}
		reply := fuseops.NewCreateReply(s, unique)
		s.handler.Create(ctx, req, reply)

	case wire.OpBmap:
		body, err := wire.POD[wire.BmapIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.BmapRequest{Header: base, Block: body.Block, Blocksize: body.Blocksize}
		reply := fuseops.NewBmapReply(s, unique)
		s.handler.Bmap(ctx, req, reply)

	case wire.OpReaddir:
		body, err := wire.POD[wire.ReaddirIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ReaddirRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			Offset: fuseops.DirOffset(body.Offset), Size: body.Size,
		}
		reply := fuseops.NewReaddirReply(s, unique, body.Size)
		s.handler.Readdir(ctx, req, reply)

	case wire.OpReaddirPlus:
		body, err := wire.POD[wire.ReaddirPlusIn](&cur)
		if err != nil {
			fail()
			return
		}
		req := &fuseops.ReaddirRequest{
			Header: base, Handle: fuseops.HandleID(body.Fh),
			Offset: fuseops.DirOffset(body.Offset), Size: body.Size, Plus: true,
		}
		reply := fuseops.NewReaddirReply(s, unique, body.Size)
		s.handler.Readdir(ctx, req, reply)

	case wire.OpDestroy:
		req := &fuseops.DestroyRequest{Header: base}
		reply := fuseops.NewNoReply(s, unique)
		s.handler.Destroy(ctx, req, reply)

	default:
		// The POSIX byte-range lock opcodes, ioctl, poll, fallocate, lseek
		// and copy_file_range are recognized by the wire package but have no
		// Handler method in this revision; answering ENOSYS is the
		// documented way to tell the kernel a filesystem does not implement
		// an operation.
		debugLog(unique, "%v: opcode %d", badOpcodeError(), op)
		s.Send(unique, -int32(ENOSYS))
	}
}

func baseHeader(hdr *wire.InHeader) fuseops.Header {
	return fuseops.Header{
		Unique: hdr.Unique,
		Ino:    fuseops.Ino(hdr.NodeID),
		UID:    hdr.UID,
		GID:    hdr.GID,
		PID:    hdr.PID,
	}
}

func setattrRequest(base fuseops.Header, body wire.SetattrIn) *fuseops.SetattrRequest {
	req := &fuseops.SetattrRequest{
		Header:      base,
		Handle:      fuseops.HandleID(body.Fh),
		HandleValid: body.Valid&wire.SetattrFh != 0,
		Valid:       body.Valid,
	}

	if body.Valid&wire.SetattrSize != 0 {
		size := body.Size
		req.Size = &size
	}
	if body.Valid&wire.SetattrMode != 0 {
		mode := body.Mode
		req.Mode = &mode
	}
	if body.Valid&wire.SetattrUID != 0 {
		uid := body.UID
		req.UID = &uid
	}
	if body.Valid&wire.SetattrGID != 0 {
		gid := body.GID
		req.GID = &gid
	}
	if body.Valid&wire.SetattrAtime != 0 {
		t := secNsecToTimestamp(body.Atime, body.AtimeNsec)
		req.Atime = &t
	}
	if body.Valid&wire.SetattrMtime != 0 {
		t := secNsecToTimestamp(body.Mtime, body.MtimeNsec)
		req.Mtime = &t
	}
	req.AtimeNow = body.Valid&wire.SetattrAtimeNow != 0
	req.MtimeNow = body.Valid&wire.SetattrMtimeNow != 0

	return req
}

func secNsecToTimestamp(sec uint64, nsec uint32) fuseops.Timestamp {
	return fuseops.TimestampFromTime(time.Unix(int64(sec), int64(nsec)))
}
