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
	"time"

	"github.com/kernelfs/fuse/internal/wire"
)

// Ttl is a cache lifetime advertised to the kernel for an entry or an
// attribute set. The kernel computes its own absolute expiry by adding the
// duration to the time it received the reply, so Ttl is carried on the wire
// as a (seconds, nanoseconds) pair rather than an absolute timestamp.
type Ttl time.Duration

// TtlMax is the longest lifetime worth advertising in practice; the kernel
// clamps internally, and this keeps the seconds field comfortably within
// uint64 range without thinking about overflow at call sites.
const TtlMax = Ttl(365 * 24 * time.Hour)

func (t Ttl) wire() (sec uint64, nsec uint32) {
	d := time.Duration(t)
	if d < 0 {
		d = 0
	}
	sec = uint64(d / time.Second)
	nsec = uint32(d % time.Second)
	return
}

// Timestamp is an absolute wall-clock value carried in an Attr (atime,
// mtime or ctime).
type Timestamp time.Time

func TimestampFromTime(t time.Time) Timestamp { return Timestamp(t) }

func (t Timestamp) wire() (sec uint64, nsec uint32) {
	tt := time.Time(t)
	sec = uint64(tt.Unix())
	nsec = uint32(tt.Nanosecond())
	return
}

// Mode bits recognised when stamping Attrs.Mode; these mirror the low 12
// bits of POSIX st_mode (permissions plus setuid/setgid/sticky).
const ModePerm = 0777 | 01000 | 02000 | 04000

// posix file-type tags ORed into the top bits of st_mode, matching
// <sys/stat.h>.
const (
	sIFREG  = 0100000
	sIFDIR  = 0040000
	sIFLNK  = 0120000
	sIFSOCK = 0140000
	sIFIFO  = 0010000
	sIFCHR  = 0020000
	sIFBLK  = 0060000
)

// Attrs is a builder-style value object for the attribute block embedded in
// EntryOut and AttrOut replies. A host fills in the fields meaningful to it;
// Build combines them with a Filetype tag to stamp the on-wire Mode field,
// since the type bits are not something a host should have to spell out in
// octal at every call site.
type Attrs struct {
	Size    uint64
	Blocks  uint64
	Atime   Timestamp
	Mtime   Timestamp
	Ctime   Timestamp
	Perm    uint32 // permission + setuid/setgid/sticky bits only, no type tag
	Nlink   uint32
	UID     uint32
	GID     uint32
	Rdev    uint32
	BlkSize uint32
}

// Build stamps ino and the file-type tag onto a (seconds,nanoseconds)-wire
// wire.Attr ready to embed in a reply.
func (a Attrs) Build(ino Ino, ft Filetype) wire.Attr {
	atimeSec, atimeNsec := a.Atime.wire()
	mtimeSec, mtimeNsec := a.Mtime.wire()
	ctimeSec, ctimeNsec := a.Ctime.wire()

	blkSize := a.BlkSize
	if blkSize == 0 {
		blkSize = 4096
	}

	nlink := a.Nlink
	if nlink == 0 {
		nlink = 1
	}

	return wire.Attr{
		Ino:       uint64(ino),
		Size:      a.Size,
		Blocks:    a.Blocks,
		Atime:     atimeSec,
		Mtime:     mtimeSec,
		Ctime:     ctimeSec,
		AtimeNsec: atimeNsec,
		MtimeNsec: mtimeNsec,
		CtimeNsec: ctimeNsec,
		Mode:      fileTypeBits(ft) | (a.Perm & ModePerm),
		Nlink:     nlink,
		UID:       a.UID,
		GID:       a.GID,
		Rdev:      a.Rdev,
		BlkSize:   blkSize,
	}
}

func fileTypeBits(ft Filetype) uint32 {
	switch ft {
	case RegularFiletype:
		return sIFREG
	case DirectoryFiletype:
		return sIFDIR
	case SymlinkFiletype:
		return sIFLNK
	}
	return 0
}

// FsInfo is the value object behind a Statfs reply.
type FsInfo struct {
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Bsize   uint32
	Namelen uint32
	Frsize  uint32
}

func (f FsInfo) wire() wire.StatfsOut {
	return wire.StatfsOut{
		Blocks:  f.Blocks,
		Bfree:   f.Bfree,
		Bavail:  f.Bavail,
		Files:   f.Files,
		Ffree:   f.Ffree,
		Bsize:   f.Bsize,
		Namelen: f.Namelen,
		Frsize:  f.Frsize,
	}
}
