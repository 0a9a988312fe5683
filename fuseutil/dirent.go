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
	"unsafe"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/internal/wire"
)

// DirentEntry is one directory record a host supplies to WriteDirent or
// WriteDirentPlus. Offset is the opaque cursor the kernel will hand back on
// the following Readdir call as ReaddirRequest.Offset; a host that cannot
// compute a meaningful cursor may use the record's ordinal position.
type DirentEntry struct {
	Ino    fuseops.Ino
	Offset fuseops.DirOffset
	Name   string
	Type   fuseops.Filetype
}

func direntType(ft fuseops.Filetype) uint32 {
	switch ft {
	case fuseops.RegularFiletype:
		return 8 // DT_REG
	case fuseops.DirectoryFiletype:
		return 4 // DT_DIR
	case fuseops.SymlinkFiletype:
		return 10 // DT_LNK
	}
	return 0 // DT_UNKNOWN
}

func direntPadding(nameLen int) int {
	rem := nameLen % wire.DirentAlignment
	if rem == 0 {
		return 0
	}
	return wire.DirentAlignment - rem
}

// WriteDirent writes one plain fuse_dirent record (as used by a non-Plus
// Readdir reply) into buf, returning the number of bytes written, or zero if
// the record would not fit.
func WriteDirent(buf []byte, e DirentEntry) int {
	pad := direntPadding(len(e.Name))
	total := wire.DirentSize + len(e.Name) + pad
	if total > len(buf) {
		return 0
	}

	d := wire.Dirent{
		Ino:     uint64(e.Ino),
		Off:     uint64(e.Offset),
		Namelen: uint32(len(e.Name)),
		Type:    direntType(e.Type),
	}

	n := copy(buf, (*[wire.DirentSize]byte)(unsafe.Pointer(&d))[:])
	n += copy(buf[n:], e.Name)
	if pad != 0 {
		var padding [wire.DirentAlignment]byte
		n += copy(buf[n:], padding[:pad])
	}
	return n
}

// WriteDirentPlus writes one fuse_direntplus record (an EntryOut immediately
// followed by a plain dirent) into buf, as used by a ReaddirPlus reply.
// entry describes the child inode the kernel should pre-cache a lookup for.
// Pure serialisation: the host's lookup-count bump happens when the caller
// reports this record's length to fuseops.BufferedReaddirReply.AppendPlus.
func WriteDirentPlus(buf []byte, e DirentEntry, entry fuseops.Entry) int {
	const direntPlusSize = int(unsafe.Sizeof(wire.DirentPlus{}))

	pad := direntPadding(len(e.Name))
	total := direntPlusSize + len(e.Name) + pad
	if total > len(buf) {
		return 0
	}

	dp := wire.DirentPlus{
		Dirent: wire.Dirent{
			Ino:     uint64(e.Ino),
			Off:     uint64(e.Offset),
			Namelen: uint32(len(e.Name)),
			Type:    direntType(e.Type),
		},
	}
	dp.EntryOut = entry.Wire()

	header := unsafe.Slice((*byte)(unsafe.Pointer(&dp)), direntPlusSize)
	n := copy(buf, header)
	n += copy(buf[n:], e.Name)
	if pad != 0 {
		var padding [wire.DirentAlignment]byte
		n += copy(buf[n:], padding[:pad])
	}
	return n
}
