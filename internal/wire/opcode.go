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

//go:build amd64 || arm64 || 386 || arm || riscv64 || loong64

// Package wire defines the on-the-wire record layouts of the Linux FUSE
// kernel protocol (versions 7.31 through 7.32) and the primitives used to
// parse a raw request byte slice into a typed header plus body.
//
// Every record here is packed, little-endian, and laid out field-for-field
// like the corresponding struct in linux/fuse.h. The package never exposes
// an API that lets a caller reinterpret a byte slice as a struct without a
// length check first; see POD and PODSlice in codec.go.
//
// The build tag above is this module's compile-time assertion that it is
// never built for a big-endian target: every multi-byte field below is
// read in the kernel's native byte order, which on Linux is always little.
package wire

// Opcode identifies the kind of request or notification carried by an
// InHeader. Values match the kernel's enum fuse_opcode.
type Opcode uint32

const (
	OpLookup      Opcode = 1
	OpForget      Opcode = 2
	OpGetattr     Opcode = 3
	OpSetattr     Opcode = 4
	OpReadlink    Opcode = 5
	OpSymlink     Opcode = 6
	OpMknod       Opcode = 8
	OpMkdir       Opcode = 9
	OpUnlink      Opcode = 10
	OpRmdir       Opcode = 11
	OpRename      Opcode = 12
	OpLink        Opcode = 13
	OpOpen        Opcode = 14
	OpRead        Opcode = 15
	OpWrite       Opcode = 16
	OpStatfs      Opcode = 17
	OpRelease     Opcode = 18
	OpFsync       Opcode = 20
	OpSetxattr    Opcode = 21
	OpGetxattr    Opcode = 22
	OpListxattr   Opcode = 23
	OpRemovexattr Opcode = 24
	OpFlush       Opcode = 25
	OpInit        Opcode = 26
	OpOpendir     Opcode = 27
	OpReaddir     Opcode = 28
	OpReleasedir  Opcode = 29
	OpFsyncdir    Opcode = 30
	OpGetlk       Opcode = 31
	OpSetlk       Opcode = 32
	OpSetlkw      Opcode = 33
	OpAccess      Opcode = 34
	OpCreate      Opcode = 35
	OpInterrupt   Opcode = 36
	OpBmap        Opcode = 37
	OpDestroy     Opcode = 38
	OpIoctl       Opcode = 39
	OpPoll        Opcode = 40
	OpBatchForget Opcode = 42
	OpFallocate   Opcode = 43
	OpReaddirPlus Opcode = 44
	OpRename2     Opcode = 45
	OpLseek       Opcode = 46
	OpCopyFileRange Opcode = 47

	// CUSE_INIT and a handful of notify opcodes exist on the wire but are
	// never sent to a mounted filesystem server; they are listed in the
	// kernel header for completeness and are intentionally absent here.
)

func (op Opcode) String() string {
	switch op {
	case OpLookup:
		return "LOOKUP"
	case OpForget:
		return "FORGET"
	case OpGetattr:
		return "GETATTR"
	case OpSetattr:
		return "SETATTR"
	case OpReadlink:
		return "READLINK"
	case OpSymlink:
		return "SYMLINK"
	case OpMknod:
		return "MKNOD"
	case OpMkdir:
		return "MKDIR"
	case OpUnlink:
		return "UNLINK"
	case OpRmdir:
		return "RMDIR"
	case OpRename:
		return "RENAME"
	case OpLink:
		return "LINK"
	case OpOpen:
		return "OPEN"
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpStatfs:
		return "STATFS"
	case OpRelease:
		return "RELEASE"
	case OpFsync:
		return "FSYNC"
	case OpSetxattr:
		return "SETXATTR"
	case OpGetxattr:
		return "GETXATTR"
	case OpListxattr:
		return "LISTXATTR"
	case OpRemovexattr:
		return "REMOVEXATTR"
	case OpFlush:
		return "FLUSH"
	case OpInit:
		return "INIT"
	case OpOpendir:
		return "OPENDIR"
	case OpReaddir:
		return "READDIR"
	case OpReleasedir:
		return "RELEASEDIR"
	case OpFsyncdir:
		return "FSYNCDIR"
	case OpAccess:
		return "ACCESS"
	case OpCreate:
		return "CREATE"
	case OpInterrupt:
		return "INTERRUPT"
	case OpBmap:
		return "BMAP"
	case OpDestroy:
		return "DESTROY"
	case OpBatchForget:
		return "BATCH_FORGET"
	case OpFallocate:
		return "FALLOCATE"
	case OpReaddirPlus:
		return "READDIRPLUS"
	case OpRename2:
		return "RENAME2"
	case OpLseek:
		return "LSEEK"
	case OpCopyFileRange:
		return "COPY_FILE_RANGE"
	}
	return "UNKNOWN"
}
