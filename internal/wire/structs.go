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

package wire

// Protocol version this package negotiates. The kernel has spoken later
// minors (up to 7.40 as of recent kernels); this package only ever asks for
// up to TargetMinorVersion and refuses anything below RequiredMinorVersion.
const (
	MajorVersion         = 7
	TargetMinorVersion   = 32
	RequiredMinorVersion = 31

	// RootID is the inode number the kernel uses to refer to the mount
	// point. It is a protocol constant, independent of whatever a host
	// filesystem calls its own root.
	RootID = 1

	// MinReadSize is the smallest read buffer the session runtime will
	// ever negotiate, regardless of how small the system page size is.
	MinReadSize = 8192

	// DirentAlignmentBits is the power-of-two alignment every directory
	// record (Dirent or DirentPlus) is padded to.
	DirentAlignmentBits = 3
	DirentAlignment     = 1 << DirentAlignmentBits
)

// InHeader is prepended to every request the kernel sends. 40 bytes, fixed.
type InHeader struct {
	Len     uint32
	Opcode  uint32
	Unique  uint64
	NodeID  uint64
	UID     uint32
	GID     uint32
	PID     uint32
	_       uint32 // padding, reserved by the kernel
}

// OutHeader is prepended to every reply. 16 bytes, fixed.
type OutHeader struct {
	Len    uint32
	Error  int32
	Unique uint64
}

const (
	inHeaderSize  = 40
	outHeaderSize = 16
)

// Attr mirrors struct fuse_attr: the attribute block embedded in AttrOut and
// EntryOut.
type Attr struct {
	Ino       uint64
	Size      uint64
	Blocks    uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	Nlink     uint32
	UID       uint32
	GID       uint32
	Rdev      uint32
	BlkSize   uint32
	_         uint32
}

// EntryOut is the reply body for Lookup, Mkdir, Symlink, Link and Create
// (the "name now refers to an inode" family).
type EntryOut struct {
	NodeID         uint64
	Generation     uint64
	EntryValid     uint64
	AttrValid      uint64
	EntryValidNsec uint32
	AttrValidNsec  uint32
	Attr           Attr
}

// AttrOut is the reply body for Getattr and Setattr.
type AttrOut struct {
	AttrValid     uint64
	AttrValidNsec uint32
	_             uint32
	Attr          Attr
}

// GetattrIn is the request body for Getattr.
type GetattrIn struct {
	GetattrFlags uint32
	_            uint32
	Fh           uint64
}

const GetattrFhValid = 1 << 0

// ForgetIn is the request body for a plain (non-batched) Forget.
type ForgetIn struct {
	Nlookup uint64
}

// ForgetOne is one element of a BatchForgetIn payload array.
type ForgetOne struct {
	NodeID  uint64
	Nlookup uint64
}

// BatchForgetIn is the fixed prefix of a batched Forget request; it is
// followed by Count ForgetOne records.
type BatchForgetIn struct {
	Count uint32
	_     uint32
}

// SetattrIn is the request body for Setattr. Valid indicates which of the
// remaining fields the kernel actually wants applied.
type SetattrIn struct {
	Valid     uint32
	_         uint32
	Fh        uint64
	Size      uint64
	LockOwner uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	_         uint32
	UID       uint32
	GID       uint32
	_         uint32
}

const (
	SetattrMode      = 1 << 0
	SetattrUID       = 1 << 1
	SetattrGID       = 1 << 2
	SetattrSize      = 1 << 3
	SetattrAtime     = 1 << 4
	SetattrMtime     = 1 << 5
	SetattrFh        = 1 << 6
	SetattrAtimeNow  = 1 << 7
	SetattrMtimeNow  = 1 << 8
	SetattrLockOwner = 1 << 9
	SetattrCtime     = 1 << 10
)

// MkdirIn is the fixed prefix of a Mkdir request; a CStr name follows.
type MkdirIn struct {
	Mode  uint32
	Umask uint32
}

// LinkIn is the fixed prefix of a Link request; a CStr name follows.
type LinkIn struct {
	OldNodeID uint64
}

// RenameIn is the fixed prefix of a Rename request; two CStr names follow
// (old name, new name).
type RenameIn struct {
	NewDir uint64
}

// Rename2In is the fixed prefix of a Rename2 request; two CStr names follow.
type Rename2In struct {
	NewDir uint64
	Flags  uint32
	_      uint32
}

// OpenIn is the request body for Open.
type OpenIn struct {
	Flags  uint32
	Unused uint32
}

// OpendirIn is the request body for Opendir.
type OpendirIn struct {
	Flags  uint32
	Unused uint32
}

// OpenOut is the reply body for Open and Opendir.
type OpenOut struct {
	Fh        uint64
	OpenFlags uint32
	_         uint32
}

const (
	OpenOutDirectIO   = 1 << 0
	OpenOutKeepCache  = 1 << 1
	OpenOutNonSeekable = 1 << 2
	OpenOutCacheDir    = 1 << 3
	OpenOutStream      = 1 << 4
)

// ReadIn is the request body for Read.
type ReadIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	ReadFlags  uint32
	LockOwner  uint64
	Flags      uint32
	_          uint32
}

// WriteIn is the fixed prefix of a Write request; a byte payload of exactly
// Size bytes follows.
type WriteIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	WriteFlags uint32
	LockOwner  uint64
	Flags      uint32
	_          uint32
}

// WriteOut is the reply body for Write.
type WriteOut struct {
	Size uint32
	_    uint32
}

// StatfsOut is the reply body for Statfs.
type StatfsOut struct {
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Bsize   uint32
	Namelen uint32
	Frsize  uint32
	_       [4]uint32
}

// ReleaseIn is the request body for Release.
type ReleaseIn struct {
	Fh           uint64
	Flags        uint32
	ReleaseFlags uint32
	LockOwner    uint64
}

// ReleasedirIn is the request body for Releasedir.
type ReleasedirIn struct {
	Fh           uint64
	Flags        uint32
	ReleaseFlags uint32
	LockOwner    uint64
}

const ReleaseFlush = 1 << 0

// FsyncIn is the request body for Fsync and Fsyncdir.
type FsyncIn struct {
	Fh         uint64
	FsyncFlags uint32
	_          uint32
}

const FsyncFdatasync = 1 << 0

// SetxattrIn is the fixed prefix of a Setxattr request; a CStr name and a
// byte payload of exactly Size bytes follow.
type SetxattrIn struct {
	Size  uint32
	Flags uint32
}

// GetxattrIn is the fixed prefix of a Getxattr request; a CStr name follows.
type GetxattrIn struct {
	Size uint32
	_    uint32
}

// GetxattrOut is the reply body for a Getxattr size inquiry (Size == 0 on
// the request).
type GetxattrOut struct {
	Size uint32
	_    uint32
}

// ListxattrIn is the request body for Listxattr.
type ListxattrIn struct {
	Size uint32
	_    uint32
}

// ListxattrOut is the reply body for a Listxattr size inquiry.
type ListxattrOut struct {
	Size uint32
	_    uint32
}

// FlushIn is the request body for Flush.
type FlushIn struct {
	Fh        uint64
	Unused    uint32
	_         uint32
	LockOwner uint64
}

// InitIn is the request body for Init.
type InitIn struct {
	Major        uint32
	Minor        uint32
	MaxReadahead uint32
	Flags        uint32
	Flags2       uint32
	_            [11]uint32
}

// InitOut is the reply body for Init.
type InitOut struct {
	Major               uint32
	Minor               uint32
	MaxReadahead        uint32
	Flags               uint32
	MaxBackground       uint16
	CongestionThreshold uint16
	MaxWrite            uint32
	TimeGran            uint32
	MaxPages            uint16
	MapAlignment        uint16
	Flags2              uint32
	_                   [7]uint32
}

// InitFlags are the capability bits negotiated during handshake. Bit
// positions match enum fuse_init_flags in linux/fuse.h.
const (
	InitAsyncRead       = 1 << 0
	InitPosixLocks      = 1 << 1
	InitFileOps         = 1 << 2
	InitAtomicOTrunc    = 1 << 3
	InitExportSupport   = 1 << 4
	InitBigWrites       = 1 << 5
	InitDontMask        = 1 << 6
	InitSpliceWrite     = 1 << 7
	InitSpliceMove      = 1 << 8
	InitSpliceRead      = 1 << 9
	InitFlockLocks      = 1 << 10
	InitHasIoctlDir     = 1 << 11
	InitAutoInvalData   = 1 << 12
	InitDoReaddirplus   = 1 << 13
	InitReaddirplusAuto = 1 << 14
	InitAsyncDio        = 1 << 15
	InitWritebackCache  = 1 << 16
	InitNoOpenSupport   = 1 << 17
	InitParallelDirops  = 1 << 18
	InitHandleKillpriv  = 1 << 19
	InitPosixACL        = 1 << 20
	InitAbortError      = 1 << 21
	InitMaxPages        = 1 << 22
	InitCacheSymlinks   = 1 << 23
	InitNoOpendirSupport = 1 << 24
	InitExplicitInvalData = 1 << 25
)

// SupportedInitFlags is the capability mask this package advertises back to
// the kernel, intersected with whatever the kernel itself requested. It is
// the "last revision" list referenced by the handshake design notes: every
// earlier, narrower set encountered in older sources is treated as a bug.
const SupportedInitFlags = InitAsyncRead |
	InitAtomicOTrunc |
	InitParallelDirops |
	InitAbortError |
	InitMaxPages |
	InitCacheSymlinks |
	InitDoReaddirplus |
	InitReaddirplusAuto |
	InitAutoInvalData |
	InitBigWrites |
	InitExportSupport |
	InitFileOps |
	InitHasIoctlDir

// OpendirIn reuses OpenIn's layout on the wire; kept distinct above for
// readability at call sites.

// ReaddirIn is the request body for a plain Readdir.
type ReaddirIn struct {
	Fh      uint64
	Offset  uint64
	Size    uint32
	_       uint32
}

// ReaddirPlusIn is the request body for ReaddirPlus. Wire-identical to
// ReaddirIn; kept distinct because OpcodeSelect dispatches on it.
type ReaddirPlusIn struct {
	Fh     uint64
	Offset uint64
	Size   uint32
	_      uint32
}

// Dirent is the fixed header of one plain directory record. The name bytes
// and alignment padding follow immediately after.
type Dirent struct {
	Ino     uint64
	Off     uint64
	Namelen uint32
	Type    uint32
}

const DirentSize = 24 // unsafe.Sizeof(Dirent{})

// DirentPlus is the fixed header of one ReaddirPlus record: an EntryOut
// immediately followed by a Dirent, then name bytes and padding.
type DirentPlus struct {
	EntryOut EntryOut
	Dirent   Dirent
}

// AccessIn is the request body for Access.
type AccessIn struct {
	Mask uint32
	_    uint32
}

// CreateIn is the fixed prefix of a Create request; a CStr name follows.
type CreateIn struct {
	Flags uint32
	Mode  uint32
	Umask uint32
	_     uint32
}

// InterruptIn is the request body for Interrupt.
type InterruptIn struct {
	Unique uint64
}

// BmapIn is the request body for Bmap.
type BmapIn struct {
	Block     uint64
	Blocksize uint32
	_         uint32
}

// BmapOut is the reply body for Bmap.
type BmapOut struct {
	Block uint64
}

// FallocateIn is the request body for Fallocate.
type FallocateIn struct {
	Fh     uint64
	Offset uint64
	Length uint64
	Mode   uint32
	_      uint32
}

// LseekIn is the request body for Lseek.
type LseekIn struct {
	Fh     uint64
	Offset uint64
	Whence uint32
	_      uint32
}

// LseekOut is the reply body for Lseek.
type LseekOut struct {
	Offset uint64
}

// MknodIn is the fixed prefix of a Mknod request; a CStr name follows.
type MknodIn struct {
	Mode  uint32
	Rdev  uint32
	Umask uint32
	_     uint32
}
