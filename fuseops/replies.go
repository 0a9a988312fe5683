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

import "github.com/kernelfs/fuse/internal/wire"

// EmptyReply is shared by every opcode whose only success shape is "it
// worked, no payload": Unlink, Rmdir, Rename, Release, Releasedir, Fsync,
// Fsyncdir, Setxattr, Removexattr, Flush, Access.
type EmptyReply struct{ replyBase }

func NewEmptyReply(sink ReplySink, unique uint64) *EmptyReply {
	return &EmptyReply{replyBase: newReplyBase(sink, unique)}
}

// NoReply is used by opcodes the protocol defines as never answered:
// Forget, BatchForget, Destroy. Acknowledge exists only so Handler methods
// have a Done value to return; it never touches the session fd.
type NoReply struct{ replyBase }

func NewNoReply(sink ReplySink, unique uint64) *NoReply {
	return &NoReply{replyBase: newReplyBase(sink, unique)}
}

// Acknowledge records that the request needed no wire reply.
func (r *NoReply) Acknowledge() Done {
	r.sent = true
	return Done{}
}

// EntryReply is used by Lookup, Symlink, Mknod, Mkdir and Link: every
// operation that binds a name to an inode.
type EntryReply struct{ replyBase }

func NewEntryReply(sink ReplySink, unique uint64) *EntryReply {
	return &EntryReply{replyBase: newReplyBase(sink, unique)}
}

// Known emits an EntryOut for e. The session increments e.Ino's
// kernel-visible lookup count as a side effect; the host must expect a
// matching Forget eventually.
func (r *EntryReply) Known(e Entry) Done {
	out := e.wire()
	r.sink.Unveil(e.Ino)
	return r.send(0, structBytes(&out))
}

// NotFound replies that the name does not exist, with no negative caching
// (ttl 0): the kernel will ask again immediately next time.
func (r *EntryReply) NotFound() Done {
	return r.NotFoundFor(0)
}

// NotFoundFor replies that the name does not exist and the kernel may
// negatively cache that fact for ttl.
func (r *EntryReply) NotFoundFor(ttl Ttl) Done {
	sec, nsec := ttl.wire()
	out := wire.EntryOut{NodeID: 0, EntryValid: sec, EntryValidNsec: nsec}
	return r.send(0, structBytes(&out))
}

// NotFoundUncached replies ENOENT outright, disabling negative caching
// entirely (some kernels treat NodeID==0 with ttl>0 and a bare ENOENT
// differently; hosts that never want entries cached negatively should use
// this rather than NotFoundFor(0)).
func (r *EntryReply) NotFoundUncached() Done {
	return r.Fail(int32(errENOENT))
}

const errENOENT = 2

// StatReply is used by Getattr and Setattr: both simply stamp an Attrs
// block for a known inode.
type StatReply struct{ replyBase }

func NewStatReply(sink ReplySink, unique uint64) *StatReply {
	return &StatReply{replyBase: newReplyBase(sink, unique)}
}

// Stat emits an AttrOut for ino, valid for ttl.
func (r *StatReply) Stat(ino Ino, ft Filetype, attrs Attrs, ttl Ttl) Done {
	sec, nsec := ttl.wire()
	out := wire.AttrOut{
		AttrValid:     sec,
		AttrValidNsec: nsec,
		Attr:          attrs.Build(ino, ft),
	}
	return r.send(0, structBytes(&out))
}

// BytesReply is used by Readlink (the symlink target) and Read (file
// contents): any opcode whose success reply is a single opaque byte blob
// with no fixed-size prefix struct.
type BytesReply struct{ replyBase }

func NewBytesReply(sink ReplySink, unique uint64) *BytesReply {
	return &BytesReply{replyBase: newReplyBase(sink, unique)}
}

// Bytes emits data verbatim, with no NUL terminator and no length prefix;
// OutHeader.Len already tells the kernel how much follows.
func (r *BytesReply) Bytes(data []byte) Done {
	return r.send(0, data)
}

// Gather is like Bytes but for a reply assembled from more than one
// non-contiguous fragment (e.g. a vectored read); the fragments are written
// in a single scatter-gather call in the order given.
func (r *BytesReply) Gather(fragments ...[]byte) Done {
	return r.send(0, fragments...)
}

// WriteReply is used by Write. size is fixed at construction time from the
// kernel-reported WriteIn.Size. The registry answers a Write carrying fewer
// data bytes than WriteIn.Size with EIO before any handler runs, and hands
// the handler exactly WriteIn.Size bytes when more are present; the extra
// bytes are dropped without a warning.
type WriteReply struct {
	replyBase
	size uint32
}

func NewWriteReply(sink ReplySink, unique uint64, size uint32) *WriteReply {
	return &WriteReply{replyBase: newReplyBase(sink, unique), size: size}
}

// All acknowledges the write, reporting the recorded size.
func (r *WriteReply) All() Done {
	out := wire.WriteOut{Size: r.size}
	return r.send(0, structBytes(&out))
}

// InfoReply is used by Statfs.
type InfoReply struct{ replyBase }

func NewInfoReply(sink ReplySink, unique uint64) *InfoReply {
	return &InfoReply{replyBase: newReplyBase(sink, unique)}
}

// Info emits a StatfsOut built from f.
func (r *InfoReply) Info(f FsInfo) Done {
	out := f.wire()
	return r.send(0, structBytes(&out))
}

// OpenReply is used by both Open and Opendir: their OpenOut wire shape and
// mutator set (direct I/O, non-seekable, streaming, cache hints) are
// identical, differing only in which opcode produced them.
type OpenReply struct {
	replyBase
	flags uint32
}

func NewOpenReply(sink ReplySink, unique uint64) *OpenReply {
	return &OpenReply{replyBase: newReplyBase(sink, unique)}
}

// ForceDirectIO disables the kernel's page cache for this open file,
// routing every read and write straight to the handler.
func (r *OpenReply) ForceDirectIO() *OpenReply {
	r.flags |= wire.OpenOutDirectIO
	return r
}

// KeepCache tells the kernel it may keep cached pages across this open
// rather than invalidating them, and CacheDir does the same for a
// directory's dentry cache. These are independent bits on the wire: a
// revision of the source that read them as KEEP_CACHE & CACHE_DIR (a
// bitwise AND) rather than OR would silently clear KeepCache whenever
// CacheDir was also requested, which is almost certainly not what was
// meant. This implementation keeps them as two bits set with |=.
func (r *OpenReply) KeepCache() *OpenReply {
	r.flags |= wire.OpenOutKeepCache
	return r
}

func (r *OpenReply) CacheDir() *OpenReply {
	r.flags |= wire.OpenOutCacheDir
	return r
}

// NonSeekable marks the handle as not supporting Lseek.
func (r *OpenReply) NonSeekable() *OpenReply {
	r.flags |= wire.OpenOutNonSeekable
	return r
}

// IsStream marks the handle as a stream-like file (no stable size).
func (r *OpenReply) IsStream() *OpenReply {
	r.flags |= wire.OpenOutStream
	return r
}

// OkWithHandle emits an OpenOut carrying h and whatever flags were set by
// the mutators above.
func (r *OpenReply) OkWithHandle(h HandleID) Done {
	out := wire.OpenOut{Fh: uint64(h), OpenFlags: r.flags}
	return r.send(0, structBytes(&out))
}

// CreateReply is used by Create: it answers with both an EntryOut (as
// Lookup/Mkdir would) and an OpenOut (as Open would), back to back.
type CreateReply struct {
	replyBase
	flags uint32
}

func NewCreateReply(sink ReplySink, unique uint64) *CreateReply {
	return &CreateReply{replyBase: newReplyBase(sink, unique)}
}

func (r *CreateReply) ForceDirectIO() *CreateReply {
	r.flags |= wire.OpenOutDirectIO
	return r
}

// KnownWithHandle emits e's EntryOut immediately followed by an OpenOut for
// h, in one write.
func (r *CreateReply) KnownWithHandle(e Entry, h HandleID) Done {
	entry := e.wire()
	open := wire.OpenOut{Fh: uint64(h), OpenFlags: r.flags}
	r.sink.Unveil(e.Ino)
	return r.send(0, structBytes(&entry), structBytes(&open))
}

// GetxattrReply is used by Getxattr, whose shape depends on whether the
// request was a size inquiry (Size == 0).
type GetxattrReply struct {
	replyBase
	actualSize uint32
	inquiry    bool
}

func NewGetxattrReply(sink ReplySink, unique uint64, inquiry bool) *GetxattrReply {
	return &GetxattrReply{replyBase: newReplyBase(sink, unique), inquiry: inquiry}
}

// Size answers a size inquiry with the attribute's actual size. Calling
// this when the request was not an inquiry is a host bug; it panics rather
// than silently doing the wrong thing on the wire.
func (r *GetxattrReply) Size(actual uint32) Done {
	if !r.inquiry {
		panic("fuse: GetxattrReply.Size called for a non-inquiry request")
	}
	out := wire.GetxattrOut{Size: actual}
	return r.send(0, structBytes(&out))
}

// Value answers with the attribute's value. If the request was an inquiry,
// Value behaves like Size(len(value)) instead of echoing the bytes, since
// the kernel did not allocate room for them.
func (r *GetxattrReply) Value(value []byte) Done {
	if r.inquiry {
		return r.Size(uint32(len(value)))
	}
	return r.send(0, value)
}

// TooSmall replies ERANGE: the caller's buffer (Size on the request) is
// smaller than the attribute's actual value.
func (r *GetxattrReply) TooSmall() Done {
	return r.Fail(int32(errERANGE))
}

// ListxattrReply is used by Listxattr, which has the same inquiry-vs-value
// split as Getxattr but lists a NUL-separated name set instead of one
// value.
type ListxattrReply struct {
	replyBase
	inquiry bool
}

func NewListxattrReply(sink ReplySink, unique uint64, inquiry bool) *ListxattrReply {
	return &ListxattrReply{replyBase: newReplyBase(sink, unique), inquiry: inquiry}
}

func (r *ListxattrReply) Size(actual uint32) Done {
	if !r.inquiry {
		panic("fuse: ListxattrReply.Size called for a non-inquiry request")
	}
	out := wire.ListxattrOut{Size: actual}
	return r.send(0, structBytes(&out))
}

// Names replies with names, a NUL-separated, NUL-terminated concatenation
// of every extended attribute name.
func (r *ListxattrReply) Names(names []byte) Done {
	if r.inquiry {
		return r.Size(uint32(len(names)))
	}
	return r.send(0, names)
}

func (r *ListxattrReply) TooSmall() Done {
	return r.Fail(int32(errERANGE))
}

// ReaddirReply is used by Readdir and ReaddirPlus alike; the request's Plus
// flag is what tells the registry which wire record shape a host should
// write into the buffer it fills.
type ReaddirReply struct {
	replyBase
	maxRead uint32
}

func NewReaddirReply(sink ReplySink, unique uint64, maxRead uint32) *ReaddirReply {
	return &ReaddirReply{replyBase: newReplyBase(sink, unique), maxRead: maxRead}
}

// MaxRead is the largest buffer the kernel will accept for this listing.
func (r *ReaddirReply) MaxRead() uint32 { return r.maxRead }

// Buffered hands back a scratch buffer sized to MaxRead for the caller to
// fill with fuseutil.WriteDirent/WriteDirentPlus records, and a cursor
// (*BufferedReaddirReply) tracking how much of it is used.
func (r *ReaddirReply) Buffered() *BufferedReaddirReply {
	return &BufferedReaddirReply{parent: r, buf: make([]byte, r.maxRead)}
}

// BufferedReaddirReply accumulates directory records into a fixed buffer
// until either the buffer is full or the caller has no more entries, then
// emits them in a single reply.
type BufferedReaddirReply struct {
	parent *ReaddirReply
	buf    []byte
	used   int
}

// Append appends n bytes already written at buf[used:] (by a prior call to
// fuseutil.WriteDirent or WriteDirentPlus against r.Remaining()) to the
// reply. It reports false, having appended nothing, if n is larger than the
// room remaining: the caller should stop and call End.
func (r *BufferedReaddirReply) Append(n int) bool {
	if n <= 0 {
		return true
	}
	if r.used+n > len(r.buf) {
		return false
	}
	r.used += n
	return true
}

// AppendPlus is like Append but for a fuseutil.WriteDirentPlus record: on a
// successful append it also unveils ino to the host, since every emitted
// ReaddirPlus entry except the conventional "." and ".." hands the kernel a
// new lookup-count reference.
func (r *BufferedReaddirReply) AppendPlus(n int, ino Ino, name string) bool {
	if !r.Append(n) {
		return false
	}
	if n > 0 && name != "." && name != ".." {
		r.parent.sink.Unveil(ino)
	}
	return true
}

// Remaining returns the unused tail of the scratch buffer, for the caller to
// pass directly to fuseutil.WriteDirent/WriteDirentPlus.
func (r *BufferedReaddirReply) Remaining() []byte {
	return r.buf[r.used:]
}

// End emits whatever has been accumulated so far, even if empty (an empty
// reply is how a host signals end-of-directory).
func (r *BufferedReaddirReply) End() Done {
	return r.parent.send(0, r.buf[:r.used])
}

// BmapReply is used by Bmap.
type BmapReply struct{ replyBase }

func NewBmapReply(sink ReplySink, unique uint64) *BmapReply {
	return &BmapReply{replyBase: newReplyBase(sink, unique)}
}

func (r *BmapReply) Resolved(block uint64) Done {
	out := wire.BmapOut{Block: block}
	return r.send(0, structBytes(&out))
}

// InitReply is used by Init. Its capability mask and max_write are
// computed by the session from the kernel's offer before the handler ever
// sees it, so the handler's Ok almost always suffices; Flags exposes the
// negotiated mask read-only for hosts that want to branch on a capability
// (e.g. whether ReaddirPlus was granted).
type InitReply struct {
	replyBase
	out wire.InitOut
}

func newInitReply(sink ReplySink, unique uint64, out wire.InitOut) *InitReply {
	return &InitReply{replyBase: newReplyBase(sink, unique), out: out}
}

// Flags reports the capability mask this reply will advertise.
func (r *InitReply) Flags() uint32 { return r.out.Flags }

// Ok emits the InitOut computed during handshake.
func (r *InitReply) Ok() Done {
	out := r.out
	return r.send(0, structBytes(&out))
}

// Unsupported answers with EPROTONOSUPPORT: the kernel's offered version is
// below what this package requires.
func (r *InitReply) Unsupported() Done {
	return r.Fail(int32(errEPROTONOSUPPORT))
}

const errEPROTONOSUPPORT = 93

// Renegotiate answers an Init whose major version is newer than this
// package supports with a bare 4-byte body containing just MajorVersion,
// the documented "please retry at our major version" signal.
func (r *InitReply) Renegotiate(ourMajor uint32) Done {
	return r.send(0, uint32Bytes(ourMajor))
}

func uint32Bytes(v uint32) []byte {
	b := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return b[:]
}

// NewInitReply constructs an InitReply around the InitOut the session
// computed during handshake (capability mask intersected with what the
// kernel offered, max_write, page budget) before handing control to the
// handler's Init method.
func NewInitReply(sink ReplySink, unique uint64, out wire.InitOut) *InitReply {
	return newInitReply(sink, unique, out)
}
