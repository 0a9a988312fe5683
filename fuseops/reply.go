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
	"log"
	"unsafe"
)

// Done is the value a Handler method returns after calling one of a Reply's
// terminal methods. It carries no data. The type does not stop another
// package from writing its zero value, so the compiler does not enforce
// "exactly one reply per request"; what is enforced is the other half: a
// Reply's terminal methods panic if a reply has already been sent for it.
type Done struct{ _ [0]byte }

// ReplySink is the write side of a Reply: something that can frame and
// transmit one reply's payload segments in a single scatter-gather write.
// Session implements ReplySink; fuseops never writes to the session fd
// itself. Implementations must not retain segments past the call.
type ReplySink interface {
	Send(unique uint64, errno int32, segments ...[]byte)

	// Unveil forwards one lookup-count reference for ino to the host's
	// Handler.Unveil. Called by EntryReply.Known, CreateReply.KnownWithHandle
	// and BufferedReaddirReply's ReaddirPlus path.
	Unveil(ino Ino)
}

// replyBase is embedded by every per-opcode Reply type. It carries the
// terminal methods common to all of them and the plumbing to send exactly
// one reply. Embedding promotes these methods onto every concrete Reply
// type, which is what gives handlers the "permission_denied always
// available" half of the spec's capability split; the opcode-specific half
// lives on the concrete types in replies.go.
type replyBase struct {
	sink   ReplySink
	unique uint64
	sent   bool
}

func newReplyBase(sink ReplySink, unique uint64) replyBase {
	return replyBase{sink: sink, unique: unique}
}

func (r *replyBase) send(errno int32, segments ...[]byte) Done {
	if r.sent {
		panic("fuse: reply already sent for this request")
	}
	r.sent = true
	r.sink.Send(r.unique, errno, segments...)
	return Done{}
}

// Ok sends an empty success reply: no payload, errno 0.
func (r *replyBase) Ok() Done { return r.send(0) }

// Fail sends errno as a negative error reply. errno must be a positive
// E-constant (e.g. EIO); values <= 0 are coerced to ENOMSG with a warning,
// matching the kernel contract that a reply's error field is always
// strictly negative on failure.
func (r *replyBase) Fail(errno int32) Done {
	if errno <= 0 {
		log.Printf("fuse: warning: request %d: Fail(%d) coerced to ENOMSG", r.unique, errno)
		errno = int32(errENOMSG)
	}
	return r.send(-errno)
}

// PermissionDenied is a Fail(EACCES) shorthand.
func (r *replyBase) PermissionDenied() Done { return r.Fail(int32(errEACCES)) }

// InvalidArgument is a Fail(EINVAL) shorthand.
func (r *replyBase) InvalidArgument() Done { return r.Fail(int32(errEINVAL)) }

// Interrupted is a Fail(EINTR) shorthand, used by handlers whose context
// was cancelled by an Interrupt for their request.
func (r *replyBase) Interrupted() Done { return r.Fail(int32(errEINTR)) }

// IoError is a Fail(EIO) shorthand.
func (r *replyBase) IoError() Done { return r.Fail(int32(errEIO)) }

// NotImplemented is a Fail(ENOSYS) shorthand.
func (r *replyBase) NotImplemented() Done { return r.Fail(int32(errENOSYS)) }

// NotPermitted is a Fail(EPERM) shorthand.
func (r *replyBase) NotPermitted() Done { return r.Fail(int32(errEPERM)) }

// structBytes reinterprets a pointer to a packed wire struct as a byte
// slice for handing to a ReplySink. The slice is only valid for the
// duration of the Send call; ReplySink implementations copy eagerly.
func structBytes[T any](v *T) []byte {
	n := int(unsafe.Sizeof(*v))
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), n)
}

// Errno constants duplicated here (rather than imported from the root fuse
// package) to avoid an import cycle: fuse imports fuseops for the Handler
// surface, so fuseops cannot import fuse back.
const (
	errEACCES  = 13
	errEINVAL  = 22
	errEINTR   = 4
	errEIO     = 5
	errENOSYS  = 38
	errEPERM   = 1
	errENOMSG  = 42
	errERANGE  = 34
	errENOBUFS = 105
)
