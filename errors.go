// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package fuse

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Errno is a bare kernel error number, usable directly as the payload of a
// fail(errno) reply. Handlers are free to return any of the named
// constants below, or any other syscall.Errno-compatible value.
type Errno = unix.Errno

// Error numbers that come up often enough in handler code to deserve a
// name here, so callers don't have to import golang.org/x/sys/unix just to
// spell EIO.
const (
	EIO       = unix.EIO
	ENOENT    = unix.ENOENT
	ENOSYS    = unix.ENOSYS
	ENOTEMPTY = unix.ENOTEMPTY
	EACCES    = unix.EACCES
	EINVAL    = unix.EINVAL
	EINTR     = unix.EINTR
	EPERM     = unix.EPERM
	ERANGE    = unix.ERANGE
	ENOBUFS   = unix.ENOBUFS
	ENOMSG    = unix.ENOMSG
	EPROTONOSUPPORT = unix.EPROTONOSUPPORT
	EPROTO    = unix.EPROTO
)

// Kind distinguishes the closed set of error conditions the session runtime
// itself can raise, as opposed to errno values a handler chooses to reply
// with. Each constant below notes how the condition is handled.
type Kind int

const (
	// KindIo wraps an arbitrary syscall failure on the session fd. The
	// session is usually unrecoverable afterward.
	KindIo Kind = iota

	// KindProtocolInit means the first message after mount was not Init,
	// or the kernel's offered version was below what this package
	// requires. Fatal after a best-effort negative reply.
	KindProtocolInit

	// KindTruncated means body parsing ran out of bytes before the
	// grammar was satisfied. The request is answered with EIO and the
	// session continues.
	KindTruncated

	// KindBadOpcode means the header named an opcode this package does
	// not know. Answered with ENOSYS automatically.
	KindBadOpcode

	// KindBadLength means the header's length disagreed with the bytes
	// actually read, or a payload-length invariant (BatchForget.Count) was
	// violated. Answered with EIO. A Write carrying fewer data bytes than
	// Write.Size is also answered with EIO, though it is logged as
	// KindTruncated; bytes beyond Write.Size are ignored.
	KindBadLength

	// KindShortWrite means writev wrote fewer bytes than the assembled
	// reply contained. Fatal for that reply only; logged and swallowed.
	KindShortWrite

	// KindFusermount means the mount helper exited without delivering a
	// session fd, or the unmount command itself failed.
	KindFusermount
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindProtocolInit:
		return "ProtocolInit"
	case KindTruncated:
		return "Truncated"
	case KindBadOpcode:
		return "BadOpcode"
	case KindBadLength:
		return "BadLength"
	case KindShortWrite:
		return "ShortWrite"
	case KindFusermount:
		return "Fusermount"
	}
	return "Unknown"
}

// Error is the error type returned by Start, Session and the mount helper
// entry points. It carries a Kind so callers can switch on disposition
// without string matching, and wraps an underlying cause when there is one.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fuse: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fuse: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func ioError(err error) *Error          { return newError(KindIo, err) }
func protocolInitError(err error) *Error { return newError(KindProtocolInit, err) }
func truncatedError() *Error            { return newError(KindTruncated, nil) }
func badOpcodeError() *Error            { return newError(KindBadOpcode, nil) }
func badLengthError(err error) *Error   { return newError(KindBadLength, err) }
func shortWriteError(wrote, want int) *Error {
	return newError(KindShortWrite, fmt.Errorf("wrote %d of %d bytes", wrote, want))
}
func fusermountError(err error) *Error { return newError(KindFusermount, err) }
