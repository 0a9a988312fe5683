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

import (
	"bytes"
	"errors"
	"reflect"
	"unsafe"
)

// ErrTruncated is returned by every parser below when fewer bytes remain
// than the grammar requires.
var ErrTruncated = errors.New("wire: request truncated")

// ErrBadLength is returned when the bytes present do not fit the grammar's
// shape: a PODSlice remainder that is not a whole number of elements, or a
// last CString followed by trailing bytes.
var ErrBadLength = errors.New("wire: bad length")

// Cursor walks a single request's payload (the bytes following InHeader),
// handing out POD references, slices and C strings while checking bounds on
// every step. POD copies each fixed struct out; PODSlice, Bytes and
// Remainder return views of the payload without copying; CString allocates
// the returned string.
type Cursor struct {
	b []byte
}

// NewCursor wraps the bytes following the fixed InHeader.
func NewCursor(b []byte) Cursor {
	return Cursor{b: b}
}

// Len reports how many bytes remain unconsumed.
func (c Cursor) Len() int { return len(c.b) }

// Remainder returns whatever bytes are left, without consuming them. Used
// by the last field of a grammar (a POD slice or a payload blob).
func (c Cursor) Remainder() []byte { return c.b }

// Done reports whether every byte has been consumed; toplevel parses must
// check this themselves once they believe the grammar is satisfied.
func (c Cursor) Done() bool { return len(c.b) == 0 }

// POD copies sizeof(T) leading bytes out of the cursor into a fresh T and
// advances past them. Copying (rather than reinterpreting in place) sidesteps
// alignment hazards on architectures stricter than amd64; every struct in
// this package is small enough that the copy is free in practice.
func POD[T any](c *Cursor) (T, error) {
	var zero T
	n := int(unsafe.Sizeof(zero))
	if len(c.b) < n {
		return zero, ErrTruncated
	}
	v := *(*T)(unsafe.Pointer(&c.b[0]))
	c.b = c.b[n:]
	return v, nil
}

// PODSlice reinterprets the entire remainder as a slice of T. It is only
// legal as the last field of a grammar. The remainder's length must be an
// exact multiple of sizeof(T).
func PODSlice[T any](c *Cursor) ([]T, error) {
	var zero T
	n := int(unsafe.Sizeof(zero))
	if n == 0 || len(c.b)%n != 0 {
		return nil, ErrBadLength
	}
	count := len(c.b) / n
	if count == 0 {
		return nil, nil
	}
	hdr := reflect.SliceHeader{
		Data: uintptr(unsafe.Pointer(&c.b[0])),
		Len:  count,
		Cap:  count,
	}
	s := *(*[]T)(unsafe.Pointer(&hdr))
	c.b = c.b[len(c.b):]
	return s, nil
}

// CString reads a NUL-terminated string. If last is true the entire
// remainder must be exactly one NUL-terminated string (trailing bytes after
// the NUL are an error); otherwise it splits at the first NUL and leaves the
// rest of the cursor for subsequent fields.
func (c *Cursor) CString(last bool) (string, error) {
	i := bytes.IndexByte(c.b, 0)
	if i < 0 {
		return "", ErrTruncated
	}
	s := string(c.b[:i])
	if last {
		if i != len(c.b)-1 {
			return "", ErrBadLength
		}
		c.b = nil
		return s, nil
	}
	c.b = c.b[i+1:]
	return s, nil
}

// Bytes consumes exactly n bytes and returns them, for payloads whose length
// is carried in a sibling field (Write's data, Setxattr's value) rather than
// being "the rest of the message".
func (c *Cursor) Bytes(n uint32) ([]byte, error) {
	if uint64(len(c.b)) < uint64(n) {
		return nil, ErrTruncated
	}
	b := c.b[:n]
	c.b = c.b[n:]
	return b, nil
}
