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

package buffer

import (
	"io"
	"unsafe"

	"github.com/kernelfs/fuse/internal/wire"
)

const inHeaderSize = int(unsafe.Sizeof(wire.InHeader{}))

// InMessage is a single request read from the kernel, including the leading
// wire.InHeader. It owns a fixed byte region sized by the session's
// negotiated read size; Init re-reads into that region in place so the
// buffer can be reused across requests without reallocating.
type InMessage struct {
	data []byte // len(data) == cap(data) == buffer size
	n    int    // bytes actually read by the most recent Init
}

// NewInMessage allocates an InMessage backed by a buffer of the given size,
// which must be at least wire.MinReadSize.
func NewInMessage(size int) *InMessage {
	return &InMessage{data: make([]byte, size)}
}

// Init reads one message from r into m's storage. r.Read must behave like a
// FUSE device read: exactly one request per call, never partial.
func (m *InMessage) Init(r io.Reader) error {
	n, err := r.Read(m.data[:cap(m.data)])
	if err != nil {
		return err
	}
	m.n = n
	return nil
}

// Header returns a reference to the header read by the most recent Init.
func (m *InMessage) Header() *wire.InHeader {
	return (*wire.InHeader)(unsafe.Pointer(&m.data[0]))
}

// Payload returns the bytes following the header, i.e. the region a
// wire.Cursor should walk to decode the opcode-specific body.
func (m *InMessage) Payload() []byte {
	if m.n <= inHeaderSize {
		return nil
	}
	return m.data[inHeaderSize:m.n]
}

// Len returns the total number of bytes read, header included.
func (m *InMessage) Len() int { return m.n }

// Cursor returns a wire.Cursor over the payload, ready to decode the body
// grammar for the header's opcode.
func (m *InMessage) Cursor() wire.Cursor {
	return wire.NewCursor(m.Payload())
}
