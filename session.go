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
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/internal/buffer"
	"github.com/kernelfs/fuse/internal/wire"
)

// sharedBuffers is how many concurrent in-flight requests the session will
// allow before Serve's reader blocks waiting for a handler to finish and
// release its buffer.
const sharedBuffers = 32

// Start is a half-open FUSE session: Mount has obtained a kernel session fd
// over the mount helper's socket, but the protocol handshake has not yet
// run. Call Handshake to negotiate the version and get a running Session.
type Start struct {
	dev        *os.File
	mountpoint string
}

// Mount spawns fusermount3 to mount the filesystem at mountpoint with the
// given options, returning a half-open Start. Call Handshake on the result
// to negotiate the protocol and begin serving.
func Mount(mountpoint string, opts *MountOptions) (*Start, error) {
	if opts == nil {
		opts = &MountOptions{}
	}

	dev, err := mountSync(mountpoint, opts)
	if err != nil {
		return nil, err
	}

	return &Start{dev: dev, mountpoint: mountpoint}, nil
}

// Handshake reads the kernel's Init request, negotiates a protocol version
// with handler.Init, and returns a Session ready to Serve. If the kernel
// offers a newer major version than this package supports, Handshake
// answers with a renegotiation request and loops, exactly as a real mount
// would when talking to a newer client library.
func (s *Start) Handshake(handler fuseops.Handler) (*Session, error) {
	sess := &Session{
		dev:         s.dev,
		handler:     handler,
		mountpoint:  s.mountpoint,
		cancelFuncs: make(map[uint64]context.CancelFunc),
	}

	scratch := buffer.NewInMessage(wire.MinReadSize)

	for {
		if err := scratch.Init(s.dev); err != nil {
			return nil, ioError(err)
		}

		hdr := scratch.Header()
		if wire.Opcode(hdr.Opcode) != wire.OpInit {
			sess.Send(hdr.Unique, -int32(EPROTO))
			return nil, protocolInitError(fmt.Errorf("first message was opcode %v, not Init", wire.Opcode(hdr.Opcode)))
		}

		cur := scratch.Cursor()
		body, err := wire.POD[wire.InitIn](&cur)
		if err != nil {
			return nil, protocolInitError(err)
		}

		if body.Major > wire.MajorVersion {
			// Ask the kernel to retry at our major version.
			sess.Send(hdr.Unique, 0, uint32Bytes(wire.MajorVersion))
			continue
		}

		supported := body.Major == wire.MajorVersion && body.Minor >= wire.RequiredMinorVersion
		if !supported {
			sess.Send(hdr.Unique, -int32(EPROTONOSUPPORT))
			return nil, protocolInitError(fmt.Errorf("unsupported protocol %d.%d", body.Major, body.Minor))
		}

		bufSize := wire.MinReadSize
		if pageReadahead := int(body.MaxReadahead); pageReadahead > bufSize {
			bufSize = pageReadahead
		}

		maxWrite := bufSize - (int(unsafe.Sizeof(wire.InHeader{})) + int(unsafe.Sizeof(wire.WriteIn{})))

		maxPages := (maxWrite + pageSize() - 1) / pageSize()
		if maxPages > math.MaxUint16 {
			maxPages = math.MaxUint16
		}

		out := wire.InitOut{
			Major:         wire.MajorVersion,
			Minor:         wire.TargetMinorVersion,
			MaxReadahead:  body.MaxReadahead,
			Flags:         body.Flags & wire.SupportedInitFlags,
			MaxWrite:      uint32(maxWrite),
			MaxBackground: sharedBuffers,
			MaxPages:      uint16(maxPages),
		}

		req := &fuseops.InitRequest{
			Header:       fuseops.Header{Unique: hdr.Unique, UID: hdr.UID, GID: hdr.GID, PID: hdr.PID},
			Major:        body.Major,
			Minor:        body.Minor,
			MaxReadahead: body.MaxReadahead,
			Flags:        body.Flags,
		}
		reply := fuseops.NewInitReply(sess, hdr.Unique, out)
		handler.Init(context.Background(), req, reply)

		sess.pool = buffer.NewPool(sharedBuffers, bufSize)
		runtime.SetFinalizer(sess, (*Session).finalize)
		return sess, nil
	}
}

// Session owns a live /dev/fuse connection and drives the receive/dispatch
// loop. A Session is safe for concurrent use; Serve must only be called
// once.
type Session struct {
	dev     *os.File
	handler fuseops.Handler
	pool    *buffer.Pool

	writeMu sync.Mutex

	mu          sync.Mutex
	mountpoint  string // GUARDED_BY(mu); "" once unmounted
	cancelFuncs map[uint64]context.CancelFunc // GUARDED_BY(mu)
}

func (s *Session) finalize() {
	_ = s.Unmount()
}

// Unmount asks the kernel to unmount the filesystem. It is idempotent: a
// second call, or a call after the mountpoint slot has already been taken
// by a prior Unmount or by the finalizer, is a no-op.
func (s *Session) Unmount() error {
	s.mu.Lock()
	mountpoint := s.mountpoint
	s.mountpoint = ""
	s.mu.Unlock()

	if mountpoint == "" {
		return nil
	}
	return unmount(mountpoint)
}

// Serve runs the receive/dispatch loop until the kernel closes the device
// (the filesystem was unmounted out from under the session) or a Destroy
// request arrives. Each request is dispatched to handler on its own
// goroutine so long-running operations do not block unrelated requests.
func (s *Session) Serve() error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		m := s.pool.Acquire()

		err := s.readMessage(m)
		if err == io.EOF {
			s.pool.Release(m)
			return nil
		}
		if err != nil {
			s.pool.Release(m)
			return err
		}

		hdr := m.Header()
		if wire.Opcode(hdr.Opcode) == wire.OpInterrupt {
			s.handleInterrupt(m)
			s.pool.Release(m)
			continue
		}

		if wire.Opcode(hdr.Opcode) == wire.OpDestroy {
			s.dispatch(context.Background(), m)
			s.pool.Release(m)
			return nil
		}

		ctx := s.beginOp(hdr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.pool.Release(m)
			defer s.finishOp(hdr)
			s.dispatch(ctx, m)
		}()
	}
}

// readMessage reads one request into m, retrying transient EINTR and
// translating ENODEV (the kernel has hung up, i.e. we were unmounted) into
// io.EOF.
func (s *Session) readMessage(m *buffer.InMessage) error {
	for {
		err := m.Init(s.dev)
		if err == nil {
			return nil
		}

		if pe, ok := err.(*os.PathError); ok {
			switch pe.Err {
			case syscall.ENODEV:
				return io.EOF
			case syscall.EINTR:
				continue
			}
		}

		return ioError(err)
	}
}

// beginOp sets up a cancellable context for a request the caller will wait
// on a reply for, and records its cancel function so a later Interrupt can
// find it. Forget and BatchForget are not recorded: their "unique" values
// carry no reply and so become eligible for kernel reuse as soon as they
// are read, same as the note in the upstream connection loop this is
// modeled on.
func (s *Session) beginOp(hdr *wire.InHeader) context.Context {
	ctx := context.Background()
	if wire.Opcode(hdr.Opcode) == wire.OpForget || wire.Opcode(hdr.Opcode) == wire.OpBatchForget {
		return ctx
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelFuncs[hdr.Unique] = cancel
	s.mu.Unlock()
	return ctx
}

func (s *Session) finishOp(hdr *wire.InHeader) {
	if wire.Opcode(hdr.Opcode) == wire.OpForget || wire.Opcode(hdr.Opcode) == wire.OpBatchForget {
		return
	}

	s.mu.Lock()
	cancel, ok := s.cancelFuncs[hdr.Unique]
	if ok {
		delete(s.cancelFuncs, hdr.Unique)
	}
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// handleInterrupt cancels the context of the request named by the
// Interrupt body, if it is still outstanding. Per the kernel's documented
// interrupt contract an Interrupt cannot arrive before the request it
// names, so failing to find it just means the original request has
// already been answered; no reply is ever sent for Interrupt itself.
func (s *Session) handleInterrupt(m *buffer.InMessage) {
	cur := m.Cursor()
	body, err := wire.POD[wire.InterruptIn](&cur)
	if err != nil {
		return
	}

	s.mu.Lock()
	cancel, ok := s.cancelFuncs[body.Unique]
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// Send implements fuseops.ReplySink. It assembles an OutHeader followed by
// segments into a single scatter-gather write.
func (s *Session) Send(unique uint64, errno int32, segments ...[]byte) {
	chain := TailChain(segments...)
	total := chain.TotalLen()

	out := wire.OutHeader{
		Len:    uint32(outHeaderSize + total),
		Error:  errno,
		Unique: unique,
	}
	headerBytes := unsafe.Slice((*byte)(unsafe.Pointer(&out)), outHeaderSize)

	full := chain.Preceded(headerBytes)
	iov := full.Flatten()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := writev(int(s.dev.Fd()), iov)
	if err != nil {
		warnLog("writev for request %d: %v", unique, err)
		return
	}
	if n != int(out.Len) {
		warnLog("%v", shortWriteError(n, int(out.Len)))
	}
}

// Unveil implements fuseops.ReplySink by forwarding to the host's Handler.
func (s *Session) Unveil(ino fuseops.Ino) {
	s.handler.Unveil(ino)
}

const outHeaderSize = int(unsafe.Sizeof(wire.OutHeader{}))

func pageSize() int {
	return os.Getpagesize()
}

func uint32Bytes(v uint32) []byte {
	b := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return b[:]
}
