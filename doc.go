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

// Package fuse implements the server side of the Linux FUSE kernel wire
// protocol, versions 7.31 through 7.32.
//
// The primary elements of interest are:
//
//   - Mount, which spawns the fusermount3 helper and obtains a session file
//     descriptor via SCM_RIGHTS.
//
//   - Start, the half-open session returned by Mount; calling Handshake on
//     it negotiates the protocol version and produces a Session.
//
//   - Session, which owns the buffer pool and the per-request cancel
//     functions that Interrupt uses, and drives the receive/dispatch loop
//     via Serve.
//
//   - The fuseops package, which defines the typed request accessors and
//     Reply values a handler uses to answer each opcode exactly once.
//
// This package only targets Linux; it does not attempt to support the OS X
// or BSD FUSE implementations. A mounted session is unmounted automatically
// when the Session value is garbage collected without an explicit Unmount,
// but callers should not rely on finalizers for timely cleanup — call
// Session.Unmount once the host is done serving.
package fuse
