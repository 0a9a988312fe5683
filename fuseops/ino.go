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

// Package fuseops defines the typed per-opcode request and reply surface a
// host filesystem implements: one Go method per supported FUSE operation,
// taking a pointer to a request value and a pointer to a reply value whose
// terminal methods are the only way to produce a Done token.
package fuseops

import "fmt"

// Ino is a transparent 64-bit inode identifier. NULL (0) never denotes a
// real inode; Root (1) is the protocol's fixed mountpoint inode, visible to
// every client regardless of what a host filesystem calls its own root
// internally.
type Ino uint64

const (
	NullIno Ino = 0
	RootIno Ino = 1
)

func (i Ino) String() string {
	if i == RootIno {
		return "root"
	}
	return fmt.Sprintf("%d", uint64(i))
}

// HandleID is the opaque 64-bit value a host hands back from Open or
// Opendir and that the kernel threads through subsequent Read, Write,
// Release, Readdir and Releasedir requests for the same file or directory.
type HandleID uint64

// DirOffset is an opaque directory-stream cursor, valid only relative to
// the Readdir/ReaddirPlus sequence that produced it.
type DirOffset uint64
