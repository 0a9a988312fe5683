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

// A simple tool for mounting the in-memory sample filesystem.
package main

import (
	"flag"
	"log"

	"github.com/jacobsa/timeutil"
	"github.com/kernelfs/fuse"
	"github.com/kernelfs/fuse/samples/memfs"
)

var fMountPoint = flag.String("mount_point", "", "Path to mount point.")
var fFsName = flag.String("fsname", "memfs", "File system name reported to the OS.")
var fReadOnly = flag.Bool("read_only", false, "Mount in read-only mode.")

func main() {
	flag.Parse()

	if *fMountPoint == "" {
		log.Fatalf("You must set --mount_point.")
	}

	opts := &fuse.MountOptions{}
	opts.FsName(*fFsName)
	if *fReadOnly {
		opts.ReadOnly()
	}

	start, err := fuse.Mount(*fMountPoint, opts)
	if err != nil {
		log.Fatalf("Mount: %v", err)
	}

	fs := memfs.New(timeutil.RealClock())

	sess, err := start.Handshake(fs)
	if err != nil {
		log.Fatalf("Handshake: %v", err)
	}

	if err := sess.Serve(); err != nil {
		log.Fatalf("Serve: %v", err)
	}
}
