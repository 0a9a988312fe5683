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

// Package memfs is a tiny in-memory filesystem exercising the library end
// to end: mount, handshake, and every core operation a real backing store
// would need. It is a sample, not a specified component.
package memfs

import (
	"context"
	"sync"

	"github.com/jacobsa/timeutil"
	"github.com/kernelfs/fuse/fuseops"
	"github.com/kernelfs/fuse/fuseutil"
)

type inode struct {
	id       fuseops.Ino
	filetype fuseops.Filetype
	mode     uint32

	mu       sync.Mutex
	contents []byte                 // regular files
	children map[string]fuseops.Ino // directories
	mtime    fuseops.Timestamp
	nlookup  uint64 // outstanding kernel lookup-count references
	unlinked bool   // true once no directory entry still names this inode
}

// FS is an in-memory filesystem. It embeds NotImplementedHandler so every
// opcode this sample does not care about (xattrs, symlinks, hard links,
// bmap, fsync) answers ENOSYS automatically; FS only overrides the
// operations an in-memory tree actually needs.
type FS struct {
	fuseutil.NotImplementedHandler

	clock timeutil.Clock

	mu     sync.Mutex
	inodes map[fuseops.Ino]*inode
	nextID fuseops.Ino
}

// New constructs an FS with a single empty root directory.
func New(clock timeutil.Clock) *FS {
	fs := &FS{
		clock:  clock,
		inodes: make(map[fuseops.Ino]*inode),
		nextID: fuseops.RootIno,
	}
	root := fs.allocLocked(fuseops.DirectoryFiletype, 0755)
	root.children = make(map[string]fuseops.Ino)
	return fs
}

// allocLocked mints a new inode. Caller holds fs.mu.
func (fs *FS) allocLocked(ft fuseops.Filetype, mode uint32) *inode {
	id := fs.nextID
	fs.nextID++
	in := &inode{id: id, filetype: ft, mode: mode, mtime: fs.now()}
	if ft == fuseops.DirectoryFiletype {
		in.children = make(map[string]fuseops.Ino)
	}
	fs.inodes[id] = in
	return in
}

func (fs *FS) now() fuseops.Timestamp {
	return fuseops.TimestampFromTime(fs.clock.Now())
}

func (fs *FS) get(id fuseops.Ino) *inode {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.inodes[id]
}

func (in *inode) entry() fuseops.Entry {
	in.mu.Lock()
	defer in.mu.Unlock()
	return fuseops.Entry{
		Ino:      in.id,
		Filetype: in.filetype,
		EntryTtl: fuseops.TtlMax,
		AttrTtl:  fuseops.TtlMax,
		Attrs: fuseops.Attrs{
			Size:  uint64(len(in.contents)),
			Mtime: in.mtime,
			Perm:  in.mode,
		},
	}
}

func (fs *FS) Init(ctx context.Context, req *fuseops.InitRequest, reply *fuseops.InitReply) fuseops.Done {
	return reply.Ok()
}

func (fs *FS) Forget(ctx context.Context, req *fuseops.ForgetRequest, reply *fuseops.NoReply) fuseops.Done {
	for _, l := range req.Lookups {
		fs.forgetOne(l.Ino, l.Nlookup)
	}
	return reply.Acknowledge()
}

// forgetOne retires n outstanding lookup-count references against ino,
// reclaiming the inode once none remain and no directory entry names it any
// more. fs.mu is held for the whole decide-and-delete sequence so a
// concurrent Unveil or removeChild on the same inode can't race the
// reclaim decision.
func (fs *FS) forgetOne(ino fuseops.Ino, n uint64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in := fs.inodes[ino]
	if in == nil {
		return
	}

	in.mu.Lock()
	if n >= in.nlookup {
		in.nlookup = 0
	} else {
		in.nlookup -= n
	}
	reclaim := in.nlookup == 0 && in.unlinked
	in.mu.Unlock()

	if reclaim {
		delete(fs.inodes, ino)
	}
}

// Unveil implements fuseops.Handler.Unveil: every successful entry-producing
// reply hands the kernel one more lookup-count reference to ino, to be
// balanced later by a matching Forget. Runs under fs.mu so it can't race a
// concurrent reclaim in forgetOne/removeChild.
func (fs *FS) Unveil(ino fuseops.Ino) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in := fs.inodes[ino]
	if in == nil {
		return
	}
	in.mu.Lock()
	in.nlookup++
	in.mu.Unlock()
}

func (fs *FS) Lookup(ctx context.Context, req *fuseops.LookupRequest, reply *fuseops.EntryReply) fuseops.Done {
	parent := fs.get(req.Ino)
	if parent == nil {
		return reply.NotFoundUncached()
	}

	parent.mu.Lock()
	childID, ok := parent.children[req.Name]
	parent.mu.Unlock()
	if !ok {
		return reply.NotFound()
	}

	child := fs.get(childID)
	return reply.Known(child.entry())
}

func (fs *FS) Getattr(ctx context.Context, req *fuseops.GetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	in := fs.get(req.Ino)
	if in == nil {
		return reply.InvalidArgument()
	}
	e := in.entry()
	return reply.Stat(in.id, in.filetype, e.Attrs, fuseops.TtlMax)
}

func (fs *FS) Setattr(ctx context.Context, req *fuseops.SetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	in := fs.get(req.Ino)
	if in == nil {
		return reply.InvalidArgument()
	}

	in.mu.Lock()
	if req.Size != nil {
		size := int(*req.Size)
		if size <= len(in.contents) {
			in.contents = in.contents[:size]
		} else {
			in.contents = append(in.contents, make([]byte, size-len(in.contents))...)
		}
	}
	if req.Mode != nil {
		in.mode = *req.Mode
	}
	in.mtime = fs.now()
	in.mu.Unlock()

	e := in.entry()
	return reply.Stat(in.id, in.filetype, e.Attrs, fuseops.TtlMax)
}

func (fs *FS) mkChild(parentIno fuseops.Ino, name string, ft fuseops.Filetype, mode uint32) (*inode, bool) {
	parent := fs.get(parentIno)
	if parent == nil {
		return nil, false
	}

	fs.mu.Lock()
	child := fs.allocLocked(ft, mode)
	fs.mu.Unlock()

	parent.mu.Lock()
	parent.children[name] = child.id
	parent.mu.Unlock()

	return child, true
}

func (fs *FS) Mkdir(ctx context.Context, req *fuseops.MkdirRequest, reply *fuseops.EntryReply) fuseops.Done {
	child, ok := fs.mkChild(req.Ino, req.Name, fuseops.DirectoryFiletype, req.Mode&^req.Umask)
	if !ok {
		return reply.NotFoundUncached()
	}
	return reply.Known(child.entry())
}

func (fs *FS) Create(ctx context.Context, req *fuseops.CreateRequest, reply *fuseops.CreateReply) fuseops.Done {
	child, ok := fs.mkChild(req.Ino, req.Name, fuseops.RegularFiletype, req.Mode&^req.Umask)
	if !ok {
		return reply.InvalidArgument()
	}
	return reply.KnownWithHandle(child.entry(), fuseops.HandleID(child.id))
}

func (fs *FS) removeChild(parentIno fuseops.Ino, name string) bool {
	parent := fs.get(parentIno)
	if parent == nil {
		return false
	}

	parent.mu.Lock()
	childID, ok := parent.children[name]
	if ok {
		delete(parent.children, name)
	}
	parent.mu.Unlock()
	if !ok {
		return false
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if child := fs.inodes[childID]; child != nil {
		child.mu.Lock()
		child.unlinked = true
		reclaim := child.nlookup == 0
		child.mu.Unlock()
		if reclaim {
			delete(fs.inodes, childID)
		}
	}
	return true
}

func (fs *FS) Unlink(ctx context.Context, req *fuseops.UnlinkRequest, reply *fuseops.EmptyReply) fuseops.Done {
	if !fs.removeChild(req.Ino, req.Name) {
		return reply.InvalidArgument()
	}
	return reply.Ok()
}

func (fs *FS) Rmdir(ctx context.Context, req *fuseops.RmdirRequest, reply *fuseops.EmptyReply) fuseops.Done {
	if !fs.removeChild(req.Ino, req.Name) {
		return reply.InvalidArgument()
	}
	return reply.Ok()
}

func (fs *FS) Open(ctx context.Context, req *fuseops.OpenRequest, reply *fuseops.OpenReply) fuseops.Done {
	return reply.OkWithHandle(fuseops.HandleID(req.Ino))
}

func (fs *FS) Opendir(ctx context.Context, req *fuseops.OpendirRequest, reply *fuseops.OpenReply) fuseops.Done {
	return reply.OkWithHandle(fuseops.HandleID(req.Ino))
}

func (fs *FS) Release(ctx context.Context, req *fuseops.ReleaseRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (fs *FS) Releasedir(ctx context.Context, req *fuseops.ReleasedirRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (fs *FS) Flush(ctx context.Context, req *fuseops.FlushRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (fs *FS) Read(ctx context.Context, req *fuseops.ReadRequest, reply *fuseops.BytesReply) fuseops.Done {
	in := fs.get(fuseops.Ino(req.Handle))
	if in == nil {
		return reply.InvalidArgument()
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	off := int(req.Offset)
	if off >= len(in.contents) {
		return reply.Bytes(nil)
	}
	end := off + int(req.Size)
	if end > len(in.contents) {
		end = len(in.contents)
	}
	return reply.Bytes(in.contents[off:end])
}

func (fs *FS) Write(ctx context.Context, req *fuseops.WriteRequest, reply *fuseops.WriteReply) fuseops.Done {
	in := fs.get(fuseops.Ino(req.Handle))
	if in == nil {
		return reply.InvalidArgument()
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	end := int(req.Offset) + len(req.Data)
	if end > len(in.contents) {
		in.contents = append(in.contents, make([]byte, end-len(in.contents))...)
	}
	copy(in.contents[req.Offset:], req.Data)
	in.mtime = fs.now()

	return reply.All()
}

func (fs *FS) Readdir(ctx context.Context, req *fuseops.ReaddirRequest, reply *fuseops.ReaddirReply) fuseops.Done {
	in := fs.get(fuseops.Ino(req.Handle))
	if in == nil {
		return reply.Buffered().End()
	}

	type childRef struct {
		name string
		ino  fuseops.Ino
	}

	in.mu.Lock()
	children := make([]childRef, 0, len(in.children))
	for name, ino := range in.children {
		children = append(children, childRef{name: name, ino: ino})
	}
	in.mu.Unlock()

	buffered := reply.Buffered()
	for i := int(req.Offset); i < len(children); i++ {
		name := children[i].name
		child := fs.get(children[i].ino)
		if child == nil {
			continue
		}
		direntEntry := fuseutil.DirentEntry{
			Ino:    child.id,
			Offset: fuseops.DirOffset(i + 1),
			Name:   name,
			Type:   child.filetype,
		}

		if req.Plus {
			n := fuseutil.WriteDirentPlus(buffered.Remaining(), direntEntry, child.entry())
			if !buffered.AppendPlus(n, child.id, name) {
				break
			}
			continue
		}

		n := fuseutil.WriteDirent(buffered.Remaining(), direntEntry)
		if !buffered.Append(n) {
			break
		}
	}
	return buffered.End()
}

func (fs *FS) Statfs(ctx context.Context, req *fuseops.StatfsRequest, reply *fuseops.InfoReply) fuseops.Done {
	fs.mu.Lock()
	files := uint64(len(fs.inodes))
	fs.mu.Unlock()
	return reply.Info(fuseops.FsInfo{
		Blocks: 1 << 20,
		Bfree:  1 << 20,
		Bavail: 1 << 20,
		Files:  files,
		Ffree:  1 << 20,
		Bsize:  4096,
		Frsize: 4096,
	})
}

func (fs *FS) Access(ctx context.Context, req *fuseops.AccessRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}
