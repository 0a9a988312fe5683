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

package fuseutil

import (
	"context"

	"github.com/kernelfs/fuse/fuseops"
)

// NotImplementedHandler answers most requests with ENOSYS. Embed it in a
// host's Handler implementation to pick up defaults for the operations it
// does not care about, overriding only the methods it actually implements.
//
// Forget, BatchForget and Destroy are exceptions: the protocol defines
// them as unanswered, so their defaults call Acknowledge rather than
// NotImplemented. Init, Release, Releasedir and Access also succeed by
// default, Opendir opens handle 0, Readdir returns an empty listing, and
// Statfs reports an all-zero FsInfo.
type NotImplementedHandler struct{}

func (NotImplementedHandler) Init(ctx context.Context, req *fuseops.InitRequest, reply *fuseops.InitReply) fuseops.Done {
	return reply.Ok()
}

func (NotImplementedHandler) Lookup(ctx context.Context, req *fuseops.LookupRequest, reply *fuseops.EntryReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Forget(ctx context.Context, req *fuseops.ForgetRequest, reply *fuseops.NoReply) fuseops.Done {
	return reply.Acknowledge()
}

func (NotImplementedHandler) Getattr(ctx context.Context, req *fuseops.GetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Setattr(ctx context.Context, req *fuseops.SetattrRequest, reply *fuseops.StatReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Readlink(ctx context.Context, req *fuseops.ReadlinkRequest, reply *fuseops.BytesReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Symlink(ctx context.Context, req *fuseops.SymlinkRequest, reply *fuseops.EntryReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Mknod(ctx context.Context, req *fuseops.MknodRequest, reply *fuseops.EntryReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Mkdir(ctx context.Context, req *fuseops.MkdirRequest, reply *fuseops.EntryReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Unlink(ctx context.Context, req *fuseops.UnlinkRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Rmdir(ctx context.Context, req *fuseops.RmdirRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Rename(ctx context.Context, req *fuseops.RenameRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Link(ctx context.Context, req *fuseops.LinkRequest, reply *fuseops.EntryReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Open(ctx context.Context, req *fuseops.OpenRequest, reply *fuseops.OpenReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Read(ctx context.Context, req *fuseops.ReadRequest, reply *fuseops.BytesReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Write(ctx context.Context, req *fuseops.WriteRequest, reply *fuseops.WriteReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Flush(ctx context.Context, req *fuseops.FlushRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Release(ctx context.Context, req *fuseops.ReleaseRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (NotImplementedHandler) Fsync(ctx context.Context, req *fuseops.FsyncRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Opendir(ctx context.Context, req *fuseops.OpendirRequest, reply *fuseops.OpenReply) fuseops.Done {
	return reply.OkWithHandle(0)
}

func (NotImplementedHandler) Readdir(ctx context.Context, req *fuseops.ReaddirRequest, reply *fuseops.ReaddirReply) fuseops.Done {
	return reply.Buffered().End()
}

func (NotImplementedHandler) Releasedir(ctx context.Context, req *fuseops.ReleasedirRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (NotImplementedHandler) Fsyncdir(ctx context.Context, req *fuseops.FsyncdirRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Setxattr(ctx context.Context, req *fuseops.SetxattrRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Getxattr(ctx context.Context, req *fuseops.GetxattrRequest, reply *fuseops.GetxattrReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Listxattr(ctx context.Context, req *fuseops.ListxattrRequest, reply *fuseops.ListxattrReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Removexattr(ctx context.Context, req *fuseops.RemovexattrRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Statfs(ctx context.Context, req *fuseops.StatfsRequest, reply *fuseops.InfoReply) fuseops.Done {
	return reply.Info(fuseops.FsInfo{})
}

func (NotImplementedHandler) Access(ctx context.Context, req *fuseops.AccessRequest, reply *fuseops.EmptyReply) fuseops.Done {
	return reply.Ok()
}

func (NotImplementedHandler) Create(ctx context.Context, req *fuseops.CreateRequest, reply *fuseops.CreateReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Bmap(ctx context.Context, req *fuseops.BmapRequest, reply *fuseops.BmapReply) fuseops.Done {
	return reply.NotImplemented()
}

func (NotImplementedHandler) Destroy(ctx context.Context, req *fuseops.DestroyRequest, reply *fuseops.NoReply) fuseops.Done {
	return reply.Acknowledge()
}

func (NotImplementedHandler) Unveil(ino fuseops.Ino) {}
