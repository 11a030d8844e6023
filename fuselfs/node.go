//go:build fuse

// Package fuselfs bridges an lfs.State to a mountable filesystem via
// go-fuse's high-level node API. It holds no filesystem logic of its own:
// every operation is a direct translation of a FUSE callback into the
// corresponding lfs.State call and a syscall.Errno built from the
// resulting error's Kind.
package fuselfs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/satwik-exe/lfs"
)

// Root is the single directory node of the tree: the filesystem has no
// subdirectories, so every lookup/readdir/create the kernel sends is
// against this one node.
type Root struct {
	fs.Inode
	state *lfs.State
}

// NewRoot builds the root node for a mounted lfs.State.
func NewRoot(state *lfs.State) *Root {
	return &Root{state: state}
}

var (
	_ fs.InodeEmbedder  = (*Root)(nil)
	_ fs.NodeGetattrer  = (*Root)(nil)
	_ fs.NodeLookuper   = (*Root)(nil)
	_ fs.NodeReaddirer  = (*Root)(nil)
	_ fs.NodeCreater    = (*Root)(nil)
	_ fs.NodeUnlinker   = (*Root)(nil)
)

func (r *Root) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := r.state.GetAttr("/")
	if err != nil {
		return lfs.ErrnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	path := "/" + name
	attr, err := r.state.GetAttr(path)
	if err != nil {
		return nil, lfs.ErrnoOf(err)
	}
	child := r.NewInode(ctx, &file{state: r.state, name: name}, fs.StableAttr{
		Mode: uint32(attr.Mode),
		Ino:  uint64(attr.InodeNo) + 1,
	})
	fillAttr(&out.Attr, attr)
	return child, 0
}

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := r.state.ReadDir("/")
	if err != nil {
		return nil, lfs.ErrnoOf(err)
	}
	var entries []fuse.DirEntry
	for _, n := range names {
		if n == "." || n == ".." {
			continue
		}
		attr, err := r.state.GetAttr("/" + n)
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{Name: n, Mode: uint32(attr.Mode), Ino: uint64(attr.InodeNo) + 1})
	}
	return fs.NewListDirStream(entries), 0
}

func (r *Root) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	path := "/" + name
	if err := r.state.Create(path); err != nil {
		return nil, nil, 0, lfs.ErrnoOf(err)
	}
	attr, err := r.state.GetAttr(path)
	if err != nil {
		return nil, nil, 0, lfs.ErrnoOf(err)
	}
	child := r.NewInode(ctx, &file{state: r.state, name: name}, fs.StableAttr{
		Mode: uint32(attr.Mode),
		Ino:  uint64(attr.InodeNo) + 1,
	})
	fillAttr(&out.Attr, attr)
	return child, nil, 0, 0
}

// Unlink is not supported: the core filesystem has no delete operation
// (see the design notes' rejected-extensions list), so report EROFS
// rather than silently doing nothing.
func (r *Root) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

// file is a regular-file node. Every operation resolves path by name on
// every call rather than caching an open handle, since lfs.State's
// operations are already path-addressed and idempotent to call repeatedly.
type file struct {
	fs.Inode
	state *lfs.State
	name  string
}

var (
	_ fs.InodeEmbedder = (*file)(nil)
	_ fs.NodeGetattrer = (*file)(nil)
	_ fs.NodeOpener    = (*file)(nil)
	_ fs.NodeReader    = (*file)(nil)
	_ fs.NodeWriter    = (*file)(nil)
	_ fs.NodeSetattrer = (*file)(nil)
)

func (n *file) path() string { return "/" + n.name }

func (n *file) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.state.GetAttr(n.path())
	if err != nil {
		return lfs.ErrnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *file) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if _, err := n.state.GetAttr(n.path()); err != nil {
		return nil, 0, lfs.ErrnoOf(err)
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *file) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.state.Read(n.path(), off, len(dest))
	if err != nil {
		return nil, lfs.ErrnoOf(err)
	}
	return fuse.ReadResultData(data), 0
}

func (n *file) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.state.Write(n.path(), off, data)
	if err != nil {
		return uint32(written), lfs.ErrnoOf(err)
	}
	return uint32(written), 0
}

// Setattr supports only a truncate-to-zero; every other attribute change
// (mode, ownership, timestamps) is accepted as a no-op since the core has
// no representation for any of them.
func (n *file) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if sz, ok := in.GetSize(); ok {
		if err := n.state.Truncate(n.path(), int64(sz)); err != nil {
			return lfs.ErrnoOf(err)
		}
	}
	attr, err := n.state.GetAttr(n.path())
	if err != nil {
		return lfs.ErrnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func fillAttr(out *fuse.Attr, attr *lfs.Attr) {
	out.Ino = uint64(attr.InodeNo) + 1
	out.Mode = uint32(attr.Mode)
	out.Nlink = attr.NLink
	out.Size = attr.Size
}
