/*
 * This file is part of the LMFS FUSE driver ("lmfsfuse")
 * Copyright (C) 2025 Andreas Signer <asigner@gmail.com>
 *
 * lmfsfuse is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * lmfsfuse is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with lmfsfuse.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package fuse adapts lmfsfs.FSAdapter to bazil.org/fuse/fs. It is a
// thin transport layer: path bookkeeping, versioning, and translation
// all live below it in lmfsdir/resolve/lmfsfs.
package fuse

import (
	"context"
	"errors"
	"os"
	"path"
	"syscall"

	fuse "bazil.org/fuse"
	fuse_fs "bazil.org/fuse/fs"
	"github.com/rs/zerolog/log"

	"github.com/asig/lmfsfuse/internal/lmfsfs"
	"github.com/asig/lmfsfuse/internal/resolve"
)

// FS is the root of the mounted tree. Unlike the teacher's writable
// odit filesystem, lmfsfuse exposes no Create/Remove/Write: the
// backing band is read-only source material, never produced.
type FS struct {
	adapter *lmfsfs.FSAdapter
	uid     uint32
	gid     uint32
}

type node struct {
	adapter *lmfsfs.FSAdapter
	path    string
	uid     uint32
	gid     uint32
}

type fileHandle struct {
	node node
}

func NewFS(adapter *lmfsfs.FSAdapter) fuse_fs.FS {
	return FS{
		adapter: adapter,
		uid:     uint32(os.Getuid()),
		gid:     uint32(os.Getgid()),
	}
}

func (f FS) Root() (fuse_fs.Node, error) {
	return node{adapter: f.adapter, path: "/", uid: f.uid, gid: f.gid}, nil
}

func (n node) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := n.adapter.GetAttr(n.path)
	if err != nil {
		return toErrno(err)
	}
	a.Mode = st.Mode
	a.Nlink = st.Nlink
	a.Size = st.Size
	a.Blocks = st.Blocks
	a.BlockSize = st.Blksize
	a.Mtime = st.Mtime
	a.Ctime = st.Mtime
	a.Atime = st.Mtime
	a.Uid = n.uid
	a.Gid = n.gid
	return nil
}

func (n node) Lookup(ctx context.Context, name string) (fuse_fs.Node, error) {
	childPath := path.Join(n.path, name)
	log.Debug().Str("path", childPath).Msg("FUSE Lookup")
	if _, err := n.adapter.GetAttr(childPath); err != nil {
		return nil, toErrno(err)
	}
	return node{adapter: n.adapter, path: childPath, uid: n.uid, gid: n.gid}, nil
}

func (n node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	log.Debug().Str("path", n.path).Msg("FUSE ReadDirAll")
	entries, err := n.adapter.ReadDir(n.path)
	if err != nil {
		return nil, toErrno(err)
	}

	res := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		dt := fuse.DT_File
		if e.HasStat && e.Stat.Mode&os.ModeDir != 0 {
			dt = fuse.DT_Dir
		}
		res = append(res, fuse.Dirent{Name: e.Name, Type: dt})
	}
	return res, nil
}

func (n node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fuse_fs.Handle, error) {
	log.Debug().Str("path", n.path).Msg("FUSE Open")
	if err := n.adapter.Open(n.path); err != nil {
		return nil, toErrno(err)
	}
	return fileHandle{node: n}, nil
}

func (h fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	log.Debug().Str("path", h.node.path).Int64("offset", req.Offset).Int("size", req.Size).Msg("FUSE Read")
	data, err := h.node.adapter.Read(h.node.path, req.Offset, req.Size)
	if err != nil {
		return toErrno(err)
	}
	resp.Data = data
	return nil
}

func (h fileHandle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	return nil
}

func (h fileHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return nil
}

// toErrno maps the decoder's typed errors onto the errno values FUSE
// expects; anything unrecognized surfaces as EIO so a corrupt band
// never looks like "file not found" to callers that branch on it.
func toErrno(err error) error {
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, lmfsfs.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, lmfsfs.ErrIsADirectory):
		return syscall.EISDIR
	default:
		return syscall.EIO
	}
}
