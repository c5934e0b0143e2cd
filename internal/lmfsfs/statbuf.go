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

// Package lmfsfs implements the read-only filesystem operations
// (getattr, readdir, open, read) on top of a resolve.Resolver. It
// knows nothing about FUSE; internal/fuse adapts StatBuf and Dirent
// onto bazil.org/fuse's own Attr and Dirent types.
package lmfsfs

import (
	"os"
	"strconv"
	"time"

	"github.com/asig/lmfsfuse/internal/lmfsdir"
)

// lispEpochOffset is the number of seconds between the Lisp Machine's
// universal-time epoch (1900-01-01) and the Unix epoch, used to
// convert a directory entry's cdate into a Unix mtime.
const lispEpochOffset = 2208988800

const blockSize = 1024

// StatBuf is a transport-agnostic stat result, deliberately shaped so
// the FUSE layer can fill a fuse.Attr from it field by field.
type StatBuf struct {
	Mode    os.FileMode
	Nlink   uint32
	Size    uint64
	Blocks  uint64
	Blksize uint32
	Mtime   time.Time
}

// statFromEntry builds a StatBuf from a decoded directory entry,
// applying the mode/nlink/size rules common to getattr and readdir.
func statFromEntry(e lmfsdir.Entry) StatBuf {
	var mode os.FileMode
	var nlink uint32
	if e.IsDirectory() {
		mode = os.ModeDir | 0750
		nlink = 2
	} else {
		mode = 0660
		nlink = 1
	}

	return StatBuf{
		Mode:    mode,
		Nlink:   nlink,
		Size:    uint64(e.TotalBytes),
		Blocks:  (uint64(e.TotalBytes) + 511) / 512,
		Blksize: blockSize,
		Mtime:   time.Unix(int64(e.CDate)-lispEpochOffset, 0),
	}
}

// displayName returns the name readdir should report for e: the bare
// name for directories, or "name.type#version" for files.
func displayName(e lmfsdir.Entry) string {
	if e.IsDirectory() {
		return e.Name
	}
	return e.Name + "." + e.Type + "#" + strconv.FormatUint(uint64(e.Version), 10)
}
