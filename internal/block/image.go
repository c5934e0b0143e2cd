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

// Package block implements the lowest layer of the LMFS decoder: fixed
// 1024-byte reads over a seekable disk image, addressed by absolute
// block index. Reads are positional (os.File.ReadAt) rather than
// seek-then-read, so concurrent FUSE dispatch goroutines never race on
// a shared file cursor.
package block

import (
	"fmt"
	"os"
)

const Size = 1024

type Block [Size]byte

type Image struct {
	f *os.File
}

// Open opens imagePath read-only. LMFS is a read-only filesystem as
// implemented here; the underlying image is never written.
func Open(imagePath string) (*Image, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("block: open %s: %w", imagePath, err)
	}
	return &Image{f: f}, nil
}

func (img *Image) Close() error {
	return img.f.Close()
}

// ReadBlock reads the 1024-byte block at absolute block index
// absBlock. Addressing is absolute; callers that need band-relative
// addressing must add the band's base block first.
func (img *Image) ReadBlock(absBlock uint32) (Block, error) {
	var b Block
	n, err := img.f.ReadAt(b[:], int64(absBlock)*Size)
	if err != nil {
		return b, fmt.Errorf("block: read block %d: %w", absBlock, err)
	}
	if n != Size {
		return b, fmt.Errorf("block: short read at block %d: got %d bytes, want %d", absBlock, n, Size)
	}
	return b, nil
}

// ReadAt reads length bytes starting at the given absolute byte
// offset, for callers (extent reads) that need something other than
// a whole 1024-byte block.
func (img *Image) ReadAt(byteOffset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := img.f.ReadAt(buf, byteOffset)
	if err != nil {
		return nil, fmt.Errorf("block: read %d bytes at offset %d: %w", length, byteOffset, err)
	}
	if n != length {
		return nil, fmt.Errorf("block: short read at offset %d: got %d bytes, want %d", byteOffset, n, length)
	}
	return buf, nil
}
