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

package lmfsfs

import (
	"github.com/asig/lmfsfuse/internal/lmfsdir"
	"github.com/asig/lmfsfuse/internal/resolve"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

// readExtents walks e's extent map, tracking blk_start as the sum of
// prior extents' byte sizes, and collects up to size bytes starting at
// the given file offset. Read errors on an individual extent are
// logged and treated as end-of-data rather than failing the whole
// read, since a single bad extent shouldn't make an otherwise-healthy
// file unreadable in its readable ranges.
func readExtents(r *resolve.Resolver, e lmfsdir.Entry, offset int64, size int) []byte {
	img := r.Image()
	cfg := r.Config()

	var out []byte
	remaining := size
	var blkStart int64

	for _, ext := range e.Map {
		if remaining <= 0 {
			break
		}
		blockBytes := int64(ext.ByteSize())

		offsetIntoBlock := offset - blkStart
		if offsetIntoBlock < 0 {
			offsetIntoBlock = 0
		}
		if offsetIntoBlock >= blockBytes {
			blkStart += blockBytes
			continue
		}

		want := blockBytes - offsetIntoBlock
		if int64(remaining) < want {
			want = int64(remaining)
		}

		absOffset := int64(cfg.BandBlock+ext.Block)*blockSize + offsetIntoBlock
		data, err := img.ReadAt(absOffset, int(want))
		if err != nil {
			log.Error().Err(err).Uint32("block", ext.Block).Msg("lmfsfs: extent read failed")
			break
		}

		out = append(out, data...)
		remaining -= len(data)
		blkStart += blockBytes
	}
	return out
}

// translateCharacters applies the spec's default CHARACTERS
// translation in place: clear bit 7 of every byte, then remap 0x0D to
// 0x0A.
func translateCharacters(b []byte) {
	for i, c := range b {
		c &= 0x7F
		if c == 0x0D {
			c = 0x0A
		}
		b[i] = c
	}
}

// translateWithCharset runs the bytes through a configurable 8-bit
// Lisp-charset decode instead of the bare bit-7-clear table. On
// malformed input it falls back to the default table rather than
// dropping the read.
func translateWithCharset(b []byte, cm *charmap.Charmap) []byte {
	decoded, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		translateCharacters(b)
		return b
	}
	return decoded
}
