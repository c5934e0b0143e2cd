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

// Package extent reads the block runs ("extents") that back LMFS
// directory headers, directory bodies and file contents.
package extent

import (
	"errors"
	"fmt"

	"github.com/asig/lmfsfuse/internal/block"
)

var (
	ErrBoundsExceeded = errors.New("extent: block out of band bounds")
	ErrBadAlignment   = errors.New("extent: bit size is not a multiple of 8")
)

// Extent is a contiguous run of blocks within a band, relative to the
// band's base block, sized in bits.
type Extent struct {
	Block   uint32
	BitSize uint32
}

// ByteSize returns BitSize/8, the number of bytes this extent
// contributes to a directory header, directory body or file.
func (e Extent) ByteSize() uint32 {
	return e.BitSize / 8
}

// Validate checks the invariants that hold for every decoded extent:
// bit_size is a multiple of 8 and the block lies within the band.
func (e Extent) Validate(bandSize uint32) error {
	if e.BitSize%8 != 0 {
		return fmt.Errorf("%w: block %d bit_size %d", ErrBadAlignment, e.Block, e.BitSize)
	}
	if e.Block >= bandSize {
		return fmt.Errorf("%w: block %d >= band size %d", ErrBoundsExceeded, e.Block, bandSize)
	}
	return nil
}

// ReadAll concatenates, in order, the bytes read from each extent's
// absolute block (bandBlock+extent.Block), exactly ByteSize() bytes
// per extent.
func ReadAll(img *block.Image, bandBlock, bandSize uint32, extents []Extent) ([]byte, error) {
	var out []byte
	for _, e := range extents {
		if err := e.Validate(bandSize); err != nil {
			return nil, err
		}
		data, err := img.ReadAt(int64(bandBlock+e.Block)*block.Size, int(e.ByteSize()))
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}
