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

// Package band locates a named LMFS band inside the label's partition
// table and decodes its configuration block (block 0 of the band).
package band

import (
	"errors"
	"fmt"

	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/extent"
	"github.com/asig/lmfsfuse/internal/label"
	"github.com/asig/lmfsfuse/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	wantVersion   = 5
	maxRootBlocks = 31

	ofsVersion    = 0
	ofsCheckword  = 3
	ofsFsSize     = 6
	ofsPutBase    = 9
	ofsPutSize    = 12
	ofsRootNblks  = 15
	ofsRootMap    = 17
	rootMapEntry  = 6 // 3 bytes block + 3 bytes bit_size
)

var (
	ErrPartitionNotFound = errors.New("band: partition not found")
	ErrUnexpectedVersion = errors.New("band: unexpected LMFS version")
	ErrBadCheckword      = errors.New("band: unexpected checkword")
	ErrSizeMismatch      = errors.New("band: filesystem size does not match partition size")
	ErrRootMapTooLarge   = errors.New("band: root directory map too large")
)

// Find returns the first partition whose 4-byte name matches name
// (compared over exactly 4 bytes, unpadded).
func Find(partitions []label.Partition, name string) (label.Partition, error) {
	var key [4]byte
	copy(key[:], name)
	for _, p := range partitions {
		if p.Name == key {
			return p, nil
		}
	}
	return label.Partition{}, fmt.Errorf("%w: %q", ErrPartitionNotFound, name)
}

// Config is the decoded LMFS band configuration block (band-relative
// block 0).
type Config struct {
	BandBlock uint32 // absolute block of the band's block 0
	BandSize  uint32 // blocks

	Version    uint32
	Checkword  uint32
	PutBase    uint32
	PutSize    uint32
	RootMap    []extent.Extent
}

// Load reads and validates the band configuration block for a band
// starting at absolute block bandBlock with the given size in blocks
// (from the partition table entry).
func Load(img *block.Image, bandBlock, bandSize uint32) (Config, error) {
	blk, err := img.ReadBlock(bandBlock)
	if err != nil {
		return Config{}, err
	}
	buf := blk[:]

	version := util.ReadBEUint24(buf, ofsVersion)
	checkword := util.ReadBEUint24(buf, ofsCheckword)
	fsSize := util.ReadBEUint24(buf, ofsFsSize)
	putBase := util.ReadBEUint24(buf, ofsPutBase)
	putSize := util.ReadBEUint24(buf, ofsPutSize)
	rootNblks := util.ReadBEUint16(buf, ofsRootNblks)

	if version != wantVersion {
		return Config{}, fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedVersion, wantVersion, version)
	}
	if checkword != 0 {
		return Config{}, fmt.Errorf("%w: expected 0, got 0x%06X", ErrBadCheckword, checkword)
	}
	if fsSize != bandSize {
		return Config{}, fmt.Errorf("%w: fs_size=0x%06X band_size=0x%06X", ErrSizeMismatch, fsSize, bandSize)
	}
	if rootNblks > maxRootBlocks {
		return Config{}, fmt.Errorf("%w: expected <= %d, got %d", ErrRootMapTooLarge, maxRootBlocks, rootNblks)
	}

	rootMap := make([]extent.Extent, 0, rootNblks)
	for i := uint16(0); i < rootNblks; i++ {
		off := ofsRootMap + int(i)*rootMapEntry
		rootMap = append(rootMap, extent.Extent{
			Block:   util.ReadBEUint24(buf, off),
			BitSize: util.ReadBEUint24(buf, off+3),
		})
	}

	log.Info().
		Uint32("put_base", putBase).
		Uint32("put_size", putSize).
		Int("root_map_entries", len(rootMap)).
		Msg("band: configuration decoded")

	return Config{
		BandBlock: bandBlock,
		BandSize:  bandSize,
		Version:   version,
		Checkword: checkword,
		PutBase:   putBase,
		PutSize:   putSize,
		RootMap:   rootMap,
	}, nil
}

// PUTLocation returns the band-relative block and block count of the
// Page Usage Table, for diagnostic display only. LMFS free-space
// management is read but never interpreted by this driver (spec
// Non-goals).
func (c Config) PUTLocation() (base, sizeBlocks uint32) {
	return c.PutBase, c.PutSize
}
