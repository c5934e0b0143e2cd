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

// Package label decodes the two-level Lambda disk label: the True
// Mini Label at block 10, which only points at the Main Label, and
// the Main Label itself, which carries the partition table.
package label

import (
	"errors"
	"fmt"

	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	trueMiniLabelBlock = 10

	miniMagic = 0x494E494D // "MINI", little-endian over the first 4 bytes
	lablMagic = 0x4C42414C // "LABL"

	ofsTMLLabelBlock = 8

	ofsMagic       = 0
	ofsPartitions  = 552
	ofsPartsize    = 556
	ofsPartEntries = 560

	partitionEntrySize = 28
	maxPartitions      = 29
	wantPartsize       = 7 // words (32-bit) per partition entry
)

var (
	ErrMagicMismatch    = errors.New("label: magic number mismatch")
	ErrBadPartitionSize = errors.New("label: unexpected partition entry size")
)

// Partition is one entry of the Main Label's partition table.
type Partition struct {
	Name    [4]byte
	Start   uint32 // blocks, relative to label_block
	Size    uint32 // blocks
	Comment [16]byte
}

func (p Partition) NameString() string {
	return util.StringFromBytes(p.Name[:])
}

// Geometry carries the one piece of the label that later stages
// need: where the label itself lives (so partition offsets can be
// turned into absolute block numbers) and nothing else — LMFS bands
// are located purely via the partition table.
type Geometry struct {
	LabelBlock uint32
}

// Load reads the True Mini Label, follows it to the Main Label, and
// returns the label geometry plus the (at most 29) meaningful
// partition table entries.
func Load(img *block.Image) (Geometry, []Partition, error) {
	tml, err := img.ReadBlock(trueMiniLabelBlock)
	if err != nil {
		return Geometry{}, nil, err
	}
	magic := util.ReadLEUint32(tml[:], ofsMagic)
	if magic != miniMagic {
		return Geometry{}, nil, fmt.Errorf("%w: True Mini Label: expected 0x%08X, got 0x%08X\n%s",
			ErrMagicMismatch, miniMagic, magic, util.HexDump(tml[:], 0, 16))
	}
	labelBlock := util.ReadLEUint32(tml[:], ofsTMLLabelBlock)
	log.Debug().Uint32("label_block", labelBlock).Msg("label: True Mini Label found")

	main, err := img.ReadBlock(labelBlock)
	if err != nil {
		return Geometry{}, nil, err
	}
	magic = util.ReadLEUint32(main[:], ofsMagic)
	if magic != lablMagic {
		return Geometry{}, nil, fmt.Errorf("%w: Main Label: expected 0x%08X, got 0x%08X\n%s",
			ErrMagicMismatch, lablMagic, magic, util.HexDump(main[:], 0, 16))
	}
	partsize := util.ReadLEUint32(main[:], ofsPartsize)
	if partsize != wantPartsize {
		return Geometry{}, nil, fmt.Errorf("%w: expected %d, got %d", ErrBadPartitionSize, wantPartsize, partsize)
	}

	count := util.ReadLEUint32(main[:], ofsPartitions)
	if count > maxPartitions {
		count = maxPartitions
	}

	partitions := make([]Partition, 0, count)
	for i := uint32(0); i < count; i++ {
		off := ofsPartEntries + int(i)*partitionEntrySize
		var p Partition
		copy(p.Name[:], main[off:off+4])
		p.Start = util.ReadLEUint32(main[:], off+4)
		p.Size = util.ReadLEUint32(main[:], off+8)
		copy(p.Comment[:], main[off+12:off+28])
		partitions = append(partitions, p)
	}
	log.Debug().Int("partitions", len(partitions)).Msg("label: Main Label decoded")

	return Geometry{LabelBlock: labelBlock}, partitions, nil
}
