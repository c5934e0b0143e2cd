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

// Package lmfsdir decodes LMFS directory headers, submaps and
// directory bodies into directory-entry records. This is the core of
// the decoder: it is the only place that has to reconcile the two
// directory-header versions, the optional leading submap, and the
// little-endian/big-endian split between header scalars and
// directory-entry scalars.
package lmfsdir

import (
	"errors"
	"fmt"

	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/extent"
	"github.com/asig/lmfsfuse/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	headerID = "_THIS_IS_A_DIRECTORY_HEADER_"

	ofsHeaderID   = 0
	ofsHdrVersion = 28
	ofsIDString   = 32
	idStringLen   = 40
	ofsCDate      = 72
	ofsSelf       = 76
	ofsFlag       = 80
	ofsSubmap0    = 0x54

	submapEntrySize = 6 // 3-byte BE block + 3-byte BE bit_size
)

var (
	ErrBadHeaderID    = errors.New("lmfsdir: bad directory header id")
	ErrUnknownVersion = errors.New("lmfsdir: unknown directory header version")
	ErrIllegalFlag    = errors.New("lmfsdir: illegal directory header flag")
)

// Header is the decoded form of a directory header plus its data
// submap (the extent list describing where the directory body lives).
// A leading submap present when Flag == 1 is consumed during decode
// and not retained; nothing downstream needs it.
type Header struct {
	Version    uint32
	IDString   string
	CDate      uint32
	Self       uint32
	Flag       uint32
	DataSubmap []extent.Extent
}

// decodeSubmapAt reads a submap table (a u16 BE count followed by
// count 6-byte entries) starting at offset, returning the entries and
// the offset just past the table.
func decodeSubmapAt(buf []byte, offset int) ([]extent.Extent, int, error) {
	count := util.ReadBEUint16(buf, offset)
	offset += 2
	entries := make([]extent.Extent, 0, count)
	for i := uint16(0); i < count; i++ {
		off := offset + int(i)*submapEntrySize
		entries = append(entries, extent.Extent{
			Block:   util.ReadBEUint24(buf, off),
			BitSize: util.ReadBEUint24(buf, off+3),
		})
	}
	return entries, offset + int(count)*submapEntrySize, nil
}

// DecodeHeader parses a directory header from a fully assembled
// header buffer (the concatenation of the header's own extents).
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < ofsSubmap0 || string(buf[ofsHeaderID:ofsHeaderID+len(headerID)]) != headerID {
		return Header{}, fmt.Errorf("%w: got %q\n%s", ErrBadHeaderID,
			safeHeaderPrefix(buf), util.HexDump(buf, 0, 32))
	}

	h := Header{
		Version:  util.ReadLEUint32(buf, ofsHdrVersion),
		IDString: util.StringFromBytes(buf[ofsIDString : ofsIDString+idStringLen]),
		CDate:    util.ReadLEUint32(buf, ofsCDate),
		Self:     util.ReadLEUint32(buf, ofsSelf),
		Flag:     util.ReadLEUint32(buf, ofsFlag),
	}
	if h.Version != 1 && h.Version != 2 {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownVersion, h.Version)
	}

	dataSubmapOffset := ofsSubmap0
	switch h.Flag {
	case 0:
		// single submap at ofsSubmap0 is the data submap
	case 1:
		_, leadingEnd, err := decodeSubmapAt(buf, ofsSubmap0)
		if err != nil {
			return Header{}, err
		}
		if h.Version >= 2 {
			leadingEnd += 2
		}
		dataSubmapOffset = leadingEnd
		log.Debug().Int("skip_bytes", dataSubmapOffset-ofsSubmap0).Msg("lmfsdir: skipped leading submap")
	default:
		return Header{}, fmt.Errorf("%w: %d", ErrIllegalFlag, h.Flag)
	}

	dataSubmap, _, err := decodeSubmapAt(buf, dataSubmapOffset)
	if err != nil {
		return Header{}, err
	}
	h.DataSubmap = dataSubmap
	return h, nil
}

func safeHeaderPrefix(buf []byte) string {
	n := len(headerID)
	if len(buf) < n {
		n = len(buf)
	}
	return string(buf[:n])
}

// LoadHeader reads the extents that hold a directory header and
// decodes it.
func LoadHeader(img *block.Image, bandBlock, bandSize uint32, headerExtents []extent.Extent) (Header, error) {
	buf, err := extent.ReadAll(img, bandBlock, bandSize, headerExtents)
	if err != nil {
		return Header{}, err
	}
	return DecodeHeader(buf)
}

// LoadBody reads a directory's body bytes via its data submap.
func LoadBody(img *block.Image, bandBlock, bandSize uint32, h Header) ([]byte, error) {
	return extent.ReadAll(img, bandBlock, bandSize, h.DataSubmap)
}
