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

package lmfsdir

import (
	"errors"
	"testing"
)

func putLE32(b []byte, offset int, v uint32) {
	b[offset] = byte(v)
	b[offset+1] = byte(v >> 8)
	b[offset+2] = byte(v >> 16)
	b[offset+3] = byte(v >> 24)
}

func putBE16(b []byte, offset int, v uint16) {
	b[offset] = byte(v >> 8)
	b[offset+1] = byte(v)
}

func putBE24(b []byte, offset int, v uint32) {
	b[offset] = byte(v >> 16)
	b[offset+1] = byte(v >> 8)
	b[offset+2] = byte(v)
}

// appendSubmap appends a u16-BE count followed by count 6-byte
// big-endian (block, bit_size) entries.
func appendSubmap(buf []byte, entries [][2]uint32) []byte {
	out := make([]byte, 2)
	putBE16(out, 0, uint16(len(entries)))
	for _, e := range entries {
		ent := make([]byte, 6)
		putBE24(ent, 0, e[0])
		putBE24(ent, 3, e[1])
		out = append(out, ent...)
	}
	return append(buf, out...)
}

func baseHeader(version, flag uint32) []byte {
	buf := make([]byte, ofsSubmap0)
	copy(buf[ofsHeaderID:], headerID)
	putLE32(buf, ofsHdrVersion, version)
	copy(buf[ofsIDString:], "LMFS-ROOT")
	putLE32(buf, ofsCDate, 2786122897)
	putLE32(buf, ofsSelf, 1)
	putLE32(buf, ofsFlag, flag)
	return buf
}

func TestDecodeHeaderFlagZero(t *testing.T) {
	buf := baseHeader(1, 0)
	buf = appendSubmap(buf, [][2]uint32{{100, 8192}, {200, 4096}})

	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Version != 1 || h.Flag != 0 {
		t.Fatalf("h = %+v", h)
	}
	if len(h.DataSubmap) != 2 || h.DataSubmap[0].Block != 100 || h.DataSubmap[1].BitSize != 4096 {
		t.Fatalf("DataSubmap = %+v", h.DataSubmap)
	}
}

func TestDecodeHeaderFlagOneVersionOne(t *testing.T) {
	buf := baseHeader(1, 1)
	// leading submap: one entry, ignored by the decoder
	buf = appendSubmap(buf, [][2]uint32{{1, 8}})
	// data submap: one entry
	buf = appendSubmap(buf, [][2]uint32{{55, 16}})

	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if len(h.DataSubmap) != 1 || h.DataSubmap[0].Block != 55 || h.DataSubmap[0].BitSize != 16 {
		t.Fatalf("DataSubmap = %+v", h.DataSubmap)
	}
}

func TestDecodeHeaderFlagOneVersionTwo(t *testing.T) {
	buf := baseHeader(2, 1)
	buf = appendSubmap(buf, [][2]uint32{{1, 8}})
	buf = append(buf, 0xAA, 0xBB) // version>=2 tail skipped after leading submap
	buf = appendSubmap(buf, [][2]uint32{{77, 24}})

	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if len(h.DataSubmap) != 1 || h.DataSubmap[0].Block != 77 {
		t.Fatalf("DataSubmap = %+v", h.DataSubmap)
	}
}

func TestDecodeHeaderBadID(t *testing.T) {
	buf := baseHeader(1, 0)
	buf[0] = 'X'
	buf = appendSubmap(buf, nil)

	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrBadHeaderID) {
		t.Fatalf("DecodeHeader: got %v, want ErrBadHeaderID", err)
	}
}

func TestDecodeHeaderBadFlag(t *testing.T) {
	buf := baseHeader(1, 2)
	buf = appendSubmap(buf, nil)

	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrIllegalFlag) {
		t.Fatalf("DecodeHeader: got %v, want ErrIllegalFlag", err)
	}
}

func TestDecodeHeaderUnknownVersion(t *testing.T) {
	buf := baseHeader(3, 0)
	buf = appendSubmap(buf, nil)

	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("DecodeHeader: got %v, want ErrUnknownVersion", err)
	}
}
