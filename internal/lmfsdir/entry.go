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
	"fmt"

	"github.com/asig/lmfsfuse/internal/extent"
	"github.com/asig/lmfsfuse/internal/util"
)

// returnChar is the Lisp Machine's extended RETURN character, used as
// the field terminator for name/type/author in a directory entry.
const returnChar = 0x8D

// Entry is one file or subdirectory record from a directory body.
type Entry struct {
	Name       string
	Type       string
	Version    uint32
	ByteSize   uint8
	Author     string
	CDate      uint32
	Map        []extent.Extent
	TotalBytes uint32
	Attributes Attr
	Props      []Prop
}

func (e Entry) IsDirectory() bool {
	return e.Attributes.Has(AttrDirectory)
}

// ParseEntry decodes a single directory entry starting at offset in
// body, returning the entry and the offset of the next entry.
func ParseEntry(body []byte, offset int) (Entry, int, error) {
	var e Entry
	var err error

	e.Name, offset, err = util.SplitAtByte(body, offset, returnChar)
	if err != nil {
		return Entry{}, offset, fmt.Errorf("lmfsdir: entry name: %w", err)
	}
	e.Type, offset, err = util.SplitAtByte(body, offset, returnChar)
	if err != nil {
		return Entry{}, offset, fmt.Errorf("lmfsdir: entry type: %w", err)
	}

	e.Version = util.ReadBEUint24(body, offset)
	offset += 3

	e.ByteSize = body[offset]
	offset++

	e.Author, offset, err = util.SplitAtByte(body, offset, returnChar)
	if err != nil {
		return Entry{}, offset, fmt.Errorf("lmfsdir: entry author: %w", err)
	}

	e.CDate = util.ReadBEUint32(body, offset)
	offset += 4

	mapSize := util.ReadBEUint16(body, offset)
	offset += 2

	e.Map = make([]extent.Extent, 0, mapSize)
	for i := uint16(0); i < mapSize; i++ {
		off := offset + int(i)*6
		ext := extent.Extent{
			Block:   util.ReadBEUint24(body, off),
			BitSize: util.ReadBEUint24(body, off+3),
		}
		e.Map = append(e.Map, ext)
		e.TotalBytes += ext.ByteSize()
	}
	offset += int(mapSize) * 6

	e.Attributes = Attr(util.ReadBEUint16(body, offset))
	offset += 2

	propListLen := body[offset]
	offset++

	e.Props, offset, err = parsePropList(body, offset, propListLen)
	if err != nil {
		return Entry{}, offset, err
	}

	return e, offset, nil
}

// ParseEntries walks a directory body end to end, parsing entries
// until the byte index equals the body length.
func ParseEntries(body []byte) ([]Entry, error) {
	var entries []Entry
	offset := 0
	for offset < len(body) {
		e, next, err := ParseEntry(body, offset)
		if err != nil {
			return nil, fmt.Errorf("lmfsdir: entry at offset %d: %w", offset, err)
		}
		if next <= offset {
			return nil, fmt.Errorf("lmfsdir: entry at offset %d did not advance", offset)
		}
		entries = append(entries, e)
		offset = next
	}
	return entries, nil
}
