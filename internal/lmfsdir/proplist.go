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
	"fmt"

	"github.com/asig/lmfsfuse/internal/util"
)

var ErrUnsupportedOpcode = errors.New("lmfsdir: unsupported proplist opcode")

const (
	opFalse   = 0
	opTrue    = 1
	opInteger = 4
	opString  = 5
)

// PropValue is one of the four value shapes a directory-entry property
// can carry.
type PropValue struct {
	Opcode  uint8
	Bool    bool
	Integer uint32
	String  string
}

// Prop is one name/value pair in a directory entry's property list.
type Prop struct {
	Name  string
	Value PropValue
}

// parsePropList reads propListLen items starting at offset, returning
// the decoded items and the offset just past the list.
func parsePropList(b []byte, offset int, propListLen uint8) ([]Prop, int, error) {
	props := make([]Prop, 0, propListLen)
	for i := uint8(0); i < propListLen; i++ {
		nameLen := int(b[offset])
		offset++
		name := string(b[offset : offset+nameLen])
		offset += nameLen

		opcode := b[offset]
		offset++

		var v PropValue
		v.Opcode = opcode
		switch opcode {
		case opFalse:
			v.Bool = false
		case opTrue:
			v.Bool = true
		case opInteger:
			v.Integer = util.ReadBEUint24(b, offset)
			offset += 3
		case opString:
			strLen := int(b[offset])
			offset++
			v.String = string(b[offset : offset+strLen])
			offset += strLen
		default:
			return nil, offset, fmt.Errorf("%w: opcode %d", ErrUnsupportedOpcode, opcode)
		}
		props = append(props, Prop{Name: name, Value: v})
	}
	return props, offset, nil
}
