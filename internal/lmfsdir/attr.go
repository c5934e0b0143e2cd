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

// Attr holds the bit-or of a directory entry's attribute flags.
type Attr uint16

const (
	AttrDontDelete  Attr = 0x0001
	AttrClosed      Attr = 0x0002
	AttrDeleted     Attr = 0x0004
	AttrDumped      Attr = 0x0008
	AttrDontReap    Attr = 0x0010
	AttrCharacters  Attr = 0x0020
	AttrDirectory   Attr = 0x0040
	AttrHeaderBlock Attr = 0x4000
)

func (a Attr) Has(bit Attr) bool {
	return a&bit != 0
}

// RootAttributes is the attribute value synthesized for the band's
// root directory entry: HEADER_BLOCK | DIRECTORY | CLOSED, exactly as
// the original lmfs_getent() hardcodes 0x4042 for the root.
const RootAttributes = AttrHeaderBlock | AttrDirectory | AttrClosed
