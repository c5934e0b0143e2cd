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

package util

import (
	"fmt"
	"unicode"
)

func hexLine(data []byte, length int) string {
	hex := ""
	ascii := ""
	for i := 0; i < length; i++ {
		if i < len(data) {
			hex += fmt.Sprintf("%02x  ", data[i])
			if unicode.IsPrint(rune(data[i])) {
				ascii += fmt.Sprintf("%c", data[i])
			} else {
				ascii += "."
			}
		} else {
			hex += "    "
			ascii += " "
		}
	}
	return hex + "| " + ascii
}

// HexDump renders length bytes starting at start as a hex/ASCII dump,
// used by the label and lmfsdir decoders to show context around a
// failed magic number or header id check.
func HexDump(data []byte, start, len int) string {

	res := ""
	for len > 16 {
		res += fmt.Sprintf("%08x: %s\n", start, hexLine(data[start:], 16))
		start += 16
		len -= 16
	}
	if len > 0 {
		res += fmt.Sprintf("%08x: %s\n", start, hexLine(data[start:], len))
	}
	return res
}
