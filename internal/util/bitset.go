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

// BitSet is used by the resolver as a visited-block guard: directory
// submaps point at blocks by band-relative index, and a corrupt or
// maliciously crafted image could make a directory's submap chain
// reference itself, sending a naive recursive decode into an infinite
// loop. The guard is sized to the band and cleared per top-level
// operation.
type BitSet []uint64

func NewBitSet(size uint32) BitSet {
	return make(BitSet, (size+63)/64)
}

func (b BitSet) Set(bit uint32) {
	b[bit/64] |= 1 << (bit % 64)
}

func (b BitSet) Clear(bit uint32) {
	b[bit/64] &^= 1 << (bit % 64)
}

func (b BitSet) Test(bit uint32) bool {
	return b[bit/64]&(1<<(bit%64)) != 0
}

// TestAndSet reports whether bit was already set, then sets it. Used
// to both check and mark a visited directory block in one step.
func (b BitSet) TestAndSet(bit uint32) bool {
	was := b.Test(bit)
	b.Set(bit)
	return was
}
