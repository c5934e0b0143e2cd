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

package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/asig/lmfsfuse/internal/band"
	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/extent"
	"github.com/asig/lmfsfuse/internal/lmfsdir"
)

const blockSize = block.Size

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

func putBE32(b []byte, offset int, v uint32) {
	b[offset] = byte(v >> 24)
	b[offset+1] = byte(v >> 16)
	b[offset+2] = byte(v >> 8)
	b[offset+3] = byte(v)
}

// buildHeaderBlock lays out a version-1, flag-0 directory header (id
// string + submap table) inside one full 1024-byte block.
func buildHeaderBlock(idString string, cdate, self uint32, dataBlock, dataByteLen uint32) []byte {
	buf := make([]byte, blockSize)
	copy(buf[0:], "_THIS_IS_A_DIRECTORY_HEADER_")
	putLE32(buf, 28, 1) // version
	copy(buf[32:], idString)
	putLE32(buf, 72, cdate)
	putLE32(buf, 76, self)
	putLE32(buf, 80, 0) // flag

	putBE16(buf, 84, 1) // submap count
	putBE24(buf, 86, dataBlock)
	putBE24(buf, 89, dataByteLen*8)
	return buf
}

type testEntry struct {
	name, typ, author string
	version            uint32
	cdate              uint32
	attrs              lmfsdir.Attr
	mapBlock           uint32
	mapByteLen         uint32
}

func buildEntryBytes(e testEntry) []byte {
	var buf []byte
	buf = append(buf, []byte(e.name)...)
	buf = append(buf, 0x8D)
	buf = append(buf, []byte(e.typ)...)
	buf = append(buf, 0x8D)

	ver := make([]byte, 3)
	putBE24(ver, 0, e.version)
	buf = append(buf, ver...)

	buf = append(buf, 0) // byte_size, unused by resolve

	buf = append(buf, []byte(e.author)...)
	buf = append(buf, 0x8D)

	cd := make([]byte, 4)
	putBE32(cd, 0, e.cdate)
	buf = append(buf, cd...)

	if e.mapByteLen == 0 {
		buf = append(buf, 0, 0) // empty map
	} else {
		buf = append(buf, 0, 1)
		ent := make([]byte, 6)
		putBE24(ent, 0, e.mapBlock)
		putBE24(ent, 3, e.mapByteLen*8)
		buf = append(buf, ent...)
	}

	at := make([]byte, 2)
	putBE16(at, 0, uint16(e.attrs))
	buf = append(buf, at...)

	buf = append(buf, 0) // proplist_len
	return buf
}

// buildTestImage lays out a two-level LMFS directory tree:
//
//	block 0: root header -> body at block 1
//	block 1: root body: FOO.LISP#3 (CHARACTERS), BAR.LISP#{1,2,7}, SUB (directory)
//	block 2: SUB header -> body at block 3
//	block 3: SUB body: BAZ.TEXT#1
func buildTestImage(t *testing.T) (*block.Image, band.Config) {
	t.Helper()

	const bandBlock = 0
	const bandSize = 64

	rootBody := []byte{}
	rootBody = append(rootBody, buildEntryBytes(testEntry{
		name: "FOO", typ: "LISP", author: "LMI", version: 3,
		cdate: 2786122897, attrs: lmfsdir.AttrCharacters,
		mapBlock: 10, mapByteLen: 17028,
	})...)
	rootBody = append(rootBody, buildEntryBytes(testEntry{
		name: "BAR", typ: "LISP", author: "LMI", version: 1, cdate: 1,
	})...)
	rootBody = append(rootBody, buildEntryBytes(testEntry{
		name: "BAR", typ: "LISP", author: "LMI", version: 2, cdate: 1,
	})...)
	rootBody = append(rootBody, buildEntryBytes(testEntry{
		name: "BAR", typ: "LISP", author: "LMI", version: 7, cdate: 1,
	})...)
	rootBody = append(rootBody, buildEntryBytes(testEntry{
		name: "SUB", typ: "DIRECTORY", author: "LMI", version: 1,
		attrs: lmfsdir.AttrDirectory, mapBlock: 2, mapByteLen: blockSize,
	})...)

	subBody := buildEntryBytes(testEntry{
		name: "BAZ", typ: "TEXT", author: "LMI", version: 1, cdate: 1,
	})

	rootHeader := buildHeaderBlock("LMFS-ROOT", 2786122897, 1, 1, uint32(len(rootBody)))
	subHeader := buildHeaderBlock("SUB", 1, 2, 3, uint32(len(subBody)))

	image := make([]byte, bandSize*blockSize)
	copy(image[0*blockSize:], rootHeader)
	copy(image[1*blockSize:], rootBody)
	copy(image[2*blockSize:], subHeader)
	copy(image[3*blockSize:], subBody)

	path := filepath.Join(t.TempDir(), "disk.img")
	if err := os.WriteFile(path, image, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	img, err := block.Open(path)
	if err != nil {
		t.Fatalf("block.Open: %v", err)
	}
	t.Cleanup(func() { img.Close() })

	cfg := band.Config{
		BandBlock: bandBlock,
		BandSize:  bandSize,
		RootMap:   []extent.Extent{{Block: 0, BitSize: blockSize * 8}},
	}
	return img, cfg
}

func TestResolveRoot(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	root, err := r.Resolve("/")
	if err != nil {
		t.Fatalf("Resolve(/): %v", err)
	}
	if root.Name != "LMFS-ROOT" || root.CDate != 2786122897 {
		t.Fatalf("root = %+v", root)
	}
	if root.Attributes != lmfsdir.RootAttributes {
		t.Fatalf("root attributes = %#x, want %#x", root.Attributes, lmfsdir.RootAttributes)
	}
}

func TestResolveExplicitTypeAndVersion(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	e, err := r.Resolve("/FOO.LISP#3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Name != "FOO" || e.Version != 3 || e.TotalBytes != 17028 {
		t.Fatalf("e = %+v", e)
	}
	if !e.Attributes.Has(lmfsdir.AttrCharacters) {
		t.Fatalf("expected CHARACTERS attribute")
	}
}

func TestResolveHighestVersionWhenOmitted(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	e, err := r.Resolve("/BAR.LISP")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Version != 7 {
		t.Fatalf("Version = %d, want 7 (highest)", e.Version)
	}
}

func TestResolveExactVersionMatch(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	e, err := r.Resolve("/BAR.LISP#2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Version != 2 {
		t.Fatalf("Version = %d, want 2", e.Version)
	}
}

func TestResolveMissingVersionNotFound(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	_, err := r.Resolve("/BAR.LISP#5")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve: got %v, want ErrNotFound", err)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	e, err := r.Resolve("/foo.lisp#3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Name != "FOO" {
		t.Fatalf("e = %+v", e)
	}
}

func TestResolveNestedDirectory(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	e, err := r.Resolve("/SUB/BAZ.TEXT#1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Name != "BAZ" || e.Type != "TEXT" {
		t.Fatalf("e = %+v", e)
	}

	dir, err := r.Resolve("/SUB")
	if err != nil {
		t.Fatalf("Resolve(/SUB): %v", err)
	}
	if !dir.IsDirectory() {
		t.Fatalf("SUB should resolve as a directory")
	}
}

func TestResolveNotFound(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	if _, err := r.Resolve("/NOPE.LISP#1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve: got %v, want ErrNotFound", err)
	}
}

func TestLoadChildrenOrderPreserved(t *testing.T) {
	img, cfg := buildTestImage(t)
	r := New(img, cfg)

	root, err := r.Resolve("/")
	if err != nil {
		t.Fatalf("Resolve(/): %v", err)
	}
	children, err := r.LoadChildren(root)
	if err != nil {
		t.Fatalf("LoadChildren: %v", err)
	}
	want := []string{"FOO", "BAR", "BAR", "BAR", "SUB"}
	if len(children) != len(want) {
		t.Fatalf("children = %+v", children)
	}
	for i, name := range want {
		if children[i].Name != name {
			t.Fatalf("children[%d].Name = %q, want %q", i, children[i].Name, name)
		}
	}
}

func TestParseComponent(t *testing.T) {
	c := ParseComponent("FOO.LISP#3")
	if c.Name != "FOO" || c.Type != "LISP" || !c.HasType || c.Version != 3 || !c.HasVersion {
		t.Fatalf("c = %+v", c)
	}

	c = ParseComponent("BAR")
	if c.Name != "BAR" || c.HasType || c.HasVersion {
		t.Fatalf("c = %+v", c)
	}

	c = ParseComponent("BAR.LISP")
	if c.Name != "BAR" || c.Type != "LISP" || !c.HasType || c.HasVersion {
		t.Fatalf("c = %+v", c)
	}
}
