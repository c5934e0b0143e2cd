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

package lmfsfs

import (
	"errors"
	"fmt"

	"github.com/asig/lmfsfuse/internal/lmfsdir"
	"github.com/asig/lmfsfuse/internal/resolve"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrNotADirectory = errors.New("lmfsfs: not a directory")
	ErrIsADirectory  = errors.New("lmfsfs: is a directory")
)

// Dirent is one entry returned by ReadDir. Stat is unset for the
// synthetic "." and ".." entries, matching the spec's "emit with no
// stat" requirement.
type Dirent struct {
	Name    string
	HasStat bool
	Stat    StatBuf
}

// Options configures optional, additive behavior of the FSAdapter.
type Options struct {
	// Charset, when non-nil, replaces the default bit-7-clear/CR-to-LF
	// translation for CHARACTERS-tagged reads with a full 8-bit
	// Lisp-charset decode. This is an addition on top of the spec's
	// wire default, selected by the "-lisp-charset" mount flag; it does
	// not change whether translation happens, only the table used.
	Charset *charmap.Charmap
}

// FSAdapter implements getattr/readdir/open/read against a resolved
// LMFS band. It holds no open-file state: per the spec, handles are
// symbolic and every operation re-resolves its path.
type FSAdapter struct {
	resolver *resolve.Resolver
	charset  *charmap.Charmap
}

func New(r *resolve.Resolver, opts Options) *FSAdapter {
	return &FSAdapter{resolver: r, charset: opts.Charset}
}

// GetAttr resolves path and returns its stat information.
func (fs *FSAdapter) GetAttr(path string) (StatBuf, error) {
	e, err := fs.resolver.Resolve(path)
	if err != nil {
		return StatBuf{}, err
	}
	return statFromEntry(e), nil
}

// ReadDir resolves path, requires it to be a directory, and returns
// its entries in on-disk order, with synthetic "." and ".." entries
// prepended.
func (fs *FSAdapter) ReadDir(path string) ([]Dirent, error) {
	e, err := fs.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if !e.IsDirectory() {
		return nil, fmt.Errorf("%w: %q", ErrNotADirectory, path)
	}

	children, err := fs.resolver.LoadChildren(e)
	if err != nil {
		return nil, err
	}

	out := make([]Dirent, 0, len(children)+2)
	out = append(out, Dirent{Name: "."}, Dirent{Name: ".."})
	for _, c := range children {
		out = append(out, Dirent{
			Name:    displayName(c),
			HasStat: true,
			Stat:    statFromEntry(c),
		})
	}
	log.Debug().Str("path", path).Int("entries", len(children)).Msg("lmfsfs: readdir")
	return out, nil
}

// Open resolves path and rejects directories. Successful opens carry
// no state: the returned handle is the path itself, re-resolved on
// every Read.
func (fs *FSAdapter) Open(path string) error {
	e, err := fs.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if e.IsDirectory() {
		return fmt.Errorf("%w: %q", ErrIsADirectory, path)
	}
	return nil
}

// Read resolves path and returns up to size bytes starting at offset,
// walking the entry's extent map and applying CHARACTERS translation
// when the attribute bit is set.
func (fs *FSAdapter) Read(path string, offset int64, size int) ([]byte, error) {
	e, err := fs.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if e.IsDirectory() {
		return nil, fmt.Errorf("%w: %q", ErrIsADirectory, path)
	}
	if offset < 0 || offset >= int64(e.TotalBytes) {
		return nil, nil
	}

	out := readExtents(fs.resolver, e, offset, size)

	if e.Attributes.Has(lmfsdir.AttrCharacters) {
		if fs.charset != nil {
			out = translateWithCharset(out, fs.charset)
		} else {
			translateCharacters(out)
		}
	}
	return out, nil
}
