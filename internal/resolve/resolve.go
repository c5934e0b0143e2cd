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
	"fmt"

	"github.com/asig/lmfsfuse/internal/band"
	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/lmfsdir"
	"github.com/asig/lmfsfuse/internal/util"
)

// ErrNotFound is returned when a path does not resolve to any
// directory entry.
var ErrNotFound = errors.New("resolve: no such entry")

const directoryType = "DIRECTORY"

// Resolver walks a decoded LMFS band's directory tree to answer path
// lookups. It holds no state beyond the band's location; every call
// re-reads directory bodies from the image, matching the spec's
// "handles are symbolic" requirement for the layers built on top of it.
type Resolver struct {
	img *block.Image
	cfg band.Config
}

// New creates a Resolver bound to an already-validated band config.
func New(img *block.Image, cfg band.Config) *Resolver {
	return &Resolver{img: img, cfg: cfg}
}

// Image returns the resolver's underlying disk image, for callers
// (the FSAdapter) that need to read file content directly once a
// resolve has located an entry's extent map.
func (r *Resolver) Image() *block.Image {
	return r.img
}

// Config returns the resolver's band configuration.
func (r *Resolver) Config() band.Config {
	return r.cfg
}

// Resolve walks path from the band's synthetic root and returns the
// matching directory entry.
func (r *Resolver) Resolve(path string) (lmfsdir.Entry, error) {
	root, err := syntheticRoot(r.img, r.cfg)
	if err != nil {
		return lmfsdir.Entry{}, err
	}

	components := SplitPath(path)
	if len(components) == 0 {
		return root, nil
	}

	visited := util.NewBitSet(r.cfg.BandSize)
	current := root
	for i, token := range components {
		c := ParseComponent(token)
		last := i == len(components)-1

		children, err := r.loadChildren(current, visited)
		if err != nil {
			return lmfsdir.Entry{}, err
		}

		match, ok := matchComponent(children, c, last)
		if !ok {
			return lmfsdir.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		current = match
	}
	return current, nil
}

// LoadChildren decodes and returns the directory entries contained in
// dir's body. Callers (readdir) are expected to have already verified
// dir carries the DIRECTORY attribute.
func (r *Resolver) LoadChildren(dir lmfsdir.Entry) ([]lmfsdir.Entry, error) {
	return r.loadChildren(dir, util.NewBitSet(r.cfg.BandSize))
}

// loadChildren reads dir's header and body and parses its entries.
// visited guards against a directory whose submap cyclically points
// back at a header block already on the current descent path — a
// corrupt or adversarial image must not hang the resolver.
func (r *Resolver) loadChildren(dir lmfsdir.Entry, visited util.BitSet) ([]lmfsdir.Entry, error) {
	h, err := lmfsdir.LoadHeader(r.img, r.cfg.BandBlock, r.cfg.BandSize, dir.Map)
	if err != nil {
		return nil, err
	}
	if visited.TestAndSet(h.Self) {
		return nil, fmt.Errorf("resolve: cyclic directory reference at header block %d", h.Self)
	}

	body, err := lmfsdir.LoadBody(r.img, r.cfg.BandBlock, r.cfg.BandSize, h)
	if err != nil {
		return nil, err
	}
	return lmfsdir.ParseEntries(body)
}

// matchComponent applies the spec's intermediate-vs-terminal matching
// rules within one directory's entry list.
func matchComponent(entries []lmfsdir.Entry, c Component, terminal bool) (lmfsdir.Entry, bool) {
	if !terminal {
		for _, e := range entries {
			if !isDirectoryTyped(e) {
				continue
			}
			if asciiEqualFold(e.Name, c.Name) {
				return e, true
			}
		}
		return lmfsdir.Entry{}, false
	}

	switch {
	case c.HasType && c.HasVersion:
		for _, e := range entries {
			if asciiEqualFold(e.Name, c.Name) && asciiEqualFold(e.Type, c.Type) && e.Version == c.Version {
				return e, true
			}
		}
		return lmfsdir.Entry{}, false

	case c.HasType:
		var best lmfsdir.Entry
		found := false
		for _, e := range entries {
			if asciiEqualFold(e.Name, c.Name) && asciiEqualFold(e.Type, c.Type) {
				if !found || e.Version > best.Version {
					best = e
					found = true
				}
			}
		}
		return best, found

	default:
		for _, e := range entries {
			if !isDirectoryTyped(e) {
				continue
			}
			if asciiEqualFold(e.Name, c.Name) {
				return e, true
			}
		}
		return lmfsdir.Entry{}, false
	}
}

// isDirectoryTyped reports whether e is eligible to be treated as a
// directory candidate during intermediate-component matching: either
// it carries no type at all, or its type is the DIRECTORY sentinel.
func isDirectoryTyped(e lmfsdir.Entry) bool {
	return e.Type == "" || asciiEqualFold(e.Type, directoryType)
}
