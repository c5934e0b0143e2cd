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

// Package resolve implements LMFS path resolution: splitting a POSIX
// path into directory-entry components, matching those components
// against decoded directory bodies with LMFS's case-insensitive,
// versioned-file semantics, and recursively descending from the band's
// synthetic root.
package resolve

import (
	"strconv"
	"strings"
)

// Component is one parsed path segment: name, optional type, optional
// explicit version.
type Component struct {
	Name        string
	Type        string
	HasType     bool
	Version     uint32
	HasVersion  bool
}

// ParseComponent splits a single path segment of the form
// "name[.type][#version]" per the LMFS naming convention: a trailing
// "#" introduces a decimal version, and a "." before any "#" separates
// name from type.
func ParseComponent(token string) Component {
	var c Component

	rest := token
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		if v, err := strconv.ParseUint(rest[i+1:], 10, 32); err == nil {
			c.Version = uint32(v)
			c.HasVersion = true
		}
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '.'); i >= 0 {
		c.Name = rest[:i]
		c.Type = rest[i+1:]
		c.HasType = true
	} else {
		c.Name = rest
	}

	return c
}

// SplitPath breaks a POSIX-style path into its non-empty components,
// so that "/", "", and "//a//b/" all normalize sensibly.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func asciiEqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
