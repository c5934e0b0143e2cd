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
	"github.com/asig/lmfsfuse/internal/band"
	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/lmfsdir"
)

// syntheticRoot builds the DirectoryEntry that represents "/": it has
// no on-disk entry of its own, so its id_string and cdate are lifted
// from the root directory header rather than from a directory body.
func syntheticRoot(img *block.Image, cfg band.Config) (lmfsdir.Entry, error) {
	h, err := lmfsdir.LoadHeader(img, cfg.BandBlock, cfg.BandSize, cfg.RootMap)
	if err != nil {
		return lmfsdir.Entry{}, err
	}
	return lmfsdir.Entry{
		Name:       h.IDString,
		Type:       "DIRECTORY",
		Version:    1,
		CDate:      h.CDate,
		Map:        cfg.RootMap,
		Attributes: lmfsdir.RootAttributes,
	}, nil
}
