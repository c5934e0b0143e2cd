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

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	fuselib "bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/text/encoding/charmap"

	"github.com/asig/lmfsfuse/internal/band"
	"github.com/asig/lmfsfuse/internal/block"
	"github.com/asig/lmfsfuse/internal/fuse"
	"github.com/asig/lmfsfuse/internal/label"
	"github.com/asig/lmfsfuse/internal/lmfsfs"
	"github.com/asig/lmfsfuse/internal/resolve"
)

const (
	version     = "v0.1"
	lmfsVersion = 5
)

var (
	flagDisk        = flag.String("disk", "disk.img", "Lambda disk image to read the LMFS band from")
	flagBand        = flag.String("band", "LMFS", "Partition name of the LMFS band to mount")
	flagLispCharset = flag.String("lisp-charset", "", "Optional charmap name (e.g. latin1, cp437) for CHARACTERS-tagged reads, in place of the default bit-7-clear table")
	flagLogLevel    = newLogLevelFlag(zerolog.InfoLevel, "log-level", "Log level (trace, debug, info, warn, error, fatal, panic)")
)

// newLogLevelFlag registers a flag.Value wrapper around zerolog.Level,
// the same pattern the teacher uses for its own "-log-level" flag.
func newLogLevelFlag(value zerolog.Level, name string, usage string) *logLevelFlag {
	p := &logLevelFlag{level: value}
	flag.Var(p, name, usage)
	return p
}

type logLevelFlag struct {
	level zerolog.Level
}

func (f *logLevelFlag) String() string {
	return f.level.String()
}

func (f *logLevelFlag) Set(value string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(value))
	if err != nil {
		return err
	}
	f.level = level
	return nil
}

func (f *logLevelFlag) Get() zerolog.Level {
	return f.level
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <mountpoint>

Flags:
`, os.Args[0])
	pflag.PrintDefaults()
	os.Exit(1)
}

func initLogging(level zerolog.Level, sessionID string) {
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.
		New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    false,
		}).
		With().Timestamp().Caller().Str("session", sessionID).
		Logger()
}

// namedCharsets maps the "-lisp-charset" flag's accepted values onto
// golang.org/x/text/encoding/charmap tables. The default (empty
// value) leaves Options.Charset nil, so lmfsfs falls back to the
// spec's bit-7-clear/CR-to-LF table.
var namedCharsets = map[string]*charmap.Charmap{
	"latin1": charmap.ISO8859_1,
	"cp437":  charmap.CodePage437,
	"cp850":  charmap.CodePage850,
}

func resolveCharset(name string) (*charmap.Charmap, error) {
	if name == "" {
		return nil, nil
	}
	cm, ok := namedCharsets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown -lisp-charset %q", name)
	}
	return cm, nil
}

func main() {
	fmt.Printf("LMFuSe version %s (LMFS version %d)\n", version, lmfsVersion)
	fmt.Printf("Copyright (c) 2025 Andreas Signer <asigner@gmail.com>\n")
	fmt.Printf("https://github.com/asig/lmfsfuse\n")

	flag.Usage = usage
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	sessionID := uuid.NewString()
	initLogging(flagLogLevel.Get(), sessionID)

	if pflag.NArg() != 1 {
		usage()
	}
	mountpoint := pflag.Arg(0)

	charset, err := resolveCharset(*flagLispCharset)
	if err != nil {
		log.Error().Err(err).Msg("invalid -lisp-charset")
		os.Exit(1)
	}

	img, err := block.Open(*flagDisk)
	if err != nil {
		log.Error().Err(err).Msg("can't open disk image")
		os.Exit(1)
	}
	defer img.Close()

	geom, partitions, err := label.Load(img)
	if err != nil {
		log.Error().Err(err).Msg("can't read disk label")
		os.Exit(1)
	}
	log.Debug().Uint32("label_block", geom.LabelBlock).Int("partitions", len(partitions)).Msg("disk label decoded")

	partition, err := band.Find(partitions, *flagBand)
	if err != nil {
		log.Error().Err(err).Str("band", *flagBand).Msg("band partition not found")
		os.Exit(1)
	}

	cfg, err := band.Load(img, geom.LabelBlock+partition.Start, partition.Size)
	if err != nil {
		log.Error().Err(err).Msg("can't decode LMFS band configuration")
		os.Exit(1)
	}
	putBase, putSize := cfg.PUTLocation()
	log.Info().Uint32("put_base", putBase).Uint32("put_size", putSize).Msg("LMFS: PUT location")
	log.Info().Int("root_map_entries", len(cfg.RootMap)).Msg("LMFS: ROOT DIRECTORY located")

	resolver := resolve.New(img, cfg)
	adapter := lmfsfs.New(resolver, lmfsfs.Options{Charset: charset})
	filesys := fuse.NewFS(adapter)

	c, err := fuselib.Mount(
		mountpoint,
		fuselib.FSName("lmfsfuse"),
		fuselib.Subtype("lmfsfs"),
		fuselib.ReadOnly(),
		fuselib.VolumeName(*flagBand),
	)
	if err != nil {
		log.Error().Err(err).Msg("can't mount")
		os.Exit(1)
	}
	defer c.Close()

	if err := fusefs.Serve(c, filesys); err != nil {
		log.Error().Err(err).Msg("fuse serve failed")
		os.Exit(1)
	}

	<-c.Ready
	if err := c.MountError; err != nil {
		log.Error().Err(err).Msg("mount failed")
		os.Exit(1)
	}
}
