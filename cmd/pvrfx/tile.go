package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ernie/pvrfx/internal/blob"
	"github.com/ernie/pvrfx/internal/pvr"
)

func parseCompression(s string) (blob.Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return blob.None, nil
	case "zstd":
		return blob.Zstd, nil
	case "lz4":
		return blob.LZ4, nil
	}
	return blob.None, fmt.Errorf("unknown compression %q", s)
}

func runTile(argv []string) error {
	fs := pflag.NewFlagSet("tile", pflag.ExitOnError)
	var c common
	c.register(fs)
	repeat := fs.IntP("repeat", "r", 2, "copies along each axis")
	compress := fs.String("compress", "none", "output compression: none, zstd or lz4")

	pos, err := args(fs, argv, 2, "tile [flags] in.pvr out.pvr")
	if err != nil {
		return err
	}
	comp, err := parseCompression(*compress)
	if err != nil {
		return err
	}
	if *repeat <= 1 {
		return errors.New("repeat must be at least 2")
	}

	in, out := pos[0], pos[1]
	data, err := blob.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	h, err := pvr.ParseHeader(data)
	if err != nil {
		return err
	}
	if h.Width != h.Height {
		return fmt.Errorf("%s is %dx%d, tiling needs a square texture", in, h.Width, h.Height)
	}

	tiled, err := pvr.Tile(data, *repeat)
	if err != nil {
		return err
	}
	th, err := pvr.ParseHeader(tiled)
	if err != nil {
		return err
	}
	stored, err := blob.Compress(tiled, comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, stored, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("Tile: %s %dx%d -> %s %dx%d (%s)", in, h.Width, h.Height, out, th.Width, th.Height, comp)

	sum := summarizeHeader(out, th)
	return c.emit(sum, func(w io.Writer) { printTexture(w, sum) })
}
