package main

import (
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ernie/pvrfx/internal/blob"
	"github.com/ernie/pvrfx/internal/cache"
	"github.com/ernie/pvrfx/internal/config"
	"github.com/ernie/pvrfx/internal/pvr"
)

type textureSummary struct {
	File      string       `json:"file"`
	PixelType string       `json:"pixelType"`
	Width     uint32       `json:"width"`
	Height    uint32       `json:"height"`
	Levels    int          `json:"levels"`
	Surfaces  uint32       `json:"surfaces"`
	CubeMap   bool         `json:"cubeMap,omitempty"`
	Twiddled  bool         `json:"twiddled,omitempty"`
	Load      *loadSummary `json:"load,omitempty"`
	Cached    bool         `json:"cached,omitempty"`
	Output    string       `json:"output,omitempty"`
}

type loadSummary struct {
	InternalFormat string   `json:"internalFormat"`
	Format         string   `json:"format"`
	Type           string   `json:"type"`
	Compressed     bool     `json:"compressed"`
	Decompressed   bool     `json:"decompressed"`
	MinFilter      string   `json:"minFilter"`
	MagFilter      string   `json:"magFilter"`
	Wrap           string   `json:"wrap"`
	Images         int      `json:"images"`
	EndOffset      int      `json:"endOffset"`
	Calls          []string `json:"calls,omitempty"`
}

func hex16(v uint32) string { return fmt.Sprintf("0x%04X", v) }

func runDecode(argv []string) error {
	fs := pflag.NewFlagSet("decode", pflag.ExitOnError)
	var c common
	c.register(fs)
	exts := fs.StringSlice("ext", nil, "available GL extensions (overrides config)")
	decompress := fs.Bool("decompress", true, "allow software decompression (overrides config)")
	firstLevel := fs.Int("first-level", 0, "first mip level to load (overrides config)")
	trace := fs.Bool("trace", false, "record uploader calls")
	out := fs.StringP("out", "o", "", "export one level as png, tga, bmp or tiff")
	face := fs.Int("face", 0, "face to export")
	level := fs.Int("level", 0, "level to export, relative to the first level")
	noCache := fs.Bool("no-cache", false, "bypass the decode cache")

	pos, err := args(fs, argv, 1, "decode [flags] texture.pvr")
	if err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("ext") {
		cfg.Extensions = *exts
	}
	if fs.Changed("decompress") {
		cfg.Decompress = *decompress
	}
	if fs.Changed("first-level") {
		cfg.FirstLevel = *firstLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := pos[0]
	data, err := blob.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	h, err := pvr.ParseHeader(data)
	if err != nil {
		return err
	}

	sum := summarizeHeader(path, h)

	// Only software-decoded levels are cached, so a hit is valid only when
	// this load would decompress too.
	var store *cache.Cache
	if cfg.Cache != "" && !*noCache && *out != "" && cfg.Capabilities().Decompresses(h, cfg.Decompress) {
		if store, err = cache.Open(cfg.Cache); err != nil {
			log.Printf("Warning: cache disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	if store != nil && !*trace {
		l, ok, err := store.Get(cache.KeyOf(data), *face, cfg.FirstLevel+*level)
		if err != nil {
			log.Printf("Warning: cache lookup: %v", err)
		}
		if ok {
			img := &image.NRGBA{Pix: l.Pix, Stride: l.Width * 4, Rect: image.Rect(0, 0, l.Width, l.Height)}
			if err := writeImage(*out, img); err != nil {
				return err
			}
			sum.Cached, sum.Output = true, *out
			return c.emit(sum, func(w io.Writer) { printTexture(w, sum) })
		}
	}

	tex, rec, err := loadTexture(data, cfg, *trace)
	if err != nil {
		return err
	}
	sum.Load = summarizeLoad(tex, rec)
	if tex.Decompressed {
		log.Printf("Decode: %s decompressed in software", path)
	}

	if *out != "" {
		img, err := tex.RGBA(*face, *level)
		if err != nil {
			return err
		}
		if err := writeImage(*out, img); err != nil {
			return err
		}
		sum.Output = *out
		if store != nil && tex.Decompressed {
			storeLevels(store, data, tex, cfg.FirstLevel)
		}
	}

	return c.emit(sum, func(w io.Writer) { printTexture(w, sum) })
}

func loadTexture(data []byte, cfg *config.Config, trace bool) (*pvr.Texture, *pvr.Recorder, error) {
	opts, err := cfg.LoadOptions()
	if err != nil {
		return nil, nil, err
	}
	var rec *pvr.Recorder
	if trace {
		rec = &pvr.Recorder{}
		opts.Uploader = rec
	}
	tex, err := pvr.Load(data, cfg.Capabilities(), opts)
	if err != nil {
		return nil, nil, err
	}
	return tex, rec, nil
}

// storeLevels caches every decoded face level under absolute level numbers.
func storeLevels(store *cache.Cache, data []byte, tex *pvr.Texture, firstLevel int) {
	faces := 1
	if tex.Header.IsCubeMap() {
		faces = 6
	}
	var levels []cache.Level
	for f := 0; f < faces; f++ {
		for l := 0; l < tex.Levels(); l++ {
			img, err := tex.RGBA(f, l)
			if err != nil {
				continue
			}
			levels = append(levels, cache.Level{
				Face:   f,
				Level:  firstLevel + l,
				Width:  img.Rect.Dx(),
				Height: img.Rect.Dy(),
				Pix:    img.Pix,
			})
		}
	}
	if err := store.Put(cache.KeyOf(data), levels); err != nil {
		log.Printf("Warning: cache store: %v", err)
	}
}

func writeImage(path string, img image.Image) error {
	format := pvr.FormatFromPath(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := pvr.Encode(f, img, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func summarizeHeader(file string, h pvr.Header) textureSummary {
	levels := 1
	if h.HasMipMaps() {
		levels = int(h.MipMapCount) + 1
	}
	return textureSummary{
		File:      file,
		PixelType: h.PixelType().String(),
		Width:     h.Width,
		Height:    h.Height,
		Levels:    levels,
		Surfaces:  h.NumSurfaces,
		CubeMap:   h.IsCubeMap(),
		Twiddled:  h.IsTwiddled(),
	}
}

func summarizeLoad(tex *pvr.Texture, rec *pvr.Recorder) *loadSummary {
	s := &loadSummary{
		InternalFormat: hex16(tex.InternalFormat),
		Format:         hex16(tex.Format),
		Type:           hex16(tex.Type),
		Compressed:     tex.Compressed,
		Decompressed:   tex.Decompressed,
		MinFilter:      hex16(tex.MinFilter),
		MagFilter:      hex16(tex.MagFilter),
		Wrap:           hex16(tex.WrapS) + "/" + hex16(tex.WrapT),
		Images:         len(tex.Images),
		EndOffset:      tex.EndOffset,
	}
	if rec != nil {
		s.Calls = rec.Calls
	}
	return s
}

func printTexture(w io.Writer, s textureSummary) {
	kind := "2D"
	if s.CubeMap {
		kind = "cube map"
	}
	fmt.Fprintf(w, "%s: %s %dx%d, %d levels, %s", s.File, s.PixelType, s.Width, s.Height, s.Levels, kind)
	if s.Twiddled {
		fmt.Fprint(w, ", twiddled")
	}
	fmt.Fprintln(w)

	if l := s.Load; l != nil {
		mode := "uncompressed"
		switch {
		case l.Decompressed:
			mode = "decompressed in software"
		case l.Compressed:
			mode = "compressed"
		}
		fmt.Fprintf(w, "  internal %s format %s type %s, %s\n", l.InternalFormat, l.Format, l.Type, mode)
		fmt.Fprintf(w, "  filter %s/%s wrap %s, %d images, %d bytes read\n", l.MinFilter, l.MagFilter, l.Wrap, l.Images, l.EndOffset)
		if len(l.Calls) > 0 {
			fmt.Fprintf(w, "  calls:\n    %s\n", strings.Join(l.Calls, "\n    "))
		}
	}
	if s.Output != "" {
		from := ""
		if s.Cached {
			from = " (from cache)"
		}
		fmt.Fprintf(w, "  wrote %s%s\n", s.Output, from)
	}
}
