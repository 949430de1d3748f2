// Package config loads the pvrfx YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ernie/pvrfx/internal/pack"
	"github.com/ernie/pvrfx/internal/pfx"
	"github.com/ernie/pvrfx/internal/pvr"
)

// Config is the on-disk configuration. Missing keys keep their defaults.
type Config struct {
	Viewport struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"viewport"`

	// Extensions is the GL extension list textures are loaded against.
	Extensions []string `yaml:"extensions"`
	Decompress bool     `yaml:"decompress"`
	FirstLevel int      `yaml:"firstLevel"`
	Wrap       string   `yaml:"wrap"` // repeat or clamp

	Limits struct {
		Lines           int `yaml:"lines"`
		LineLength      int `yaml:"lineLength"`
		Textures        int `yaml:"textures"`
		RenderPasses    int `yaml:"renderPasses"`
		VertexShaders   int `yaml:"vertexShaders"`
		FragmentShaders int `yaml:"fragmentShaders"`
		Effects         int `yaml:"effects"`
	} `yaml:"limits"`

	// Cache is the decoded texture database; empty disables caching.
	Cache string `yaml:"cache"`

	Bundle struct {
		Compression string `yaml:"compression"` // deflate or zstd
	} `yaml:"bundle"`
}

// Default returns the built-in configuration: a 640x480 viewport, no GL
// extensions and software decompression allowed.
func Default() *Config {
	c := &Config{
		Decompress: true,
		Wrap:       "repeat",
	}
	c.Viewport.Width = 640
	c.Viewport.Height = 480
	c.Bundle.Compression = "deflate"
	return c
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks values the loaders would otherwise reject late.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.FirstLevel < 0 {
		return fmt.Errorf("firstLevel must not be negative, got %d", c.FirstLevel)
	}
	if _, err := c.WrapMode(); err != nil {
		return err
	}
	if _, err := c.BundleMethod(); err != nil {
		return err
	}
	return nil
}

// Capabilities parses Extensions.
func (c *Config) Capabilities() pvr.Capabilities {
	return pvr.ParseExtensions(strings.Join(c.Extensions, " "))
}

// WrapMode maps Wrap to its GL constant.
func (c *Config) WrapMode() (uint32, error) {
	switch strings.ToLower(c.Wrap) {
	case "", "repeat":
		return pvr.GLRepeat, nil
	case "clamp":
		return pvr.GLClampToEdge, nil
	}
	return 0, fmt.Errorf("unknown wrap mode %q", c.Wrap)
}

// BundleMethod parses Bundle.Compression.
func (c *Config) BundleMethod() (pack.Method, error) {
	return pack.ParseMethod(c.Bundle.Compression)
}

// LoadOptions returns texture load options without an uploader.
func (c *Config) LoadOptions() (pvr.Options, error) {
	wrap, err := c.WrapMode()
	if err != nil {
		return pvr.Options{}, err
	}
	return pvr.Options{
		AllowDecompress: c.Decompress,
		FirstLevel:      c.FirstLevel,
		Wrap:            wrap,
	}, nil
}

// ParserOptions returns the limits and viewport for a pfx.Parser.
func (c *Config) ParserOptions() []pfx.Option {
	return []pfx.Option{
		pfx.WithLimits(pfx.Limits{
			Lines:           c.Limits.Lines,
			LineLength:      c.Limits.LineLength,
			Textures:        c.Limits.Textures,
			RenderPasses:    c.Limits.RenderPasses,
			VertexShaders:   c.Limits.VertexShaders,
			FragmentShaders: c.Limits.FragmentShaders,
			Effects:         c.Limits.Effects,
		}),
		pfx.WithViewportSize(c.Viewport.Width, c.Viewport.Height),
	}
}
