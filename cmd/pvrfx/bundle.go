package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"

	"github.com/ernie/pvrfx/internal/pack"
)

type scriptStatus struct {
	Script   string   `json:"script"`
	Effects  []string `json:"effects"`
	Textures int      `json:"textures"`
	Missing  []string `json:"missing,omitempty"`
	Invalid  []string `json:"invalid,omitempty"`
}

func manifestStatus(m *pack.Manifest) []scriptStatus {
	names := make([]string, 0, len(m.Scripts))
	for name := range m.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]scriptStatus, 0, len(names))
	for _, name := range names {
		e := m.Scripts[name]
		out = append(out, scriptStatus{Script: name, Effects: e.Effects, Textures: len(e.Textures), Missing: e.Missing, Invalid: e.Invalid})
	}
	return out
}

func printStatus(w io.Writer, list []scriptStatus) {
	for _, s := range list {
		state := "ok"
		switch {
		case len(s.Missing) > 0 && len(s.Invalid) > 0:
			state = fmt.Sprintf("missing %v, invalid %v", s.Missing, s.Invalid)
		case len(s.Missing) > 0:
			state = fmt.Sprintf("missing %v", s.Missing)
		case len(s.Invalid) > 0:
			state = fmt.Sprintf("invalid %v", s.Invalid)
		}
		fmt.Fprintf(w, "%-40s %d effects, %d textures, %s\n", s.Script, len(s.Effects), s.Textures, state)
	}
}

func runCheck(argv []string) error {
	fs := pflag.NewFlagSet("check", pflag.ExitOnError)
	var c common
	c.register(fs)

	pos, err := args(fs, argv, 1, "check [flags] dir")
	if err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}

	m, err := pack.BuildManifest(pos[0], cfg.ParserOptions()...)
	if err != nil {
		return err
	}
	list := manifestStatus(m)
	if err := c.emit(list, func(w io.Writer) { printStatus(w, list) }); err != nil {
		return err
	}

	return checkFailure(list)
}

// checkFailure reports missing and invalid textures as one error.
func checkFailure(list []scriptStatus) error {
	missing, invalid := 0, 0
	for _, s := range list {
		missing += len(s.Missing)
		invalid += len(s.Invalid)
	}
	if missing > 0 || invalid > 0 {
		return fmt.Errorf("%d textures missing, %d invalid", missing, invalid)
	}
	return nil
}

func runBundle(argv []string) error {
	fs := pflag.NewFlagSet("bundle", pflag.ExitOnError)
	var c common
	c.register(fs)
	method := fs.String("method", "", "entry compression: deflate or zstd (overrides config)")

	pos, err := args(fs, argv, 2, "bundle [flags] dir outdir")
	if err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("method") {
		cfg.Bundle.Compression = *method
	}
	m, err := cfg.BundleMethod()
	if err != nil {
		return err
	}

	manifest, err := pack.Build(pos[0], pos[1], m, cfg.ParserOptions()...)
	if err != nil {
		return err
	}
	list := manifestStatus(manifest)
	return c.emit(list, func(w io.Writer) { printStatus(w, list) })
}
