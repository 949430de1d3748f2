package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ernie/pvrfx/internal/pfx"
)

type scriptSummary struct {
	File     string           `json:"file"`
	Header   pfx.Header       `json:"header"`
	Textures []textureDecl    `json:"textures"`
	Shaders  []shaderDecl     `json:"shaders"`
	Effects  []effectDecl     `json:"effects"`
	Passes   []renderPassDecl `json:"renderPasses,omitempty"`
}

type textureDecl struct {
	Name   string `json:"name"`
	File   string `json:"file,omitempty"`
	Render bool   `json:"render,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format"`
	Line   int    `json:"line"`
}

type shaderDecl struct {
	Name   string `json:"name"`
	Stage  string `json:"stage"`
	Origin string `json:"origin"`
	File   string `json:"file,omitempty"`
	Bytes  int    `json:"bytes"`
}

type effectDecl struct {
	Name           string   `json:"name"`
	VertexShader   string   `json:"vertexShader"`
	FragmentShader string   `json:"fragmentShader"`
	Textures       []string `json:"textures,omitempty"`
	Uniforms       []string `json:"uniforms,omitempty"`
	Attributes     []string `json:"attributes,omitempty"`
	Line           int      `json:"line"`
}

type renderPassDecl struct {
	Texture  string `json:"texture"`
	Semantic string `json:"semantic"`
	Node     string `json:"node,omitempty"`
}

func runParse(argv []string) error {
	fs := pflag.NewFlagSet("parse", pflag.ExitOnError)
	var c common
	c.register(fs)
	width := fs.Int("width", 0, "viewport width (overrides config)")
	height := fs.Int("height", 0, "viewport height (overrides config)")

	pos, err := args(fs, argv, 1, "parse [flags] script.pfx")
	if err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if *width > 0 {
		cfg.Viewport.Width = *width
	}
	if *height > 0 {
		cfg.Viewport.Height = *height
	}

	s, err := pfx.NewParser(cfg.ParserOptions()...).ParseFromFile(pos[0])
	if err != nil {
		return err
	}

	sum := summarizeScript(pos[0], s)
	return c.emit(sum, func(w io.Writer) { printScript(w, sum) })
}

func summarizeScript(file string, s *pfx.Script) scriptSummary {
	sum := scriptSummary{File: file, Header: s.Header}

	for _, t := range s.Textures {
		sum.Textures = append(sum.Textures, textureDecl{
			Name:   t.Name,
			File:   t.FileName,
			Render: t.RenderToTexture,
			Width:  t.Width,
			Height: t.Height,
			Format: t.Format.String(),
			Line:   t.Line,
		})
	}
	for _, rp := range s.RenderPasses {
		sum.Passes = append(sum.Passes, renderPassDecl{
			Texture:  s.Textures[rp.Texture].Name,
			Semantic: rp.Semantic,
			Node:     rp.NodeName,
		})
	}

	addShaders := func(stage string, list []pfx.Shader) {
		for _, sh := range list {
			d := shaderDecl{Name: sh.Name, Stage: stage, File: sh.FileName, Bytes: len(sh.Code)}
			switch sh.Origin {
			case pfx.OriginInline:
				d.Origin = "inline"
			case pfx.OriginFile:
				d.Origin = "file"
			case pfx.OriginBinary:
				d.Origin = "binary"
				d.Bytes = len(sh.Binary)
			}
			sum.Shaders = append(sum.Shaders, d)
		}
	}
	addShaders("vertex", s.VertexShaders)
	addShaders("fragment", s.FragmentShaders)

	for _, e := range s.Effects {
		d := effectDecl{Name: e.Name, VertexShader: e.VertexShader, FragmentShader: e.FragmentShader, Line: e.Line}
		for _, t := range e.Textures {
			d.Textures = append(d.Textures, fmt.Sprintf("%d:%s", t.Unit, t.Name))
		}
		for _, u := range e.Uniforms {
			d.Uniforms = append(d.Uniforms, semanticString(u))
		}
		for _, a := range e.Attributes {
			d.Attributes = append(d.Attributes, semanticString(a))
		}
		sum.Effects = append(sum.Effects, d)
	}
	return sum
}

func semanticString(s pfx.Semantic) string {
	v := s.Value
	if s.Index > 0 {
		v = fmt.Sprintf("%s%d", v, s.Index)
	}
	return s.Name + "=" + v
}

func printScript(w io.Writer, s scriptSummary) {
	fmt.Fprintf(w, "%s", s.File)
	if s.Header.Version != "" {
		fmt.Fprintf(w, " (version %s)", s.Header.Version)
	}
	fmt.Fprintln(w)
	if s.Header.Description != "" {
		fmt.Fprintf(w, "  %s\n", s.Header.Description)
	}

	fmt.Fprintf(w, "Textures: %d\n", len(s.Textures))
	for _, t := range s.Textures {
		if t.Render {
			fmt.Fprintf(w, "  %-16s render %dx%d %s\n", t.Name, t.Width, t.Height, t.Format)
		} else {
			fmt.Fprintf(w, "  %-16s %s\n", t.Name, t.File)
		}
	}
	fmt.Fprintf(w, "Shaders: %d\n", len(s.Shaders))
	for _, sh := range s.Shaders {
		fmt.Fprintf(w, "  %-16s %-8s %-6s %d bytes %s\n", sh.Name, sh.Stage, sh.Origin, sh.Bytes, sh.File)
	}
	fmt.Fprintf(w, "Effects: %d\n", len(s.Effects))
	for _, e := range s.Effects {
		fmt.Fprintf(w, "  %-16s %s + %s\n", e.Name, e.VertexShader, e.FragmentShader)
		if len(e.Textures) > 0 {
			fmt.Fprintf(w, "    textures:   %s\n", strings.Join(e.Textures, " "))
		}
		if len(e.Uniforms) > 0 {
			fmt.Fprintf(w, "    uniforms:   %s\n", strings.Join(e.Uniforms, " "))
		}
		if len(e.Attributes) > 0 {
			fmt.Fprintf(w, "    attributes: %s\n", strings.Join(e.Attributes, " "))
		}
	}
}
