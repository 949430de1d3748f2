// Package pfx parses PFX effect scripts: line-oriented text files that
// declare textures, render-to-texture passes, GLSL shaders and the effects
// binding them together with uniform and attribute semantics.
package pfx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ernie/pvrfx/internal/blob"
)

// Limits bound the size of a script. Exceeding one is an ErrCapacity error.
type Limits struct {
	Lines           int // non-blank lines after preprocessing
	LineLength      int // longer lines are truncated silently
	Textures        int
	RenderPasses    int
	VertexShaders   int
	FragmentShaders int
	Effects         int
}

// DefaultLimits are used unless WithLimits is given.
var DefaultLimits = Limits{
	Lines:           5000,
	LineLength:      512,
	Textures:        20,
	RenderPasses:    1,
	VertexShaders:   20,
	FragmentShaders: 20,
	Effects:         20,
}

const (
	defaultViewportWidth  = 640
	defaultViewportHeight = 480
)

// Parser turns PFX text into a Script. A Parser is not safe for concurrent
// use; each parse replaces the previous result.
type Parser struct {
	limits         Limits
	fsys           fs.FS
	viewportWidth  int
	viewportHeight int

	script *Script
}

// Option configures a Parser.
type Option func(*Parser)

// WithLimits replaces DefaultLimits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(p *Parser) {
		d := DefaultLimits
		if l.Lines > 0 {
			d.Lines = l.Lines
		}
		if l.LineLength > 0 {
			d.LineLength = l.LineLength
		}
		if l.Textures > 0 {
			d.Textures = l.Textures
		}
		if l.RenderPasses > 0 {
			d.RenderPasses = l.RenderPasses
		}
		if l.VertexShaders > 0 {
			d.VertexShaders = l.VertexShaders
		}
		if l.FragmentShaders > 0 {
			d.FragmentShaders = l.FragmentShaders
		}
		if l.Effects > 0 {
			d.Effects = l.Effects
		}
		p.limits = d
	}
}

// WithFS sets the file system that shader FILE and BINARYFILE paths are
// read from. Without it, ParseFromFile reads relative to the script's
// directory and ParseFromMemory relative to the working directory.
func WithFS(fsys fs.FS) Option {
	return func(p *Parser) { p.fsys = fsys }
}

// WithViewportSize is SetViewportSize as an option.
func WithViewportSize(width, height int) Option {
	return func(p *Parser) { p.SetViewportSize(width, height) }
}

// NewParser creates a Parser with a 640x480 viewport.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		limits:         DefaultLimits,
		viewportWidth:  defaultViewportWidth,
		viewportHeight: defaultViewportHeight,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetViewportSize sets the size that RES= viewport-relative resolutions are
// computed from. Non-positive sizes are rejected.
func (p *Parser) SetViewportSize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	p.viewportWidth, p.viewportHeight = width, height
	return true
}

// Script returns the result of the last successful parse, or nil.
func (p *Parser) Script() *Script { return p.script }

// ParseFromFile reads and parses the script at path. Compressed scripts
// (zstd, lz4) are inflated transparently.
func (p *Parser) ParseFromFile(path string) (*Script, error) {
	p.script = nil
	data, err := blob.ReadFile(path)
	if err != nil {
		return nil, resource(0, "Unable to open file '%s': %v", path, err)
	}
	fsys := p.fsys
	if fsys == nil {
		fsys = os.DirFS(filepath.Dir(path))
	}
	return p.parse(string(data), fsys)
}

// ParseFromMemory parses script text.
func (p *Parser) ParseFromMemory(text string) (*Script, error) {
	p.script = nil
	fsys := p.fsys
	if fsys == nil {
		fsys = os.DirFS(".")
	}
	return p.parse(text, fsys)
}

func (p *Parser) parse(text string, fsys fs.FS) (*Script, error) {
	ctx, err := newReadContext(text, p.limits.Lines, p.limits.LineLength)
	if err != nil {
		return nil, err
	}
	st := &parseState{
		ctx:    ctx,
		fsys:   fsys,
		limits: p.limits,
		viewW:  p.viewportWidth,
		viewH:  p.viewportHeight,
		script: &Script{},
	}
	if err := st.run(); err != nil {
		return nil, err
	}
	p.script = st.script
	return st.script, nil
}

// parseState is the working state of a single parse. Nothing is published
// to the Parser until the whole script has been accepted.
type parseState struct {
	ctx    *readContext
	fsys   fs.FS
	limits Limits
	viewW  int
	viewH  int
	script *Script
}

const (
	tagHeader         = "[HEADER]"
	tagTextures       = "[TEXTURES]"
	tagVertexShader   = "[VERTEXSHADER]"
	tagFragmentShader = "[FRAGMENTSHADER]"
	tagEffect         = "[EFFECT]"
)

// closingTag turns "[X]" into "[/X]".
func closingTag(tag string) string {
	return "[/" + tag[1:]
}

func (st *parseState) run() error {
	lines := st.ctx.lines
	s := st.script
	haveHeader, haveTextures := false, false

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if ln.text == "" {
			continue
		}

		switch ln.text {
		case tagHeader:
			if haveHeader {
				return malformed(ln.num, "[HEADER] redefined on line %d", ln.num)
			}
		case tagTextures:
			if haveTextures {
				return malformed(ln.num, "[TEXTURES] redefined on line %d", ln.num)
			}
		case tagVertexShader:
			if len(s.VertexShaders) >= st.limits.VertexShaders {
				return capacity(ln.num, "Too many [VERTEXSHADER] sections, maximum is %d (line %d)", st.limits.VertexShaders, ln.num)
			}
		case tagFragmentShader:
			if len(s.FragmentShaders) >= st.limits.FragmentShaders {
				return capacity(ln.num, "Too many [FRAGMENTSHADER] sections, maximum is %d (line %d)", st.limits.FragmentShaders, ln.num)
			}
		case tagEffect:
			if len(s.Effects) >= st.limits.Effects {
				return capacity(ln.num, "Too many [EFFECT] sections, maximum is %d (line %d)", st.limits.Effects, ln.num)
			}
		default:
			tok, _ := cutToken(ln.text)
			return malformed(ln.num, "Unexpected token '%s' on line %d", tok, ln.num)
		}

		end := st.ctx.findLine(i+1, len(lines), closingTag(ln.text))
		if end < 0 {
			return malformed(ln.num, "Missing %s tag after %s on line %d", closingTag(ln.text), ln.text, ln.num)
		}

		var err error
		switch ln.text {
		case tagHeader:
			haveHeader = true
			err = st.parseHeader(i, end)
		case tagTextures:
			haveTextures = true
			err = st.parseTextures(i, end)
		case tagVertexShader:
			err = st.parseShader(i, end, &s.VertexShaders)
		case tagFragmentShader:
			err = st.parseShader(i, end, &s.FragmentShaders)
		case tagEffect:
			err = st.parseEffect(i, end)
		}
		if err != nil {
			return err
		}
		i = end
	}

	if len(s.Effects) == 0 {
		return malformed(0, "No [EFFECT] found. PFX file must have at least one defined.")
	}
	if len(s.FragmentShaders) == 0 {
		return malformed(0, "No [FRAGMENTSHADER] found. PFX file must have at least one defined.")
	}
	if len(s.VertexShaders) == 0 {
		return malformed(0, "No [VERTEXSHADER] found. PFX file must have at least one defined.")
	}

	return st.checkTextureRefs()
}

// checkTextureRefs runs once the whole script is read, since [EFFECT]
// blocks may precede [TEXTURES].
func (st *parseState) checkTextureRefs() error {
	for _, eff := range st.script.Effects {
		for _, t := range eff.Textures {
			if _, ok := st.script.Texture(t.Name); !ok {
				return malformed(eff.Line, "Effect '%s' on line %d uses texture '%s' which is not declared in [TEXTURES]", eff.Name, eff.Line, t.Name)
			}
		}
	}
	return nil
}

func (st *parseState) parseHeader(start, end int) error {
	h := &st.script.Header
	for _, ln := range st.ctx.lines[start+1 : end] {
		if ln.text == "" {
			continue
		}
		kw, rest := cutToken(ln.text)
		switch kw {
		case "VERSION":
			h.Version, _ = cutToken(rest)
		case "DESCRIPTION":
			h.Description = rest
		case "COPYRIGHT":
			h.Copyright = rest
		default:
			return malformed(ln.num, "Unknown keyword '%s' in [HEADER] on line %d", kw, ln.num)
		}
	}
	return nil
}

// readInclude loads a shader FILE or BINARYFILE reference.
func (st *parseState) readInclude(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("invalid path %q", name)
	}
	return fs.ReadFile(st.fsys, clean)
}
