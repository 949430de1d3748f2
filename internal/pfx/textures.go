package pfx

import (
	"strconv"
	"strings"
)

func (st *parseState) parseTextures(start, end int) error {
	s := st.script
	for _, ln := range st.ctx.lines[start+1 : end] {
		if ln.text == "" {
			continue
		}

		kw, rest := cutToken(ln.text)
		if kw != "FILE" && kw != "RENDER" {
			return malformed(ln.num, "Unknown keyword '%s' in [TEXTURES] on line %d", kw, ln.num)
		}

		name, rest := cutToken(rest)
		if name == "" {
			return malformed(ln.num, "Texture name missing in [TEXTURES] on line %d", ln.num)
		}
		if _, dup := s.Texture(name); dup {
			return malformed(ln.num, "Texture '%s' redefined in [TEXTURES] on line %d", name, ln.num)
		}
		if len(s.Textures) >= st.limits.Textures {
			return capacity(ln.num, "Too many textures in [TEXTURES], maximum is %d (line %d)", st.limits.Textures, ln.num)
		}

		tex := Texture{
			Name:   name,
			Min:    FilterLinear,
			Mag:    FilterLinear,
			Mip:    FilterLinear,
			WrapS:  WrapRepeat,
			WrapT:  WrapRepeat,
			WrapR:  WrapRepeat,
			Format: FormatRGBA8888,
			Line:   ln.num,
		}

		var pass *RenderPass
		if kw == "FILE" {
			file, _ := cutToken(rest)
			if file == "" {
				return malformed(ln.num, "File name missing for texture '%s' on line %d", name, ln.num)
			}
			tex.FileName = file
		} else {
			if len(s.RenderPasses) >= st.limits.RenderPasses {
				return capacity(ln.num, "Too many render passes, maximum is %d (line %d)", st.limits.RenderPasses, ln.num)
			}
			rp, err := parseRenderPass(rest, ln.num)
			if err != nil {
				return err
			}
			rp.Semantic = name
			pass = &rp
			tex.RenderToTexture = true
			tex.Flags |= FlagRenderTarget
		}

		if err := st.parseTextureFlags(&tex, rest, ln.num); err != nil {
			return err
		}

		if pass != nil {
			pass.Texture = len(s.Textures)
			pass.Format = tex.Format
			s.RenderPasses = append(s.RenderPasses, *pass)
		}
		s.Textures = append(s.Textures, tex)
	}
	return nil
}

// parseRenderPass reads the pass type that follows a RENDER texture name:
//
//	CAMERA                 render from the active camera
//	CAMERA "node"          render from a named scene node
//	CAMERA (x,y,z)         render from a fixed position
//	CAMERA CENTER          render from the current scene center
func parseRenderPass(rest string, line int) (RenderPass, error) {
	rp := RenderPass{Type: PassCamera, View: ViewActiveCamera}

	arg, ok := strings.CutPrefix(rest, "CAMERA")
	if !ok || (arg != "" && arg[0] != ' ' && arg[0] != '(') {
		typ, _ := cutToken(rest)
		return rp, malformed(line, "Unrecognised render pass type '%s' on line %d", typ, line)
	}
	arg = strings.TrimLeft(arg, " ")

	switch {
	case strings.HasPrefix(arg, `"`):
		node, _, found := strings.Cut(arg[1:], `"`)
		if !found || node == "" {
			return rp, malformed(line, "Invalid camera node name on line %d", line)
		}
		rp.View = ViewNode
		rp.NodeName = node
	case strings.HasPrefix(arg, "("):
		inner, _, found := strings.Cut(arg[1:], ")")
		parts := strings.Split(inner, ",")
		if !found || len(parts) != 3 {
			return rp, malformed(line, "Invalid camera position '(%s' on line %d", inner, line)
		}
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return rp, malformed(line, "Invalid camera position value '%s' on line %d", strings.TrimSpace(p), line)
			}
			rp.Position[i] = float32(v)
		}
		rp.View = ViewVector
	case arg == "CENTER" || strings.HasPrefix(arg, "CENTER "):
		rp.View = ViewCurrentCenter
	}
	return rp, nil
}

// parseTextureFlags scans the free text after a texture name for optional
// flags in any order. The text is searched by substring rather than
// tokenized, so a flag prefix such as "LINEAR-" is found wherever it
// appears, file name included.
func (st *parseState) parseTextureFlags(tex *Texture, rest string, line int) error {
	if v, ok := flagValue(rest, "FORMAT="); ok {
		f, known := formatNames[v]
		if !known {
			return malformed(line, "Unknown format '%s' for texture '%s' on line %d", v, tex.Name, line)
		}
		tex.Format = f
	}

	if v, ok := flagValue(rest, "RES="); ok {
		w, h, viewport, err := st.resolution(v, line)
		if err != nil {
			return err
		}
		tex.Width, tex.Height = w, h
		if viewport {
			tex.Flags |= FlagViewportRes
		}
	}

	if triple, ok := firstOf(rest, "LINEAR-", "NEAREST-"); ok {
		parts := strings.Split(triple, "-")
		if len(parts) != 3 {
			return malformed(line, "Invalid filter '%s' for texture '%s' on line %d, expected MIN-MAG-MIP", triple, tex.Name, line)
		}
		for i, p := range parts {
			f, ok := parseFilter(p, i == 2)
			if !ok {
				return malformed(line, "Unknown filter '%s' for texture '%s' on line %d", p, tex.Name, line)
			}
			switch i {
			case 0:
				tex.Min = f
			case 1:
				tex.Mag = f
			case 2:
				tex.Mip = f
			}
		}
	}

	if triple, ok := firstOf(rest, "CLAMP-", "REPEAT-"); ok {
		parts := strings.Split(triple, "-")
		if len(parts) < 2 || len(parts) > 3 {
			return malformed(line, "Invalid wrap '%s' for texture '%s' on line %d, expected S-T or S-T-R", triple, tex.Name, line)
		}
		for i, p := range parts {
			var w Wrap
			switch p {
			case "CLAMP":
				w = WrapClamp
			case "REPEAT":
				w = WrapRepeat
			default:
				return malformed(line, "Unknown wrap mode '%s' for texture '%s' on line %d", p, tex.Name, line)
			}
			switch i {
			case 0:
				tex.WrapS = w
			case 1:
				tex.WrapT = w
			case 2:
				tex.WrapR = w
			}
		}
	}
	return nil
}

func parseFilter(s string, mip bool) (Filter, bool) {
	switch s {
	case "NEAREST":
		return FilterNearest, true
	case "LINEAR":
		return FilterLinear, true
	case "NONE":
		return FilterNone, mip
	}
	return 0, false
}

// flagValue returns the word following the first occurrence of key.
func flagValue(s, key string) (string, bool) {
	idx := strings.Index(s, key)
	if idx < 0 {
		return "", false
	}
	v, _ := cutToken(s[idx+len(key):])
	return v, true
}

// firstOf finds whichever of a and b occurs first in s and returns the word
// starting there.
func firstOf(s, a, b string) (string, bool) {
	ia, ib := strings.Index(s, a), strings.Index(s, b)
	idx := ia
	if idx < 0 || (ib >= 0 && ib < ia) {
		idx = ib
	}
	if idx < 0 {
		return "", false
	}
	word, _ := cutToken(s[idx:])
	return word, true
}

// Viewport-relative resolution keywords. Longer prefixes come first.
var resolutionKinds = []struct {
	prefix string
	fn     func(st *parseState, n int) (int, int)
}{
	{"SRESPOTLSQ", func(st *parseState, n int) (int, int) {
		return square(potLower(st.viewW)/n, potLower(st.viewH)/n)
	}},
	{"SRESPOTHSQ", func(st *parseState, n int) (int, int) {
		return square(potHigher(st.viewW)/n, potHigher(st.viewH)/n)
	}},
	{"SRESPOTL", func(st *parseState, n int) (int, int) {
		return potLower(st.viewW) / n, potLower(st.viewH) / n
	}},
	{"SRESPOTH", func(st *parseState, n int) (int, int) {
		return potHigher(st.viewW) / n, potHigher(st.viewH) / n
	}},
	{"SRESL", func(st *parseState, n int) (int, int) {
		return st.viewW / n, st.viewH / n
	}},
	{"SRESH", func(st *parseState, n int) (int, int) {
		return st.viewW * n, st.viewH * n
	}},
}

// resolution evaluates a RES= value. SCREENRES is the viewport size; the
// SRESPOT* forms round the viewport to a power of two (L down, H up) and
// divide by an optional trailing n; SRESL divides by n and SRESH multiplies
// by n; WxH is explicit.
func (st *parseState) resolution(v string, line int) (w, h int, viewport bool, err error) {
	if v == "SCREENRES" {
		return st.viewW, st.viewH, true, nil
	}

	for _, k := range resolutionKinds {
		suffix, ok := strings.CutPrefix(v, k.prefix)
		if !ok {
			continue
		}
		n := 1
		if suffix != "" {
			n, err = strconv.Atoi(suffix)
			if err != nil {
				return 0, 0, false, malformed(line, "Invalid resolution '%s' on line %d", v, line)
			}
		}
		if n <= 0 {
			return 0, 0, false, malformed(line, "Resolution divider or multiplier must be greater than zero in '%s' on line %d", v, line)
		}
		w, h = k.fn(st, n)
		return max(w, 1), max(h, 1), true, nil
	}

	ws, hs, found := strings.Cut(v, "x")
	if found {
		w, errW := strconv.Atoi(ws)
		h, errH := strconv.Atoi(hs)
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return w, h, false, nil
		}
	}
	return 0, 0, false, malformed(line, "Unknown resolution '%s' on line %d", v, line)
}

// potLower rounds n down to a power of two.
func potLower(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// potHigher rounds n up to a power of two.
func potHigher(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func square(w, h int) (int, int) {
	m := min(w, h)
	return m, m
}
