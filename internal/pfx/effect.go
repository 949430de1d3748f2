package pfx

import (
	"strconv"
)

// parseEffect reads an [EFFECT] block. Shader and texture names are only
// recorded here; texture names are checked once the whole script is read.
func (st *parseState) parseEffect(start, end int) error {
	lines := st.ctx.lines
	startNum := lines[start].num

	eff := Effect{Line: startNum}
	haveName, haveVS, haveFS, haveAnnotation := false, false, false, false

	for i := start + 1; i < end; i++ {
		ln := lines[i]
		if ln.text == "" {
			continue
		}

		if ln.text == tagAnnotation {
			if haveAnnotation {
				return malformed(ln.num, "[ANNOTATION] redefined in [EFFECT] on line %d", ln.num)
			}
			stop := st.ctx.findLine(i+1, end, tagAnnotationEnd)
			if stop < 0 {
				return malformed(ln.num, "Missing %s tag after %s on line %d", tagAnnotationEnd, tagAnnotation, ln.num)
			}
			eff.Annotation = joinBlock(lines[i+1 : stop])
			haveAnnotation = true
			i = stop
			continue
		}

		kw, rest := cutToken(ln.text)
		switch kw {
		case "NAME":
			if haveName {
				return malformed(ln.num, "NAME redefined in [EFFECT] on line %d", ln.num)
			}
			eff.Name, _ = cutToken(rest)
			if eff.Name == "" {
				return malformed(ln.num, "NAME missing value in [EFFECT] on line %d", ln.num)
			}
			haveName = true

		case "VERTEXSHADER":
			if haveVS {
				return malformed(ln.num, "VERTEXSHADER redefined in [EFFECT] on line %d", ln.num)
			}
			eff.VertexShader, _ = cutToken(rest)
			if eff.VertexShader == "" {
				return malformed(ln.num, "VERTEXSHADER missing name in [EFFECT] on line %d", ln.num)
			}
			haveVS = true

		case "FRAGMENTSHADER":
			if haveFS {
				return malformed(ln.num, "FRAGMENTSHADER redefined in [EFFECT] on line %d", ln.num)
			}
			eff.FragmentShader, _ = cutToken(rest)
			if eff.FragmentShader == "" {
				return malformed(ln.num, "FRAGMENTSHADER missing name in [EFFECT] on line %d", ln.num)
			}
			haveFS = true

		case "TEXTURE":
			unitTok, rest := cutToken(rest)
			name, _ := cutToken(rest)
			unit, err := strconv.Atoi(unitTok)
			if err != nil || unit < 0 {
				return malformed(ln.num, "Invalid texture unit '%s' in [EFFECT] on line %d", unitTok, ln.num)
			}
			if name == "" {
				return malformed(ln.num, "TEXTURE missing name in [EFFECT] on line %d", ln.num)
			}
			eff.Textures = append(eff.Textures, EffectTexture{Unit: unit, Name: name})

		case "UNIFORM":
			sem, err := parseSemantic(kw, rest, ln.num)
			if err != nil {
				return err
			}
			eff.Uniforms = append(eff.Uniforms, sem)

		case "ATTRIBUTE":
			sem, err := parseSemantic(kw, rest, ln.num)
			if err != nil {
				return err
			}
			eff.Attributes = append(eff.Attributes, sem)

		default:
			return malformed(ln.num, "Unknown keyword '%s' in [EFFECT] on line %d", kw, ln.num)
		}
	}

	if !haveName {
		return malformed(startNum, "No NAME found in [EFFECT] on line %d", startNum)
	}
	if !haveVS {
		return malformed(startNum, "No VERTEXSHADER defined in [EFFECT] on line %d", startNum)
	}
	if !haveFS {
		return malformed(startNum, "No FRAGMENTSHADER defined in [EFFECT] on line %d", startNum)
	}
	if _, dup := st.script.Effect(eff.Name); dup {
		return malformed(startNum, "Effect name '%s' already used, [EFFECT] on line %d", eff.Name, startNum)
	}

	st.script.Effects = append(st.script.Effects, eff)
	return nil
}
