package pfx

import (
	"strings"
)

const (
	tagGLSLCode      = "[GLSL_CODE]"
	tagGLSLCodeEnd   = "[/GLSL_CODE]"
	tagAnnotation    = "[ANNOTATION]"
	tagAnnotationEnd = "[/ANNOTATION]"
)

// parseShader reads a [VERTEXSHADER] or [FRAGMENTSHADER] block and appends
// it to list.
func (st *parseState) parseShader(start, end int, list *[]Shader) error {
	lines := st.ctx.lines
	section := lines[start].text
	startNum := lines[start].num

	var sh Shader
	haveName, haveCode, haveFile, haveBinary := false, false, false, false

	for i := start + 1; i < end; i++ {
		ln := lines[i]
		if ln.text == "" {
			continue
		}

		if ln.text == tagGLSLCode {
			if haveCode {
				return malformed(ln.num, "[GLSL_CODE] redefined in %s on line %d", section, ln.num)
			}
			if haveFile || haveBinary {
				return malformed(ln.num, "[GLSL_CODE] cannot be combined with FILE or BINARYFILE in %s on line %d", section, ln.num)
			}
			stop := st.ctx.findLine(i+1, end, tagGLSLCodeEnd)
			if stop < 0 {
				return malformed(ln.num, "Missing %s tag after %s on line %d", tagGLSLCodeEnd, tagGLSLCode, ln.num)
			}
			sh.Code = joinBlock(lines[i+1 : stop])
			sh.FirstLine = ln.num + 1
			sh.Origin = OriginInline
			haveCode = true
			i = stop
			continue
		}

		kw, rest := cutToken(ln.text)
		switch kw {
		case "NAME":
			if haveName {
				return malformed(ln.num, "NAME redefined in %s on line %d", section, ln.num)
			}
			name, _ := cutToken(rest)
			if name == "" {
				return malformed(ln.num, "NAME missing value in %s on line %d", section, ln.num)
			}
			sh.Name = name
			haveName = true

		case "FILE", "BINARYFILE":
			if haveCode {
				return malformed(ln.num, "%s cannot be combined with [GLSL_CODE] in %s on line %d", kw, section, ln.num)
			}
			if haveFile || haveBinary {
				return malformed(ln.num, "FILE and BINARYFILE may only be given once in %s on line %d", section, ln.num)
			}
			file, _ := cutToken(rest)
			if file == "" {
				return malformed(ln.num, "%s missing path in %s on line %d", kw, section, ln.num)
			}
			data, err := st.readInclude(file)
			if err != nil {
				return resource(ln.num, "Error loading file '%s' in %s on line %d", file, section, ln.num)
			}
			sh.FileName = file
			if kw == "FILE" {
				sh.Code = string(data)
				sh.Origin = OriginFile
				haveFile = true
			} else {
				sh.Binary = data
				sh.Origin = OriginBinary
				haveBinary = true
			}

		default:
			return malformed(ln.num, "Unknown keyword '%s' in %s on line %d", kw, section, ln.num)
		}
	}

	if !haveName {
		return malformed(startNum, "No NAME found in %s on line %d", section, startNum)
	}
	if !haveCode && !haveFile && !haveBinary {
		return malformed(startNum, "No shader code or file found in %s on line %d", section, startNum)
	}
	if _, dup := findShader(*list, sh.Name); dup {
		return malformed(startNum, "Shader name '%s' already used, %s on line %d", sh.Name, section, startNum)
	}

	*list = append(*list, sh)
	return nil
}

// joinBlock concatenates the lines of a [GLSL_CODE] or [ANNOTATION] block,
// one per output line, so line offsets inside the block are preserved.
func joinBlock(block []srcLine) string {
	var b strings.Builder
	for _, ln := range block {
		b.WriteString(ln.text)
		b.WriteByte('\n')
	}
	return b.String()
}
