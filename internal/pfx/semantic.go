package pfx

import (
	"strconv"
	"strings"
)

// DefaultType is the GLSL type of a semantic's default value.
type DefaultType int

const (
	DefaultMat2 DefaultType = iota
	DefaultMat3
	DefaultMat4
	DefaultVec2
	DefaultVec3
	DefaultVec4
	DefaultIvec2
	DefaultIvec3
	DefaultIvec4
	DefaultBvec2
	DefaultBvec3
	DefaultBvec4
	DefaultFloat
	DefaultInt
	DefaultBool
)

type valueKind int

const (
	kindFloat valueKind = iota
	kindInt
	kindBool
)

type defaultTypeInfo struct {
	name  string
	typ   DefaultType
	count int
	kind  valueKind
}

// defaultTypes is matched in order against the text after a semantic.
// bvec3 takes two values.
var defaultTypes = []defaultTypeInfo{
	{"mat2", DefaultMat2, 4, kindFloat},
	{"mat3", DefaultMat3, 9, kindFloat},
	{"mat4", DefaultMat4, 16, kindFloat},
	{"vec2", DefaultVec2, 2, kindFloat},
	{"vec3", DefaultVec3, 3, kindFloat},
	{"vec4", DefaultVec4, 4, kindFloat},
	{"ivec2", DefaultIvec2, 2, kindInt},
	{"ivec3", DefaultIvec3, 3, kindInt},
	{"ivec4", DefaultIvec4, 4, kindInt},
	{"bvec2", DefaultBvec2, 2, kindBool},
	{"bvec3", DefaultBvec3, 2, kindBool},
	{"bvec4", DefaultBvec4, 4, kindBool},
	{"float", DefaultFloat, 1, kindFloat},
	{"int", DefaultInt, 1, kindInt},
	{"bool", DefaultBool, 1, kindBool},
}

func (t DefaultType) String() string {
	for _, info := range defaultTypes {
		if info.typ == t {
			return info.name
		}
	}
	return "unknown"
}

// Count is the number of values a default of this type holds.
func (t DefaultType) Count() int {
	for _, info := range defaultTypes {
		if info.typ == t {
			return info.count
		}
	}
	return 0
}

// DefaultValue is the literal given after a semantic, e.g. vec3(1,0,0).
// Exactly one of the slices is filled, depending on Type.
type DefaultValue struct {
	Type   DefaultType
	Floats []float32
	Ints   []int32
	Bools  []bool
}

// parseSemantic reads the part of a UNIFORM or ATTRIBUTE line after the
// keyword: <variable> <SEMANTIC[index]> [default].
func parseSemantic(kw, rest string, line int) (Semantic, error) {
	var sem Semantic

	name, rest := cutToken(rest)
	if name == "" {
		return sem, malformed(line, "%s missing variable name on line %d", kw, line)
	}
	value, rest := cutToken(rest)
	if value == "" {
		return sem, malformed(line, "%s '%s' missing semantic on line %d", kw, name, line)
	}

	j := len(value)
	for j > 0 && value[j-1] >= '0' && value[j-1] <= '9' {
		j--
	}
	if j == 0 {
		return sem, malformed(line, "%s semantic '%s' contains only numbers on line %d", kw, value, line)
	}
	sem.Name = name
	sem.Value = value[:j]
	if j < len(value) {
		idx, err := strconv.Atoi(value[j:])
		if err != nil {
			return sem, malformed(line, "%s semantic '%s' has an invalid index on line %d", kw, value, line)
		}
		sem.Index = idx
	}

	if rest != "" {
		dv, err := parseDefaultValue(rest, line)
		if err != nil {
			return sem, err
		}
		sem.Default = dv
	}
	return sem, nil
}

// literalParser reads "type(v0, v1, ...)" with a fixed number of values.
type literalParser struct {
	src  string
	pos  int
	info defaultTypeInfo
	line int
}

func parseDefaultValue(text string, line int) (*DefaultValue, error) {
	var info defaultTypeInfo
	found := false
	for _, t := range defaultTypes {
		if strings.HasPrefix(text, t.name) {
			info, found = t, true
			break
		}
	}
	if !found {
		return nil, malformed(line, "Unrecognised default value type in '%s' on line %d", text, line)
	}

	p := &literalParser{src: text, pos: len(info.name), info: info, line: line}
	return p.parse()
}

func (p *literalParser) skipBlanks() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *literalParser) peek() byte {
	p.skipBlanks()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// remaining is the unread text, for error messages.
func (p *literalParser) remaining() string {
	return strings.TrimSpace(p.src[p.pos:])
}

// operand reads up to the next ',' or ')'.
func (p *literalParser) operand() string {
	p.skipBlanks()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != ')' {
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *literalParser) parse() (*DefaultValue, error) {
	name := p.info.name
	if !p.accept('(') {
		return nil, malformed(p.line, "Expected '(' after %s but found '%s' on line %d", name, p.remaining(), p.line)
	}

	dv := &DefaultValue{Type: p.info.typ}
	for n := 0; n < p.info.count; n++ {
		if p.peek() == ')' {
			return nil, malformed(p.line, "Too few values for %s, expected %d, on line %d", name, p.info.count, p.line)
		}
		tok := p.operand()
		if err := p.appendValue(dv, tok); err != nil {
			return nil, err
		}
		if n == p.info.count-1 {
			break
		}
		if !p.accept(',') {
			if p.peek() == ')' {
				return nil, malformed(p.line, "Too few values for %s, expected %d, on line %d", name, p.info.count, p.line)
			}
			return nil, malformed(p.line, "Expected ',' in %s value but found '%s' on line %d", name, p.remaining(), p.line)
		}
	}

	if !p.accept(')') {
		if p.peek() == ',' {
			return nil, malformed(p.line, "Too many values for %s, expected %d, on line %d", name, p.info.count, p.line)
		}
		return nil, malformed(p.line, "Expected ')' after %s value but found '%s' on line %d", name, p.remaining(), p.line)
	}
	if rest := p.remaining(); rest != "" {
		return nil, malformed(p.line, "Unexpected '%s' after %s value on line %d", rest, name, p.line)
	}
	return dv, nil
}

func (p *literalParser) appendValue(dv *DefaultValue, tok string) error {
	switch p.info.kind {
	case kindFloat:
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return malformed(p.line, "Invalid value '%s' for %s on line %d", tok, p.info.name, p.line)
		}
		dv.Floats = append(dv.Floats, float32(v))
	case kindInt:
		v, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return malformed(p.line, "Invalid value '%s' for %s on line %d", tok, p.info.name, p.line)
		}
		dv.Ints = append(dv.Ints, int32(v))
	case kindBool:
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return malformed(p.line, "Invalid value '%s' for %s on line %d", tok, p.info.name, p.line)
		}
		dv.Bools = append(dv.Bools, v)
	}
	return nil
}
