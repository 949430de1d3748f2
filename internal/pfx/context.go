package pfx

import (
	"strings"
)

// srcLine is one preprocessed script line and its 1-based number in the
// unprocessed input.
type srcLine struct {
	text string
	num  int
}

// readContext holds every line of a script after comment stripping and
// whitespace collapse. Blank lines are kept so line numbers stay aligned.
type readContext struct {
	lines []srcLine
}

func newReadContext(text string, maxLines, maxLineLen int) (*readContext, error) {
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}

	raw := strings.Split(text, "\n")
	ctx := &readContext{lines: make([]srcLine, 0, len(raw))}
	nonEmpty := 0

	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if maxLineLen > 0 && len(line) > maxLineLen {
			line = line[:maxLineLen]
		}
		line = preprocessLine(line)
		if line != "" {
			nonEmpty++
			if nonEmpty > maxLines {
				return nil, capacity(i+1, "Too many lines in script, maximum is %d (line %d)", maxLines, i+1)
			}
		}
		ctx.lines = append(ctx.lines, srcLine{text: line, num: i + 1})
	}
	return ctx, nil
}

// preprocessLine strips a // comment and collapses whitespace. String
// literals get no special treatment.
func preprocessLine(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return collapseWhitespace(line)
}

// collapseWhitespace replaces every run of blanks with one space and trims
// both ends.
func collapseWhitespace(s string) string {
	return strings.Join(tokenize(s), " ")
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// tokenize splits a line into whitespace-separated tokens.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, isBlank)
}

// cutToken returns the first token of s and the rest with leading blanks
// removed.
func cutToken(s string) (tok, rest string) {
	s = strings.TrimLeftFunc(s, isBlank)
	if i := strings.IndexFunc(s, isBlank); i >= 0 {
		return s[:i], strings.TrimLeftFunc(s[i:], isBlank)
	}
	return s, ""
}

// findLine returns the index of the first line in [from, to) whose text is
// exactly tag, or -1.
func (c *readContext) findLine(from, to int, tag string) int {
	for i := from; i < to && i < len(c.lines); i++ {
		if c.lines[i].text == tag {
			return i
		}
	}
	return -1
}
