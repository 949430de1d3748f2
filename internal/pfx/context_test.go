package pfx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   \t ", ""},
		{"// only a comment", ""},
		{"NAME   foo // trailing", "NAME foo"},
		{"\tFILE\tbase  base.pvr\t", "FILE base base.pvr"},
		{`CAMERA "a // b"`, `CAMERA "a`},
	}
	for _, tt := range tests {
		got := preprocessLine(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, got, preprocessLine(got), "not idempotent for %q", tt.in)
	}
}

func TestReadContextKeepsLineNumbers(t *testing.T) {
	ctx, err := newReadContext("a\r\n\n  // x\nb   c\n", 10, 512)
	require.NoError(t, err)
	require.Len(t, ctx.lines, 5)
	assert.Equal(t, srcLine{"a", 1}, ctx.lines[0])
	assert.Equal(t, srcLine{"", 3}, ctx.lines[2])
	assert.Equal(t, srcLine{"b c", 4}, ctx.lines[3])
	assert.Equal(t, 3, ctx.findLine(0, len(ctx.lines), "b c"))
	assert.Equal(t, -1, ctx.findLine(0, 3, "b c"))
}

func TestReadContextTruncation(t *testing.T) {
	long := "NAME " + strings.Repeat("x", 600)
	ctx, err := newReadContext(long, 10, 512)
	require.NoError(t, err)
	assert.Len(t, ctx.lines[0].text, 512)

	ctx, err = newReadContext("a\nb\x00c\nd", 10, 512)
	require.NoError(t, err)
	require.Len(t, ctx.lines, 2)
	assert.Equal(t, "b", ctx.lines[1].text)
}

func TestReadContextBlankLinesDoNotCount(t *testing.T) {
	_, err := newReadContext(strings.Repeat("\n", 50)+"a\nb\n", 2, 512)
	assert.NoError(t, err)

	_, err = newReadContext("a\n\nb\nc", 2, 512)
	pe := requireKind(t, err, ErrCapacity)
	assert.Equal(t, 4, pe.Line)
}

func TestCutToken(t *testing.T) {
	tok, rest := cutToken("  FILE base  a.pvr")
	assert.Equal(t, "FILE", tok)
	assert.Equal(t, "base  a.pvr", rest)

	tok, rest = cutToken("NAME")
	assert.Equal(t, "NAME", tok)
	assert.Empty(t, rest)
}
