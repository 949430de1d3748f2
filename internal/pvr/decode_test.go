package pvr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pvrtcBlocks encodes n identical PVRTC blocks.
func pvrtcBlocks(n int, mod, colour uint32) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint32(out, mod)
		out = binary.LittleEndian.AppendUint32(out, colour)
	}
	return out
}

func requirePixels(t *testing.T, img []byte, want [4]byte) {
	t.Helper()
	require.Zero(t, len(img)%4)
	for i := 0; i < len(img); i += 4 {
		if !assert.Equal(t, want[:], img[i:i+4], "pixel %d", i/4) {
			return
		}
	}
}

func TestDecompressPVRTCSolid(t *testing.T) {
	// Colour A and B both opaque white, modulation mode 0.
	white := pvrtcBlocks(4, 0, 0xFFFFFFFE)

	out := DecompressPVRTC(white, false, 8, 8)
	require.Len(t, out, 8*8*4)
	requirePixels(t, out, [4]byte{255, 255, 255, 255})

	out = DecompressPVRTC(white, true, 16, 8)
	require.Len(t, out, 16*8*4)
	requirePixels(t, out, [4]byte{255, 255, 255, 255})
}

func TestDecompressPVRTCModulation(t *testing.T) {
	// A opaque black, B opaque white.
	const colour = 0xFFFF8000

	out := DecompressPVRTC(pvrtcBlocks(4, 0x00000000, colour), false, 8, 8)
	requirePixels(t, out, [4]byte{0, 0, 0, 255})

	out = DecompressPVRTC(pvrtcBlocks(4, 0xFFFFFFFF, colour), false, 8, 8)
	requirePixels(t, out, [4]byte{255, 255, 255, 255})
}

func TestDecompressPVRTCPunchThrough(t *testing.T) {
	// Mode bit set and every modulation value 2: punch-through in 4bpp.
	out := DecompressPVRTC(pvrtcBlocks(4, 0xAAAAAAAA, 0xFFFFFFFF), false, 8, 8)
	requirePixels(t, out, [4]byte{255, 255, 255, 0})
}

func TestDecompressPVRTCCropsSmallLevels(t *testing.T) {
	out := DecompressPVRTC(pvrtcBlocks(4, 0, 0xFFFFFFFE), false, 2, 1)
	require.Len(t, out, 2*1*4)
	requirePixels(t, out, [4]byte{255, 255, 255, 255})

	// Short input decodes without panicking.
	out = DecompressPVRTC(nil, true, 16, 8)
	assert.Len(t, out, 16*8*4)
}

func etcBlock(hi, lo uint32) []byte {
	b := binary.BigEndian.AppendUint32(nil, hi)
	return binary.BigEndian.AppendUint32(b, lo)
}

func TestDecompressETCIndividual(t *testing.T) {
	// Both sub-blocks 0x8 per channel (136), table 0 {2, 8}.
	const hi = 0x88888800

	out := DecompressETC(etcBlock(hi, 0), 4, 4)
	requirePixels(t, out, [4]byte{138, 138, 138, 255})

	out = DecompressETC(etcBlock(hi, 0xFFFFFFFF), 4, 4)
	requirePixels(t, out, [4]byte{128, 128, 128, 255})

	// msb set, lsb clear: -2.
	out = DecompressETC(etcBlock(hi, 0xFFFF0000), 4, 4)
	requirePixels(t, out, [4]byte{134, 134, 134, 255})
}

func TestDecompressETCDifferential(t *testing.T) {
	// Base 16 (132 expanded), delta -1 gives 15 (123) in the second
	// sub-block. Flip clear: sub-blocks are the left and right halves.
	hi := uint32(0x10)<<27 | 7<<24 | 0x10<<19 | 7<<16 | 0x10<<11 | 7<<8 | 1<<1

	out := DecompressETC(etcBlock(hi, 0), 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := byte(134)
			if x >= 2 {
				want = 125
			}
			pos := (y*4 + x) * 4
			assert.Equal(t, []byte{want, want, want, 255}, out[pos:pos+4], "pixel %d,%d", x, y)
		}
	}

	// Flip set: top and bottom halves.
	out = DecompressETC(etcBlock(hi|1, 0), 4, 4)
	assert.Equal(t, byte(134), out[(1*4+3)*4])
	assert.Equal(t, byte(125), out[(2*4+0)*4])
}

func TestDecompressETCClips(t *testing.T) {
	out := DecompressETC(etcBlock(0x88888800, 0), 2, 3)
	require.Len(t, out, 2*3*4)
	requirePixels(t, out, [4]byte{138, 138, 138, 255})

	out = DecompressETC(nil, 4, 4)
	requirePixels(t, out, [4]byte{0, 0, 0, 255})
}

func TestTwiddleUV(t *testing.T) {
	tests := []struct {
		ySize, xSize, y, x int
		want               int
	}{
		{4, 4, 0, 0, 0},
		{4, 4, 1, 0, 1},
		{4, 4, 0, 1, 2},
		{4, 4, 1, 1, 3},
		{4, 4, 0, 2, 8},
		{4, 4, 3, 3, 15},
		{2, 8, 0, 5, 10},
		{8, 2, 5, 1, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, twiddleUV(tt.ySize, tt.xSize, tt.y, tt.x), "%+v", tt)
	}
}

func TestLevelSize(t *testing.T) {
	tests := []struct {
		pt       PixelType
		w, h     int
		bitCount uint32
		want     int
	}{
		{OGLPVRTC2, 1, 1, 2, 32},
		{OGLPVRTC2, 32, 32, 2, 256},
		{OGLPVRTC4, 1, 1, 4, 32},
		{OGLPVRTC4, 16, 16, 4, 128},
		{ETCRGB4BPP, 1, 1, 4, 8},
		{ETCRGB4BPP, 8, 8, 4, 32},
		{OGLRGB888, 3, 3, 24, 27},
		{OGLI8, 5, 1, 0, 5},
		{OGLRGBA8888, 2, 2, 0, 16},
		{OGLRGBA4444, 3, 3, 4, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelSize(tt.pt, tt.w, tt.h, tt.bitCount), "%s %dx%d", tt.pt, tt.w, tt.h)
		size, ok := levelSize64(tt.pt, uint32(tt.w), uint32(tt.h), tt.bitCount)
		assert.True(t, ok)
		assert.Equal(t, uint64(tt.want), size, "%s %dx%d", tt.pt, tt.w, tt.h)
	}
}

func TestLevelSizeOverflow(t *testing.T) {
	_, ok := levelSize64(OGLRGBA8888, 0xFFFFFFFF, 0xFFFFFFFF, 32)
	assert.False(t, ok)
	_, ok = levelSize64(D3DABGR32323232F, 0xFFFFFFFF, 0xFFFFFFFF, 0)
	assert.False(t, ok)

	_, ok = levelSize64(OGLPVRTC4, 0xFFFFFFFF, 0xFFFFFFFF, 4)
	assert.False(t, ok)

	size, ok := levelSize64(OGLPVRTC4, 0xFFFF, 0xFFFF, 4)
	assert.True(t, ok)
	assert.Equal(t, uint64(0xFFFF)*0xFFFF*4/8, size)
}

func TestFormatGetBPP(t *testing.T) {
	tests := []struct {
		format, typ uint32
		want        uint32
	}{
		{GLCompressedRGBPVRTC2, 0, 2},
		{GLCompressedRGBAPVRTC2, GLUnsignedByte, 2},
		{GLCompressedRGBPVRTC4, 0, 4},
		{GLCompressedRGBAPVRTC4, 0, 4},
		{GLRGBA, GLUnsignedByte, 32},
		{GLBGRA, GLUnsignedByte, 32},
		{GLRGBA, GLUnsignedShort5551, 16},
		{GLRGB, GLUnsignedByte, BPPUnknown},
		{GLBGRA, GLUnsignedShort5551, BPPUnknown},
		{GLRGBA, GLUnsignedShort4444, BPPUnknown},
		{GLRGB, GLUnsignedShort565, BPPUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatGetBPP(tt.format, tt.typ), "0x%04X/0x%04X", tt.format, tt.typ)
	}
}
