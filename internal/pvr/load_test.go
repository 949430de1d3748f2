package pvr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernie/pvrfx/internal/blob"
)

func TestLoadMipChain(t *testing.T) {
	h := Header{Width: 4, Height: 4, MipMapCount: 2, BitCount: 32, Flags: uint32(OGLRGBA8888) | FlagMipMap}
	data := makePVR(t, h, pattern(64+16+4))

	tex, err := Load(data, Capabilities{}, Options{})
	require.NoError(t, err)
	require.Len(t, tex.Images, 3)
	assert.Equal(t, GLTexture2D, tex.Target)
	assert.Equal(t, GLRGBA, tex.Format)
	assert.Equal(t, GLUnsignedByte, tex.Type)
	assert.False(t, tex.Compressed)
	assert.Equal(t, GLLinearMipmapLinear, tex.MinFilter)
	assert.Equal(t, GLLinear, tex.MagFilter)
	assert.Equal(t, GLRepeat, tex.WrapS)
	assert.Equal(t, len(data), tex.EndOffset)
	assert.Equal(t, 3, tex.Levels())

	assert.Equal(t, 2, tex.Images[1].Width)
	assert.Equal(t, data[HeaderSizeV2+64:HeaderSizeV2+80], tex.Images[1].Data)
	assert.Equal(t, Magic, tex.Header.Magic)
}

func TestLoadWithoutMipFlagUploadsOneLevel(t *testing.T) {
	// The count is still honoured when walking the data.
	h := Header{Width: 4, Height: 4, MipMapCount: 2, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	data := makePVR(t, h, pattern(64+16+4))

	tex, err := Load(data, Capabilities{}, Options{})
	require.NoError(t, err)
	assert.Len(t, tex.Images, 1)
	assert.Equal(t, GLLinear, tex.MinFilter)
	assert.Equal(t, len(data), tex.EndOffset)
}

func TestLoadCompressedCubeMapFromLevel(t *testing.T) {
	// 32x32 PVRTC4: 512, 128, then the 8x8 minimum (32 bytes) for 8, 4, 2 and 1.
	levelSizes := []int{512, 128, 32, 32, 32, 32}
	perFace := 0
	for _, s := range levelSizes {
		perFace += s
	}

	h := Header{
		Width: 32, Height: 32, MipMapCount: 5, BitCount: 4,
		Flags: uint32(OGLPVRTC4) | FlagMipMap | FlagCubeMap | FlagTwiddle,
	}
	data := makePVR(t, h, pattern(6*perFace))

	rec := &Recorder{}
	tex, err := Load(data, Capabilities{PVRTC: true}, Options{FirstLevel: 2, Uploader: rec})
	require.NoError(t, err)

	assert.Equal(t, HeaderSizeV2+6*perFace, tex.EndOffset)
	assert.Equal(t, GLTextureCubeMap, tex.Target)
	assert.True(t, tex.Compressed)
	assert.Equal(t, GLCompressedRGBPVRTC4, tex.InternalFormat)
	assert.Equal(t, uint32(6), tex.Header.NumSurfaces)
	require.Len(t, tex.Images, 6*4)

	skipped := levelSizes[0] + levelSizes[1]
	for face := 0; face < 6; face++ {
		img := tex.Images[face*4]
		assert.Equal(t, GLTextureCubeMapPositiveX+uint32(face), img.Target)
		assert.Equal(t, 0, img.Level)
		assert.Equal(t, 8, img.Width)
		start := HeaderSizeV2 + face*perFace + skipped
		assert.Equal(t, data[start:start+32], img.Data, "face %d", face)
	}

	last := tex.Images[len(tex.Images)-1]
	assert.Equal(t, 3, last.Level)
	assert.Equal(t, 1, last.Width)

	require.Len(t, rec.Calls, 1+24+1)
	assert.Equal(t, "bind 0x8513", rec.Calls[0])
	assert.Contains(t, rec.Calls[1], "compressed-teximage 0x8515 level=0 8x8")
	assert.Contains(t, rec.Calls[25], "min=0x2703")
}

func TestLoadForcesClampForNonPowerOfTwo(t *testing.T) {
	h := Header{Width: 100, Height: 50, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	data := makePVR(t, h, make([]byte, 100*50*4))

	for _, wrap := range []uint32{0, GLRepeat, GLClampToEdge} {
		tex, err := Load(data, Capabilities{}, Options{Wrap: wrap})
		require.NoError(t, err)
		assert.Equal(t, GLClampToEdge, tex.WrapS)
		assert.Equal(t, GLClampToEdge, tex.WrapT)
	}
}

func TestLoadHonoursRequestedWrap(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	tex, err := Load(makePVR(t, h, make([]byte, 16)), Capabilities{}, Options{Wrap: GLClampToEdge})
	require.NoError(t, err)
	assert.Equal(t, GLClampToEdge, tex.WrapS)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name  string
		h     Header
		body  int
		caps  Capabilities
		opts  Options
		kind  error
		match string
	}{
		{"rgb555", Header{Width: 2, Height: 2, BitCount: 16, Flags: uint32(OGLRGB555)}, 8, Capabilities{}, Options{}, ErrUnsupported, "OGL_RGB_555"},
		{"unknown type", Header{Width: 2, Height: 2, Flags: 0x7F}, 8, Capabilities{}, Options{}, ErrUnsupported, "not supported"},
		{"twiddled rgba", Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888) | FlagTwiddle}, 16, Capabilities{}, Options{}, ErrUnsupported, "twiddled"},
		{"pvrtc no ext", Header{Width: 8, Height: 8, Flags: uint32(OGLPVRTC4)}, 32, Capabilities{}, Options{}, ErrMissingExtension, ExtPVRTC},
		{"etc no ext", Header{Width: 4, Height: 4, Flags: uint32(ETCRGB4BPP)}, 8, Capabilities{}, Options{}, ErrMissingExtension, ExtETC1},
		{"bgra no ext", Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLBGRA8888)}, 16, Capabilities{}, Options{AllowDecompress: true}, ErrMissingExtension, ExtBGRA8888},
		{"half float no ext", Header{Width: 2, Height: 2, BitCount: 64, Flags: uint32(D3DABGR16161616F)}, 32, Capabilities{Float: true}, Options{AllowDecompress: true}, ErrMissingExtension, ExtHalfFloat},
		{"float no ext", Header{Width: 2, Height: 2, BitCount: 128, Flags: uint32(D3DABGR32323232F)}, 64, Capabilities{HalfFloat: true}, Options{}, ErrMissingExtension, ExtFloat},
		{"truncated", Header{Width: 4, Height: 4, BitCount: 32, Flags: uint32(OGLRGBA8888)}, 10, Capabilities{}, Options{}, ErrTruncated, "level 0"},
		{"first level", Header{Width: 4, Height: 4, BitCount: 32, Flags: uint32(OGLRGBA8888)}, 64, Capabilities{}, Options{FirstLevel: 1}, ErrUnsupported, "first level 1"},
		{"cube surfaces", Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888) | FlagCubeMap, NumSurfaces: 2}, 32, Capabilities{}, Options{}, ErrUnsupported, "2 surfaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(makePVR(t, tt.h, make([]byte, tt.body)), tt.caps, tt.opts)
			requireKind(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.match)
		})
	}
}

func TestLoadDecompressesWhenAllowed(t *testing.T) {
	h := Header{Width: 8, Height: 8, BitCount: 4, Flags: uint32(OGLPVRTC4), AlphaMask: 0xFF}
	data := makePVR(t, h, make([]byte, 32))

	tex, err := Load(data, Capabilities{}, Options{AllowDecompress: true})
	require.NoError(t, err)
	assert.True(t, tex.Decompressed)
	assert.False(t, tex.Compressed)
	assert.Equal(t, GLRGBA, tex.InternalFormat)
	assert.Equal(t, GLRGBA, tex.Format)
	assert.Equal(t, GLUnsignedByte, tex.Type)
	require.Len(t, tex.Images, 1)
	assert.Len(t, tex.Images[0].Data, 8*8*4)

	tex, err = Load(data, Capabilities{PVRTC: true}, Options{AllowDecompress: true})
	require.NoError(t, err)
	assert.False(t, tex.Decompressed)
	assert.Equal(t, GLCompressedRGBAPVRTC4, tex.InternalFormat)
}

func TestLoadETCDecompress(t *testing.T) {
	h := Header{Width: 8, Height: 4, Flags: uint32(ETCRGB4BPP)}
	tex, err := Load(makePVR(t, h, make([]byte, 16)), Capabilities{}, Options{AllowDecompress: true})
	require.NoError(t, err)
	assert.Len(t, tex.Images[0].Data, 8*4*4)
	assert.Equal(t, HeaderSizeV2+16, tex.EndOffset)
}

func TestLoadFloatFilters(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitCount: 64, MipMapCount: 1, Flags: uint32(D3DABGR16161616F) | FlagMipMap}
	tex, err := Load(makePVR(t, h, make([]byte, 32+8)), Capabilities{HalfFloat: true}, Options{})
	require.NoError(t, err)
	assert.Equal(t, GLNearestMipmapNearest, tex.MinFilter)
	assert.Equal(t, GLNearest, tex.MagFilter)
	assert.Equal(t, GLHalfFloatOES, tex.Type)

	h.MipMapCount, h.Flags = 0, uint32(D3DABGR32323232F)
	h.BitCount = 128
	tex, err = Load(makePVR(t, h, make([]byte, 64)), Capabilities{Float: true}, Options{})
	require.NoError(t, err)
	assert.Equal(t, GLNearest, tex.MinFilter)
}

func TestLoadHeaderOverride(t *testing.T) {
	file := Header{Width: 4, Height: 4, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	data := makePVR(t, file, make([]byte, 64))

	override := Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	tex, err := Load(data, Capabilities{}, Options{Header: &override})
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width())
	assert.Equal(t, 2, tex.Height())
	assert.Equal(t, uint32(4), tex.Header.Width)
	assert.Equal(t, HeaderSizeV2+16, tex.EndOffset)
}

type failingUploader struct {
	Recorder
	failUpload bool
}

var errGPU = errors.New("out of texture memory")

func (f *failingUploader) Bind(target uint32) error {
	if !f.failUpload {
		return errGPU
	}
	return f.Recorder.Bind(target)
}

func (f *failingUploader) Upload(tex *Texture, img Image) error {
	return errGPU
}

func TestLoadHostFailure(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	data := makePVR(t, h, make([]byte, 16))

	for _, up := range []*failingUploader{{failUpload: false}, {failUpload: true}} {
		_, err := Load(data, Capabilities{}, Options{Uploader: up})
		requireKind(t, err, ErrHostAPI)
		assert.ErrorIs(t, err, errGPU)
	}
}

func TestLoadFile(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888)}
	data := makePVR(t, h, pattern(16))
	packed, err := blob.Compress(data, blob.Zstd)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "tex.pvr.zst")
	require.NoError(t, os.WriteFile(path, packed, 0644))

	tex, err := LoadFile(path, Capabilities{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, data[HeaderSizeV2:], tex.Images[0].Data)

	_, err = LoadFile(filepath.Join(dir, "missing.pvr"), Capabilities{}, Options{})
	requireKind(t, err, ErrResource)
}

func TestLoadOversizedHeader(t *testing.T) {
	const huge = 0xFFFFFFFF
	tests := []struct {
		name string
		h    Header
		caps Capabilities
	}{
		{"rgba8888", Header{Width: huge, Height: huge, BitCount: 32, Flags: uint32(OGLRGBA8888)}, Capabilities{}},
		{"rgba8888 mip chain", Header{Width: huge, Height: huge, BitCount: 32, MipMapCount: 31, Flags: uint32(OGLRGBA8888) | FlagMipMap}, Capabilities{}},
		{"bit count", Header{Width: 2, Height: 2, BitCount: huge, Flags: uint32(OGLRGBA8888)}, Capabilities{}},
		{"pvrtc4", Header{Width: huge, Height: huge, BitCount: 4, Flags: uint32(OGLPVRTC4)}, Capabilities{PVRTC: true}},
		{"etc", Header{Width: huge, Height: huge, Flags: uint32(ETCRGB4BPP)}, Capabilities{ETC1: true}},
		{"wide", Header{Width: huge, Height: 1, BitCount: 8, Flags: uint32(OGLI8)}, Capabilities{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makePVR(t, tt.h, pattern(64))
			assert.NotPanics(t, func() {
				_, err := Load(data, tt.caps, Options{AllowDecompress: true})
				requireKind(t, err, ErrTruncated)
			})
		})
	}
}

func TestLoadReadsPastExtraSurfaces(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitCount: 32, Flags: uint32(OGLRGBA8888), NumSurfaces: 2}
	data := makePVR(t, h, pattern(32))

	tex, err := Load(data, Capabilities{}, Options{})
	require.NoError(t, err)
	require.Len(t, tex.Images, 1)
	assert.Equal(t, data[HeaderSizeV2:HeaderSizeV2+16], tex.Images[0].Data)
	assert.Equal(t, HeaderSizeV2+32, tex.EndOffset)

	_, err = Load(data[:HeaderSizeV2+16], Capabilities{}, Options{})
	requireKind(t, err, ErrTruncated)
}
