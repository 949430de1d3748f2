package pvr

import (
	"fmt"
	"math/bits"
)

// PixelType is the low byte of Header.Flags.
type PixelType uint32

const (
	OGLRGBA4444      PixelType = 0x10
	OGLRGBA5551      PixelType = 0x11
	OGLRGBA8888      PixelType = 0x12
	OGLRGB565        PixelType = 0x13
	OGLRGB555        PixelType = 0x14
	OGLRGB888        PixelType = 0x15
	OGLI8            PixelType = 0x16
	OGLAI88          PixelType = 0x17
	OGLPVRTC2        PixelType = 0x18
	OGLPVRTC4        PixelType = 0x19
	OGLBGRA8888      PixelType = 0x1A
	OGLA8            PixelType = 0x1B
	D3DABGR16161616F PixelType = 0x32
	D3DABGR32323232F PixelType = 0x35
	ETCRGB4BPP       PixelType = 0x36
)

var pixelTypeNames = map[PixelType]string{
	OGLRGBA4444:      "OGL_RGBA_4444",
	OGLRGBA5551:      "OGL_RGBA_5551",
	OGLRGBA8888:      "OGL_RGBA_8888",
	OGLRGB565:        "OGL_RGB_565",
	OGLRGB555:        "OGL_RGB_555",
	OGLRGB888:        "OGL_RGB_888",
	OGLI8:            "OGL_I_8",
	OGLAI88:          "OGL_AI_88",
	OGLPVRTC2:        "OGL_PVRTC2",
	OGLPVRTC4:        "OGL_PVRTC4",
	OGLBGRA8888:      "OGL_BGRA_8888",
	OGLA8:            "OGL_A_8",
	D3DABGR16161616F: "D3D_ABGR_16161616F",
	D3DABGR32323232F: "D3D_ABGR_32323232F",
	ETCRGB4BPP:       "ETC_RGB_4BPP",
}

func (p PixelType) String() string {
	if s, ok := pixelTypeNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PixelType(0x%02X)", uint32(p))
}

// GL enums used in Texture and passed to an Uploader.
const (
	GLTexture2D               uint32 = 0x0DE1
	GLTextureCubeMap          uint32 = 0x8513
	GLTextureCubeMapPositiveX uint32 = 0x8515 // +X,-X,+Y,-Y,+Z,-Z follow in order

	GLUnsignedByte         uint32 = 0x1401
	GLFloat                uint32 = 0x1406
	GLUnsignedShort4444    uint32 = 0x8033
	GLUnsignedShort5551    uint32 = 0x8034
	GLUnsignedShort565     uint32 = 0x8363
	GLHalfFloatOES         uint32 = 0x8D61
	GLAlpha                uint32 = 0x1906
	GLRGB                  uint32 = 0x1907
	GLRGBA                 uint32 = 0x1908
	GLLuminance            uint32 = 0x1909
	GLLuminanceAlpha       uint32 = 0x190A
	GLBGRA                 uint32 = 0x80E1
	GLCompressedRGBPVRTC4  uint32 = 0x8C00
	GLCompressedRGBPVRTC2  uint32 = 0x8C01
	GLCompressedRGBAPVRTC4 uint32 = 0x8C02
	GLCompressedRGBAPVRTC2 uint32 = 0x8C03
	GLETC1RGB8             uint32 = 0x8D64

	GLNearest              uint32 = 0x2600
	GLLinear               uint32 = 0x2601
	GLNearestMipmapNearest uint32 = 0x2700
	GLLinearMipmapLinear   uint32 = 0x2703
	GLRepeat               uint32 = 0x2901
	GLClampToEdge          uint32 = 0x812F
)

// descriptor is what Load needs to know about a pixel type.
type descriptor struct {
	format         uint32
	internalFormat uint32
	typ            uint32
	alphaFormat    uint32 // compressed internal format when AlphaMask != 0
	bpp            uint32
	compressed     bool
	float          bool
	ext            string // required extension, "" for core formats
	decode         func(data []byte, w, h int) []byte
}

var descriptors = map[PixelType]descriptor{
	OGLRGBA4444: {format: GLRGBA, internalFormat: GLRGBA, typ: GLUnsignedShort4444, bpp: 16},
	OGLRGBA5551: {format: GLRGBA, internalFormat: GLRGBA, typ: GLUnsignedShort5551, bpp: 16},
	OGLRGBA8888: {format: GLRGBA, internalFormat: GLRGBA, typ: GLUnsignedByte, bpp: 32},
	OGLRGB565:   {format: GLRGB, internalFormat: GLRGB, typ: GLUnsignedShort565, bpp: 16},
	OGLRGB888:   {format: GLRGB, internalFormat: GLRGB, typ: GLUnsignedByte, bpp: 24},
	OGLI8:       {format: GLLuminance, internalFormat: GLLuminance, typ: GLUnsignedByte, bpp: 8},
	OGLAI88:     {format: GLLuminanceAlpha, internalFormat: GLLuminanceAlpha, typ: GLUnsignedByte, bpp: 16},
	OGLA8:       {format: GLAlpha, internalFormat: GLAlpha, typ: GLUnsignedByte, bpp: 8},
	OGLBGRA8888: {format: GLBGRA, internalFormat: GLBGRA, typ: GLUnsignedByte, bpp: 32, ext: ExtBGRA8888},
	OGLPVRTC2: {
		internalFormat: GLCompressedRGBPVRTC2, alphaFormat: GLCompressedRGBAPVRTC2,
		bpp: 2, compressed: true, ext: ExtPVRTC,
		decode: func(data []byte, w, h int) []byte { return DecompressPVRTC(data, true, w, h) },
	},
	OGLPVRTC4: {
		internalFormat: GLCompressedRGBPVRTC4, alphaFormat: GLCompressedRGBAPVRTC4,
		bpp: 4, compressed: true, ext: ExtPVRTC,
		decode: func(data []byte, w, h int) []byte { return DecompressPVRTC(data, false, w, h) },
	},
	ETCRGB4BPP: {
		internalFormat: GLETC1RGB8, alphaFormat: GLETC1RGB8,
		bpp: 4, compressed: true, ext: ExtETC1,
		decode: DecompressETC,
	},
	D3DABGR16161616F: {format: GLRGBA, internalFormat: GLRGBA, typ: GLHalfFloatOES, bpp: 64, float: true, ext: ExtHalfFloat},
	D3DABGR32323232F: {format: GLRGBA, internalFormat: GLRGBA, typ: GLFloat, bpp: 128, float: true, ext: ExtFloat},
}

// Smallest level dimensions each compressed format is stored at. PVRTC
// levels are never smaller than 2x2 blocks (8x4 pixels for 2bpp, 4x4 for
// 4bpp), so the minimums are those block grids in pixels.
const (
	pvrtc2MinWidth  = 16
	pvrtc2MinHeight = 8
	pvrtc4MinWidth  = 8
	pvrtc4MinHeight = 8
	etcMinWidth     = 4
	etcMinHeight    = 4
)

// LevelSize returns the byte length of one mip level. Compressed formats
// are clamped to their minimum stored size; other formats use bitCount,
// or the pixel type's own depth when bitCount is zero.
func LevelSize(pt PixelType, width, height int, bitCount uint32) int {
	switch pt {
	case OGLPVRTC2:
		return max(width, pvrtc2MinWidth) * max(height, pvrtc2MinHeight) * 2 / 8
	case OGLPVRTC4:
		return max(width, pvrtc4MinWidth) * max(height, pvrtc4MinHeight) * 4 / 8
	case ETCRGB4BPP:
		w := (max(width, etcMinWidth) + 3) / 4
		h := (max(height, etcMinHeight) + 3) / 4
		return w * h * 8
	}
	bpp := int(bitCount)
	if bpp == 0 {
		bpp = int(descriptors[pt].bpp)
	}
	return (width*height*bpp + 7) / 8
}

// levelSize64 is LevelSize for untrusted header dimensions. ok is false
// when the size does not fit in 64 bits.
func levelSize64(pt PixelType, width, height, bitCount uint32) (size uint64, ok bool) {
	w, h := uint64(width), uint64(height)
	var bpp uint64
	switch pt {
	case OGLPVRTC2:
		w, h, bpp = max(w, pvrtc2MinWidth), max(h, pvrtc2MinHeight), 2
	case OGLPVRTC4:
		w, h, bpp = max(w, pvrtc4MinWidth), max(h, pvrtc4MinHeight), 4
	case ETCRGB4BPP:
		blocks := ((max(w, etcMinWidth) + 3) / 4) * ((max(h, etcMinHeight) + 3) / 4)
		return mul64(blocks, 8)
	default:
		bpp = uint64(bitCount)
		if bpp == 0 {
			bpp = uint64(descriptors[pt].bpp)
		}
	}
	px, ok := mul64(w, h)
	if !ok {
		return 0, false
	}
	b, ok := mul64(px, bpp)
	if !ok || b > ^uint64(0)-7 {
		return 0, false
	}
	if pt == OGLPVRTC2 || pt == OGLPVRTC4 {
		return b / 8, true
	}
	return (b + 7) / 8, true
}

func mul64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// BPPUnknown is returned by FormatGetBPP for pairs it does not know.
const BPPUnknown uint32 = 0xFFFFFFFF

// FormatGetBPP returns bits per pixel for a GL format and type. Only the
// PVRTC internal formats and 32-bit RGBA/BGRA plus 16-bit RGBA5551 are
// known; anything else yields BPPUnknown.
func FormatGetBPP(format, typ uint32) uint32 {
	switch format {
	case GLCompressedRGBPVRTC2, GLCompressedRGBAPVRTC2:
		return 2
	case GLCompressedRGBPVRTC4, GLCompressedRGBAPVRTC4:
		return 4
	}

	switch typ {
	case GLUnsignedByte:
		switch format {
		case GLRGBA, GLBGRA:
			return 32
		}
		fallthrough
	case GLUnsignedShort5551:
		switch format {
		case GLRGBA:
			return 16
		}
	}
	return BPPUnknown
}
