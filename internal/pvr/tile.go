package pvr

import (
	"math"
	"math/bits"
)

// tileLayout describes how a pixel type is cut into copyable blocks.
type tileLayout struct {
	blockW, blockH int
	minW, minH     int
	bytes          int
	twiddled       bool // block order is always Morton
}

var tileLayouts = map[PixelType]tileLayout{
	OGLPVRTC2:   {blockWidth2, blockHeight, pvrtc2MinWidth, pvrtc2MinHeight, pvrtcBlockLen, true},
	OGLPVRTC4:   {blockWidth4, blockHeight, pvrtc4MinWidth, pvrtc4MinHeight, pvrtcBlockLen, true},
	OGLRGBA8888: {1, 1, 1, 1, 4, false},
	OGLBGRA8888: {1, 1, 1, 1, 4, false},
	OGLRGBA5551: {1, 1, 1, 1, 2, false},
}

// Tile returns a new PVR file whose texture is src repeated repeat times
// in each direction. The result has a full mip chain when src has mip maps
// and a single level otherwise; levels deeper than src's last one repeat
// src's last level.
//
// Tile panics if src is not square or repeat is less than 2. Formats other
// than PVRTC, RGBA8888, BGRA8888 and RGBA5551 return ErrUnsupported.
func Tile(src []byte, repeat int) ([]byte, error) {
	h, err := ParseHeader(src)
	if err != nil {
		return nil, err
	}
	if h.Width != h.Height {
		panic("pvr: Tile needs a square texture")
	}
	if repeat <= 1 {
		panic("pvr: Tile repeat must exceed 1")
	}

	pt := h.PixelType()
	layout, ok := tileLayouts[pt]
	if !ok || h.IsCubeMap() {
		return nil, newError(ErrUnsupported, "cannot tile %s textures", pt)
	}
	twiddled := layout.twiddled || h.IsTwiddled()
	if layout.blockW == 1 && h.BitCount != 0 && int(h.BitCount) != layout.bytes*8 {
		return nil, newError(ErrUnsupported, "%s texture with bit count %d", pt, h.BitCount)
	}

	if size, ok := levelSize64(pt, h.Width, h.Height, 0); !ok || size > uint64(len(src)) {
		return nil, newError(ErrTruncated, "%dx%d %s level 0 does not fit in %d bytes", h.Width, h.Height, pt, len(src))
	}
	dst, ok := mul64(uint64(h.Width), uint64(repeat))
	if !ok || dst > math.MaxUint32 {
		return nil, newError(ErrUnsupported, "%d x %d exceeds the maximum texture size", h.Width, repeat)
	}
	if size, ok := levelSize64(pt, uint32(dst), uint32(dst), 0); !ok || size > math.MaxInt32 {
		return nil, newError(ErrUnsupported, "tiled %dx%d %s level is too large", dst, dst, pt)
	}

	srcSize := int(h.Width)
	dstSize := int(dst)
	if twiddled && (!isPowerOfTwo(srcSize) || !isPowerOfTwo(dstSize)) {
		return nil, newError(ErrUnsupported, "twiddled tiling needs power of two sizes, got %d x %d", srcSize, repeat)
	}
	srcLevels := 1
	if h.HasMipMaps() {
		srcLevels = int(h.MipMapCount) + 1
	}
	srcOffsets := make([]int, srcLevels)
	cursor := int(h.HeaderSize)
	for level := 0; level < srcLevels; level++ {
		srcOffsets[level] = cursor
		dim := max(srcSize>>level, 1)
		cursor += LevelSize(pt, dim, dim, 0)
	}
	if cursor > len(src) {
		return nil, newError(ErrTruncated, "tile source needs %d bytes, have %d", cursor, len(src))
	}

	dstLevels := 1
	if h.HasMipMaps() {
		dstLevels = bits.Len(uint(dstSize))
	}

	out := h
	out.HeaderSize = HeaderSizeV2
	out.Width, out.Height = uint32(dstSize), uint32(dstSize)
	out.MipMapCount = uint32(dstLevels - 1)
	out.Magic = Magic
	out.NumSurfaces = 1

	var body []byte
	for level := 0; level < dstLevels; level++ {
		dstDim := max(dstSize>>level, 1)
		srcLevel := min(level, srcLevels-1)
		srcDim := max(srcSize>>srcLevel, 1)

		buf := make([]byte, LevelSize(pt, dstDim, dstDim, 0))
		layout.copyTiled(buf, dstDim, src[srcOffsets[srcLevel]:], srcDim, twiddled)
		body = append(body, buf...)
	}
	out.DataSize = uint32(len(body))

	hdr, err := out.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(hdr, body...), nil
}

func (l tileLayout) blocks(dim int) (int, int) {
	return max(dim, l.minW) / l.blockW, max(dim, l.minH) / l.blockH
}

// copyTiled fills dst with blocks of src, wrapping source coordinates.
func (l tileLayout) copyTiled(dst []byte, dstDim int, src []byte, srcDim int, twiddled bool) {
	dbx, dby := l.blocks(dstDim)
	sbx, sby := l.blocks(srcDim)

	for by := 0; by < dby; by++ {
		for bx := 0; bx < dbx; bx++ {
			sx, sy := bx%sbx, by%sby
			var di, si int
			if twiddled {
				di = twiddleUV(dby, dbx, by, bx)
				si = twiddleUV(sby, sbx, sy, sx)
			} else {
				di = by*dbx + bx
				si = sy*sbx + sx
			}
			copy(dst[di*l.bytes:(di+1)*l.bytes], src[si*l.bytes:(si+1)*l.bytes])
		}
	}
}
