// Package pvr reads PVR v1/v2 texture containers, resolves their pixel
// format against the GL extensions a host reports and, when the host lacks
// one, decodes PVRTC and ETC1 data to RGBA8888 in software.
package pvr

import (
	"bytes"
	"encoding/binary"
)

const (
	HeaderSizeV1 = 44 // legacy header, no magic or surface count
	HeaderSizeV2 = 52

	Magic uint32 = 0x21525650 // "PVR!"
)

// Header flag bits. The pixel type lives in the low byte.
const (
	FlagMipMap       uint32 = 1 << 8
	FlagTwiddle      uint32 = 1 << 9
	FlagBumpMap      uint32 = 1 << 10
	FlagTiling       uint32 = 1 << 11
	FlagCubeMap      uint32 = 1 << 12
	FlagFalseMipCol  uint32 = 1 << 13
	FlagVolume       uint32 = 1 << 14
	FlagAlpha        uint32 = 1 << 15
	FlagVerticalFlip uint32 = 1 << 16

	pixelTypeMask uint32 = 0xff
)

// Header is the on-disk PVR v2 header. A v1 header is the same without the
// trailing Magic and NumSurfaces fields.
type Header struct {
	HeaderSize  uint32
	Height      uint32
	Width       uint32
	MipMapCount uint32
	Flags       uint32
	DataSize    uint32
	BitCount    uint32
	RMask       uint32
	GMask       uint32
	BMask       uint32
	AlphaMask   uint32
	Magic       uint32
	NumSurfaces uint32
}

type headerV1 struct {
	HeaderSize  uint32
	Height      uint32
	Width       uint32
	MipMapCount uint32
	Flags       uint32
	DataSize    uint32
	BitCount    uint32
	RMask       uint32
	GMask       uint32
	BMask       uint32
	AlphaMask   uint32
}

// ParseHeader reads the header at the start of data. The header size field
// must name a known version. NumSurfaces is resolved to 1, or 6 for cube
// maps, when a v1 header has none or a v2 encoder wrote zero.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < 4 {
		return h, newError(ErrNotPVR, "not a valid pvr: %d bytes", len(data))
	}

	size := binary.LittleEndian.Uint32(data)
	switch size {
	case HeaderSizeV2:
		if len(data) < HeaderSizeV2 {
			return h, newError(ErrTruncated, "pvr header truncated: %d of %d bytes", len(data), HeaderSizeV2)
		}
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
			return h, wrapError(ErrNotPVR, err, "read pvr header")
		}
	case HeaderSizeV1:
		if len(data) < HeaderSizeV1 {
			return h, newError(ErrTruncated, "pvr header truncated: %d of %d bytes", len(data), HeaderSizeV1)
		}
		var v1 headerV1
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &v1); err != nil {
			return h, wrapError(ErrNotPVR, err, "read pvr header")
		}
		h = Header{
			HeaderSize:  v1.HeaderSize,
			Height:      v1.Height,
			Width:       v1.Width,
			MipMapCount: v1.MipMapCount,
			Flags:       v1.Flags,
			DataSize:    v1.DataSize,
			BitCount:    v1.BitCount,
			RMask:       v1.RMask,
			GMask:       v1.GMask,
			BMask:       v1.BMask,
			AlphaMask:   v1.AlphaMask,
		}
	default:
		return h, newError(ErrNotPVR, "not a valid pvr: header size %d", size)
	}

	h.resolveSurfaces()
	return h, nil
}

func (h *Header) resolveSurfaces() {
	if h.NumSurfaces != 0 {
		return
	}
	if h.IsCubeMap() {
		h.NumSurfaces = 6
	} else {
		h.NumSurfaces = 1
	}
}

// MarshalBinary encodes h as a 52-byte v2 header.
func (h Header) MarshalBinary() ([]byte, error) {
	return binary.Append(make([]byte, 0, HeaderSizeV2), binary.LittleEndian, h)
}

func (h Header) PixelType() PixelType { return PixelType(h.Flags & pixelTypeMask) }
func (h Header) IsCubeMap() bool      { return h.Flags&FlagCubeMap != 0 }
func (h Header) HasMipMaps() bool     { return h.Flags&FlagMipMap != 0 }
func (h Header) IsTwiddled() bool     { return h.Flags&FlagTwiddle != 0 }
