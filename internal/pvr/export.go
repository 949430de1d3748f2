package pvr

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Find returns the uploaded image for a face and level, face 0 for 2D
// textures.
func (t *Texture) Find(face, level int) (Image, bool) {
	target := t.Target
	if t.Target == GLTextureCubeMap {
		target = GLTextureCubeMapPositiveX + uint32(face)
	} else if face != 0 {
		return Image{}, false
	}
	for _, img := range t.Images {
		if img.Target == target && img.Level == level {
			return img, true
		}
	}
	return Image{}, false
}

// RGBA converts one uploaded image to an NRGBA image. Compressed and float
// textures must have been decompressed by Load to be convertible.
func (t *Texture) RGBA(face, level int) (*image.NRGBA, error) {
	img, ok := t.Find(face, level)
	if !ok {
		return nil, fmt.Errorf("no image for face %d level %d", face, level)
	}
	if t.Compressed {
		return nil, fmt.Errorf("texture is compressed (internal format 0x%04X)", t.InternalFormat)
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	n := img.Width * img.Height
	src := img.Data
	px := out.Pix

	if bpp := pixelBytes(t.Format, t.Type); len(src) < n*bpp {
		return nil, fmt.Errorf("image data short: %d bytes for %dx%d", len(src), img.Width, img.Height)
	}

	get16 := func(i int) uint16 { return binary.LittleEndian.Uint16(src[i*2:]) }

	switch {
	case t.Format == GLRGBA && t.Type == GLUnsignedByte:
		copy(px, src[:n*4])
	case t.Format == GLBGRA && t.Type == GLUnsignedByte:
		for i := 0; i < n; i++ {
			px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = src[i*4+2], src[i*4+1], src[i*4], src[i*4+3]
		}
	case t.Format == GLRGB && t.Type == GLUnsignedByte:
		for i := 0; i < n; i++ {
			px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = src[i*3], src[i*3+1], src[i*3+2], 0xFF
		}
	case t.Format == GLRGBA && t.Type == GLUnsignedShort4444:
		for i := 0; i < n; i++ {
			v := get16(i)
			px[i*4] = uint8(v>>12) * 0x11
			px[i*4+1] = uint8(v>>8&0xF) * 0x11
			px[i*4+2] = uint8(v>>4&0xF) * 0x11
			px[i*4+3] = uint8(v&0xF) * 0x11
		}
	case t.Format == GLRGBA && t.Type == GLUnsignedShort5551:
		for i := 0; i < n; i++ {
			v := get16(i)
			px[i*4] = scale5(v >> 11)
			px[i*4+1] = scale5(v >> 6 & 0x1F)
			px[i*4+2] = scale5(v >> 1 & 0x1F)
			px[i*4+3] = uint8(v&1) * 0xFF
		}
	case t.Format == GLRGB && t.Type == GLUnsignedShort565:
		for i := 0; i < n; i++ {
			v := get16(i)
			px[i*4] = scale5(v >> 11)
			px[i*4+1] = uint8(uint32(v>>5&0x3F) * 255 / 63)
			px[i*4+2] = scale5(v & 0x1F)
			px[i*4+3] = 0xFF
		}
	case t.Format == GLLuminance:
		for i := 0; i < n; i++ {
			px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = src[i], src[i], src[i], 0xFF
		}
	case t.Format == GLLuminanceAlpha:
		for i := 0; i < n; i++ {
			l := src[i*2]
			px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = l, l, l, src[i*2+1]
		}
	case t.Format == GLAlpha:
		for i := 0; i < n; i++ {
			px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = 0, 0, 0, src[i]
		}
	default:
		return nil, fmt.Errorf("cannot convert format 0x%04X type 0x%04X", t.Format, t.Type)
	}
	return out, nil
}

// pixelBytes is the byte size of one uncompressed pixel, 0 if unknown.
func pixelBytes(format, typ uint32) int {
	switch typ {
	case GLUnsignedShort4444, GLUnsignedShort5551, GLUnsignedShort565:
		return 2
	case GLUnsignedByte:
		switch format {
		case GLRGBA, GLBGRA:
			return 4
		case GLRGB:
			return 3
		case GLLuminanceAlpha:
			return 2
		case GLLuminance, GLAlpha:
			return 1
		}
	}
	return 0
}

func scale5(v uint16) uint8 { return uint8(uint32(v) * 255 / 31) }

// Encode writes img as format, one of png, tga, bmp or tiff.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "tga":
		return tga.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unknown image format %q", format)
}

// FormatFromPath returns the Encode format named by path's extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
