package pvr

import "strings"

// GL extensions that gate non-core pixel types.
const (
	ExtPVRTC     = "GL_IMG_texture_compression_pvrtc"
	ExtBGRA8888  = "GL_IMG_texture_format_BGRA8888"
	ExtHalfFloat = "GL_OES_texture_half_float"
	ExtFloat     = "GL_OES_texture_float"
	ExtETC1      = "GL_OES_compressed_ETC1_RGB8_texture"
)

// Capabilities records which optional formats the host can upload
// directly. It is captured once per Load call.
type Capabilities struct {
	PVRTC     bool
	BGRA8888  bool
	HalfFloat bool
	Float     bool
	ETC1      bool
}

// ParseExtensions builds Capabilities from a space separated GL_EXTENSIONS
// string. Names are matched whole, so a prefix of a longer name does not
// count.
func ParseExtensions(exts string) Capabilities {
	var c Capabilities
	for _, name := range strings.Fields(exts) {
		switch name {
		case ExtPVRTC:
			c.PVRTC = true
		case ExtBGRA8888:
			c.BGRA8888 = true
		case ExtHalfFloat:
			c.HalfFloat = true
		case ExtFloat:
			c.Float = true
		case ExtETC1:
			c.ETC1 = true
		}
	}
	return c
}

// Has reports whether ext is supported. The empty name is always supported.
func (c Capabilities) Has(ext string) bool {
	switch ext {
	case "":
		return true
	case ExtPVRTC:
		return c.PVRTC
	case ExtBGRA8888:
		return c.BGRA8888
	case ExtHalfFloat:
		return c.HalfFloat
	case ExtFloat:
		return c.Float
	case ExtETC1:
		return c.ETC1
	}
	return false
}

// Decompresses reports whether Load would decode a texture with header h
// in software: its format has a decoder, the extension it needs is missing
// and allow permits it.
func (c Capabilities) Decompresses(h Header, allow bool) bool {
	pt := h.PixelType()
	if h.IsTwiddled() && pt != OGLPVRTC2 && pt != OGLPVRTC4 {
		return false
	}
	d, ok := descriptors[pt]
	return ok && allow && d.decode != nil && !c.Has(d.ext)
}

// Extensions lists the supported extension names in a fixed order.
func (c Capabilities) Extensions() []string {
	var out []string
	for _, ext := range []string{ExtPVRTC, ExtBGRA8888, ExtHalfFloat, ExtFloat, ExtETC1} {
		if c.Has(ext) {
			out = append(out, ext)
		}
	}
	return out
}
