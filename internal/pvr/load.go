package pvr

import (
	"github.com/ernie/pvrfx/internal/blob"
)

// Options control a single Load.
type Options struct {
	// AllowDecompress lets PVRTC and ETC1 data be decoded to RGBA8888 when
	// the host lacks the extension. Without it Load fails instead.
	AllowDecompress bool
	// FirstLevel skips uploading mip levels below it. The skipped levels
	// are still read past.
	FirstLevel int
	// Wrap is the requested wrap mode, GLRepeat when zero. Non power of
	// two textures always get GLClampToEdge.
	Wrap uint32
	// Header, when set, replaces the file header for dimensions, flags and
	// mip count. Texture.Header still reports the file's own header.
	Header *Header
	// Uploader receives every level. It may be nil.
	Uploader Uploader
}

// Image is one uploaded face level.
type Image struct {
	Target uint32 // GLTexture2D or a cube map face
	Level  int    // relative to Options.FirstLevel
	Width  int
	Height int
	Data   []byte
}

// Texture is the result of a Load: the resolved GL format, the sampler
// state and every level that was uploaded.
type Texture struct {
	Header         Header
	Target         uint32
	InternalFormat uint32
	Format         uint32
	Type           uint32
	Compressed     bool
	Decompressed   bool
	MinFilter      uint32
	MagFilter      uint32
	WrapS          uint32
	WrapT          uint32
	Images         []Image
	EndOffset      int // bytes consumed from the input, header included
}

// Width and Height of the first uploaded level.
func (t *Texture) Width() int {
	if len(t.Images) == 0 {
		return 0
	}
	return t.Images[0].Width
}

func (t *Texture) Height() int {
	if len(t.Images) == 0 {
		return 0
	}
	return t.Images[0].Height
}

// Levels reports how many levels were uploaded per face.
func (t *Texture) Levels() int {
	n := 0
	for _, img := range t.Images {
		if img.Target == t.Images[0].Target {
			n++
		}
	}
	return n
}

// LoadFile reads a PVR file, inflating .zst and .lz4 payloads, and loads it.
func LoadFile(path string, caps Capabilities, opts Options) (*Texture, error) {
	data, err := blob.ReadFile(path)
	if err != nil {
		return nil, wrapError(ErrResource, err, "load texture %s", path)
	}
	return Load(data, caps, opts)
}

// Load validates a PVR blob, resolves its GL format against caps and walks
// every face and level in file order. Faces are stored one after another,
// each as a full mip chain from level 0.
func Load(data []byte, caps Capabilities, opts Options) (*Texture, error) {
	fileHeader, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	h := fileHeader
	if opts.Header != nil {
		h = *opts.Header
		h.resolveSurfaces()
	}

	pt := h.PixelType()
	if h.IsTwiddled() && pt != OGLPVRTC2 && pt != OGLPVRTC4 {
		return nil, newError(ErrUnsupported, "twiddled %s textures are not supported", pt)
	}
	d, ok := descriptors[pt]
	if !ok {
		return nil, newError(ErrUnsupported, "pixel type %s not supported", pt)
	}

	tex := &Texture{
		Target:         GLTexture2D,
		InternalFormat: d.internalFormat,
		Format:         d.format,
		Type:           d.typ,
		Compressed:     d.compressed,
	}
	if d.compressed && h.AlphaMask != 0 {
		tex.InternalFormat = d.alphaFormat
	}

	if !caps.Has(d.ext) {
		if d.decode == nil || !opts.AllowDecompress {
			return nil, newError(ErrMissingExtension, "%s requires extension %s", pt, d.ext)
		}
		tex.InternalFormat, tex.Format, tex.Type = GLRGBA, GLRGBA, GLUnsignedByte
		tex.Compressed = false
		tex.Decompressed = true
	}

	if size, ok := levelSize64(pt, h.Width, h.Height, h.BitCount); !ok || size > uint64(len(data)) {
		return nil, newError(ErrTruncated, "%dx%d %s level 0 does not fit in %d bytes", h.Width, h.Height, pt, len(data))
	}

	// Surfaces past the first of a non cube map are read past, not uploaded.
	faces, surfaces := 1, int(h.NumSurfaces)
	if h.IsCubeMap() {
		if h.NumSurfaces != 6 {
			return nil, newError(ErrUnsupported, "cube map with %d surfaces", h.NumSurfaces)
		}
		tex.Target = GLTextureCubeMap
		faces = 6
	}
	surfaces = max(surfaces, faces)

	stored := int(h.MipMapCount) + 1
	uploaded := 1
	if h.HasMipMaps() {
		uploaded = stored
	}
	if opts.FirstLevel < 0 || opts.FirstLevel >= uploaded {
		return nil, newError(ErrUnsupported, "first level %d outside 0..%d", opts.FirstLevel, uploaded-1)
	}

	up := opts.Uploader
	if up != nil {
		if err := up.Bind(tex.Target); err != nil {
			return nil, wrapError(ErrHostAPI, err, "bind texture")
		}
	}

	cursor := int(fileHeader.HeaderSize)
	for face := 0; face < surfaces; face++ {
		target := tex.Target
		if h.IsCubeMap() {
			target = GLTextureCubeMapPositiveX + uint32(face)
		}
		upload := face < faces

		w, ht := int(h.Width), int(h.Height)
		for level := 0; level < stored; level++ {
			size := LevelSize(pt, w, ht, h.BitCount)
			if size < 0 || cursor+size > len(data) {
				return nil, newError(ErrTruncated, "face %d level %d needs %d bytes at offset %d, have %d", face, level, size, cursor, len(data))
			}

			if upload && level >= opts.FirstLevel && level < uploaded {
				img := Image{
					Target: target,
					Level:  level - opts.FirstLevel,
					Width:  w,
					Height: ht,
					Data:   data[cursor : cursor+size],
				}
				if tex.Decompressed {
					img.Data = d.decode(img.Data, w, ht)
				}
				if up != nil {
					if err := up.Upload(tex, img); err != nil {
						return nil, wrapError(ErrHostAPI, err, "upload face %d level %d", face, level)
					}
				}
				tex.Images = append(tex.Images, img)
			}

			cursor += size
			w, ht = max(w>>1, 1), max(ht>>1, 1)
		}
	}
	tex.EndOffset = cursor

	perFace := uploaded - opts.FirstLevel
	switch {
	case d.float && perFace > 1:
		tex.MinFilter, tex.MagFilter = GLNearestMipmapNearest, GLNearest
	case d.float:
		tex.MinFilter, tex.MagFilter = GLNearest, GLNearest
	case perFace > 1:
		tex.MinFilter, tex.MagFilter = GLLinearMipmapLinear, GLLinear
	default:
		tex.MinFilter, tex.MagFilter = GLLinear, GLLinear
	}

	wrap := opts.Wrap
	if wrap == 0 {
		wrap = GLRepeat
	}
	firstW, firstH := max(int(h.Width)>>opts.FirstLevel, 1), max(int(h.Height)>>opts.FirstLevel, 1)
	if !isPowerOfTwo(firstW) || !isPowerOfTwo(firstH) {
		wrap = GLClampToEdge
	}
	tex.WrapS, tex.WrapT = wrap, wrap

	if up != nil {
		if err := up.SetParameters(tex); err != nil {
			return nil, wrapError(ErrHostAPI, err, "set texture parameters")
		}
	}

	tex.Header = fileHeader
	tex.Header.Magic = Magic
	return tex, nil
}
