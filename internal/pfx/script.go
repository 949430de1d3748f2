package pfx

// Script is the result of parsing one PFX effect script.
type Script struct {
	Header          Header
	Textures        []Texture
	RenderPasses    []RenderPass
	VertexShaders   []Shader
	FragmentShaders []Shader
	Effects         []Effect
}

// Header holds the [HEADER] metadata. Absent keywords stay empty.
type Header struct {
	Version     string
	Description string
	Copyright   string
}

// Filter is a texture filtering mode for one of the min/mag/mip stages.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNone // mip stage only
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "NEAREST"
	case FilterLinear:
		return "LINEAR"
	case FilterNone:
		return "NONE"
	}
	return "UNKNOWN"
}

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

func (w Wrap) String() string {
	if w == WrapClamp {
		return "CLAMP"
	}
	return "REPEAT"
}

// Format is the pixel format requested for a texture or render target.
type Format int

const (
	FormatRGBA8888 Format = iota
	FormatRGBA4444
	FormatRGBA5551
	FormatRGB565
	FormatRGB888
	FormatI8
	FormatAI88
	FormatA8
	FormatFloat16
	FormatFloat32
)

var formatNames = map[string]Format{
	"RGBA8888": FormatRGBA8888,
	"RGBA4444": FormatRGBA4444,
	"RGBA5551": FormatRGBA5551,
	"RGB565":   FormatRGB565,
	"RGB888":   FormatRGB888,
	"I8":       FormatI8,
	"AI88":     FormatAI88,
	"A8":       FormatA8,
	"FLOAT16":  FormatFloat16,
	"FLOAT32":  FormatFloat32,
}

func (f Format) String() string {
	for name, v := range formatNames {
		if v == f {
			return name
		}
	}
	return "UNKNOWN"
}

// TextureFlags describe how a texture declaration was formed.
type TextureFlags uint32

const (
	// FlagRenderTarget marks a RENDER texture.
	FlagRenderTarget TextureFlags = 1 << iota
	// FlagViewportRes marks a resolution computed from the viewport size.
	FlagViewportRes
)

// Texture is one declaration from the [TEXTURES] section.
type Texture struct {
	Name            string
	FileName        string
	RenderToTexture bool
	Min, Mag, Mip   Filter
	WrapS           Wrap
	WrapT           Wrap
	WrapR           Wrap
	Width, Height   int // zero means "size of the loaded file"
	Format          Format
	Flags           TextureFlags
	Line            int
}

// PassType is what a render pass draws into its target.
type PassType int

const (
	PassCamera PassType = iota
	PassCubeMap
	PassSphereMap
	PassPostProcess
)

// ViewType selects where a camera pass renders from.
type ViewType int

const (
	ViewActiveCamera ViewType = iota
	ViewNode
	ViewVector
	ViewCurrentCenter
)

// RenderPass is created for every RENDER texture.
type RenderPass struct {
	Texture  int // index into Script.Textures
	Type     PassType
	View     ViewType
	Position [3]float32 // ViewVector only
	Format   Format
	Semantic string
	NodeName string // ViewNode only
}

// ShaderOrigin records where a shader's code came from.
type ShaderOrigin int

const (
	OriginInline ShaderOrigin = iota
	OriginFile
	OriginBinary
)

// Shader is one [VERTEXSHADER] or [FRAGMENTSHADER] block.
type Shader struct {
	Name     string
	Origin   ShaderOrigin
	FileName string
	Code     string
	Binary   []byte
	// FirstLine is the script line the code starts on, used to correct
	// compiler error line numbers. Zero for file origins.
	FirstLine int
}

// EffectTexture binds a declared texture to a texture unit.
type EffectTexture struct {
	Unit int
	Name string
}

// Effect is one [EFFECT] block.
type Effect struct {
	Name           string
	Annotation     string
	VertexShader   string
	FragmentShader string
	Textures       []EffectTexture
	Uniforms       []Semantic
	Attributes     []Semantic
	Line           int
}

// Semantic binds a shader variable to a named role such as LIGHTPOSITION.
type Semantic struct {
	Name    string // shader variable
	Value   string // semantic with the trailing index removed
	Index   int
	Default *DefaultValue
}

// Texture returns the texture declaration with the given name.
func (s *Script) Texture(name string) (*Texture, bool) {
	for i := range s.Textures {
		if s.Textures[i].Name == name {
			return &s.Textures[i], true
		}
	}
	return nil, false
}

// Effect returns the effect with the given name.
func (s *Script) Effect(name string) (*Effect, bool) {
	for i := range s.Effects {
		if s.Effects[i].Name == name {
			return &s.Effects[i], true
		}
	}
	return nil, false
}

// VertexShader returns the vertex shader with the given name.
func (s *Script) VertexShader(name string) (*Shader, bool) {
	return findShader(s.VertexShaders, name)
}

// FragmentShader returns the fragment shader with the given name.
func (s *Script) FragmentShader(name string) (*Shader, bool) {
	return findShader(s.FragmentShaders, name)
}

func findShader(list []Shader, name string) (*Shader, bool) {
	for i := range list {
		if list[i].Name == name {
			return &list[i], true
		}
	}
	return nil, false
}
