package pvr

import "fmt"

// Uploader is the host graphics API. Load calls Bind once, Upload for each
// face level it keeps and SetParameters last. Any error aborts the load.
type Uploader interface {
	Bind(target uint32) error
	Upload(tex *Texture, img Image) error
	SetParameters(tex *Texture) error
}

// Recorder is an Uploader that keeps a readable log of the calls it
// receives instead of talking to a GPU.
type Recorder struct {
	Calls []string
}

func (r *Recorder) Bind(target uint32) error {
	r.Calls = append(r.Calls, fmt.Sprintf("bind 0x%04X", target))
	return nil
}

func (r *Recorder) Upload(tex *Texture, img Image) error {
	op := "teximage"
	if tex.Compressed {
		op = "compressed-teximage"
	}
	r.Calls = append(r.Calls, fmt.Sprintf("%s 0x%04X level=%d %dx%d internal=0x%04X bytes=%d",
		op, img.Target, img.Level, img.Width, img.Height, tex.InternalFormat, len(img.Data)))
	return nil
}

func (r *Recorder) SetParameters(tex *Texture) error {
	r.Calls = append(r.Calls, fmt.Sprintf("params min=0x%04X mag=0x%04X wrap=0x%04X/0x%04X",
		tex.MinFilter, tex.MagFilter, tex.WrapS, tex.WrapT))
	return nil
}
