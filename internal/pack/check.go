package pack

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ernie/pvrfx/internal/blob"
	"github.com/ernie/pvrfx/internal/pfx"
	"github.com/ernie/pvrfx/internal/pvr"
)

// CheckScript parses the script at scriptPath from the bundles in
// fileIndex and resolves its dependencies. Shader includes are read
// relative to the script's directory. Every FILE texture must resolve to a
// valid PVR file; problems are joined into the returned error while the
// entry still describes everything that did resolve.
func CheckScript(scriptPath string, fileIndex map[string]string, opts ...pfx.Option) (*pfx.Script, *ScriptEntry, error) {
	scriptPath = strings.ToLower(scriptPath)
	data, err := readFileFromIndex(scriptPath, fileIndex)
	if err != nil {
		return nil, nil, err
	}
	if data, err = blob.Inflate(data); err != nil {
		return nil, nil, fmt.Errorf("inflate %s: %w", scriptPath, err)
	}

	dir := path.Dir(scriptPath)
	sub, err := fs.Sub(NewIndexFS(fileIndex), dir)
	if err != nil {
		return nil, nil, fmt.Errorf("script dir %s: %w", dir, err)
	}

	parser := pfx.NewParser(append(opts, pfx.WithFS(sub))...)
	script, err := parser.ParseFromMemory(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", scriptPath, err)
	}

	entry := &ScriptEntry{Textures: make(map[string]*TextureInfo)}
	for _, e := range script.Effects {
		entry.Effects = append(entry.Effects, e.Name)
	}

	for _, list := range [][]pfx.Shader{script.VertexShaders, script.FragmentShaders} {
		for _, sh := range list {
			if sh.Origin == pfx.OriginInline || path.IsAbs(sh.FileName) {
				continue
			}
			entry.Includes = append(entry.Includes, path.Join(dir, strings.ToLower(sh.FileName)))
		}
	}

	var errs []error
	for _, tex := range script.Textures {
		if tex.RenderToTexture {
			entry.Textures[tex.Name] = &TextureInfo{RenderTarget: true}
			continue
		}
		resolved, ok := ResolveTexture(tex.FileName, scriptPath, fileIndex)
		if !ok {
			entry.Missing = append(entry.Missing, tex.FileName)
			errs = append(errs, fmt.Errorf("texture %s: %s not found", tex.Name, tex.FileName))
			continue
		}
		info, err := inspectTexture(resolved, fileIndex)
		if err != nil {
			entry.Invalid = append(entry.Invalid, resolved)
			errs = append(errs, fmt.Errorf("texture %s: %w", tex.Name, err))
			continue
		}
		entry.Textures[tex.Name] = info
	}

	return script, entry, errors.Join(errs...)
}

// inspectTexture reads the PVR header of a bundled texture.
func inspectTexture(texPath string, fileIndex map[string]string) (*TextureInfo, error) {
	raw, err := readFileFromIndex(texPath, fileIndex)
	if err != nil {
		return nil, err
	}
	data, err := blob.Inflate(raw)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", texPath, err)
	}
	h, err := pvr.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", texPath, err)
	}

	levels := 1
	if h.HasMipMaps() {
		levels = int(h.MipMapCount) + 1
	}
	return &TextureInfo{
		Path:        texPath,
		PixelType:   h.PixelType().String(),
		Width:       h.Width,
		Height:      h.Height,
		Levels:      levels,
		CubeMap:     h.IsCubeMap(),
		Compression: blob.Detect(raw).String(),
	}, nil
}

// readFileFromIndex reads a file from the bundle the index names for it.
func readFileFromIndex(lowerPath string, fileIndex map[string]string) ([]byte, error) {
	bundlePath, ok := fileIndex[lowerPath]
	if !ok {
		return nil, fmt.Errorf("%s not in file index", lowerPath)
	}
	return ReadFile(bundlePath, lowerPath)
}
