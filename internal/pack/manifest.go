package pack

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest caches the file index and per-script dependencies so effect
// paks can be built without re-parsing every script.
type Manifest struct {
	Bundles   []string                `json:"bundles"`   // load order
	FileIndex map[string]string       `json:"fileIndex"` // lowered path → source bundle
	Scripts   map[string]*ScriptEntry `json:"scripts"`   // lowered .pfx path → deps
}

// ScriptEntry is what one PFX script needs at runtime.
type ScriptEntry struct {
	Effects  []string                `json:"effects"`
	Includes []string                `json:"includes,omitempty"` // FILE and BINARYFILE shader paths
	Textures map[string]*TextureInfo `json:"textures"`           // texture name → resolution
	Missing  []string                `json:"missing,omitempty"`  // FILE textures not found
	Invalid  []string                `json:"invalid,omitempty"`  // FILE textures that are not valid PVR files
}

// Complete reports whether every FILE texture resolved to a valid PVR file.
func (e *ScriptEntry) Complete() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// TextureInfo describes a resolved texture.
type TextureInfo struct {
	Path         string `json:"path,omitempty"`
	RenderTarget bool   `json:"renderTarget,omitempty"`
	PixelType    string `json:"pixelType,omitempty"`
	Width        uint32 `json:"width,omitempty"`
	Height       uint32 `json:"height,omitempty"`
	Levels       int    `json:"levels,omitempty"`
	CubeMap      bool   `json:"cubeMap,omitempty"`
	Compression  string `json:"compression,omitempty"`
}

// Files returns every bundle path the script depends on, including itself.
func (e *ScriptEntry) Files(scriptPath string) []string {
	files := []string{scriptPath}
	files = append(files, e.Includes...)
	for _, tex := range e.Textures {
		if tex.Path != "" {
			files = append(files, tex.Path)
		}
	}
	return files
}

// LoadManifest loads a manifest from a JSON file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to a JSON file.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
