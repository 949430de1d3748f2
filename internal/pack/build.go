package pack

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ernie/pvrfx/internal/pfx"
)

// BuildManifest indexes every bundle under dir and checks every .pfx
// script found in them. Scripts that fail to parse are logged and left out;
// scripts with unresolved or invalid textures are kept with Missing and
// Invalid filled in.
func BuildManifest(dir string, opts ...pfx.Option) (*Manifest, error) {
	bundles := CollectBundles(dir)
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no bundles found in %s", dir)
	}

	log.Printf("Indexing %s (%d bundles)...", dir, len(bundles))
	index, err := BuildFileIndex(bundles)
	if err != nil {
		return nil, fmt.Errorf("build file index: %w", err)
	}

	m := &Manifest{
		Bundles:   bundles,
		FileIndex: index,
		Scripts:   make(map[string]*ScriptEntry),
	}

	for _, scriptPath := range scriptPaths(index) {
		_, entry, err := CheckScript(scriptPath, index, opts...)
		if entry == nil {
			log.Printf("Warning: skipping %s: %v", scriptPath, err)
			continue
		}
		if err != nil {
			log.Printf("Warning: %s: %v", scriptPath, err)
		}
		m.Scripts[scriptPath] = entry
	}

	log.Printf("Indexed %d files, %d scripts", len(index), len(m.Scripts))
	return m, nil
}

func scriptPaths(index map[string]string) []string {
	var scripts []string
	for p := range index {
		if isScript(p) {
			scripts = append(scripts, p)
		}
	}
	sort.Strings(scripts)
	return scripts
}

func isScript(name string) bool {
	return strings.HasSuffix(name, ".pfx") || strings.HasSuffix(name, ".pfx.zst") || strings.HasSuffix(name, ".pfx.lz4")
}

// BuildEffectPak writes a bundle holding one script and everything it
// needs: shader includes and resolved textures.
func BuildEffectPak(scriptPath string, m *Manifest, outputPath string, method Method) error {
	lower := strings.ToLower(scriptPath)
	entry, ok := m.Scripts[lower]
	if !ok {
		return fmt.Errorf("script %q not found in manifest", scriptPath)
	}

	needed := entry.Files(lower)
	files, err := Extract(needed, m.FileIndex)
	if err != nil {
		return fmt.Errorf("extract files: %w", err)
	}
	for _, p := range needed {
		if _, ok := files[p]; !ok {
			return fmt.Errorf("%s: dependency %s missing from bundles", scriptPath, p)
		}
	}

	if err := Write(outputPath, files, method); err != nil {
		return fmt.Errorf("write effect pak: %w", err)
	}

	log.Printf("  %s: %d files", lower, len(files))
	return nil
}

// Build writes manifest.json and one effect pak per valid script into
// outputDir. Scripts with missing or invalid textures are skipped.
func Build(dir, outputDir string, method Method, opts ...pfx.Option) (*Manifest, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m, err := BuildManifest(dir, opts...)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	log.Printf("Manifest saved to %s", manifestPath)

	for _, scriptPath := range scriptPaths(m.FileIndex) {
		entry, ok := m.Scripts[scriptPath]
		if !ok {
			continue
		}
		if !entry.Complete() {
			log.Printf("  %s: skipped, %d missing and %d invalid textures", scriptPath, len(entry.Missing), len(entry.Invalid))
			continue
		}
		out := filepath.Join(outputDir, pakName(scriptPath))
		if err := BuildEffectPak(scriptPath, m, out, method); err != nil {
			log.Printf("Warning: failed to build %s: %v", scriptPath, err)
		}
	}
	return m, nil
}

// pakName turns "effects/water.pfx" into "effects_water.pk3".
func pakName(scriptPath string) string {
	name := scriptPath
	for _, ext := range []string{".zst", ".lz4"} {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	return strings.ReplaceAll(name, "/", "_") + ".pk3"
}
