package pack

import (
	"path"
	"strings"
)

// textureExtensions is the PVR search order. Longer suffixes come first so
// "a.pvr.zst" is not stripped to "a.pvr".
var textureExtensions = []string{".pvr.zst", ".pvr.lz4", ".pvr"}

// ResolveTexture finds the bundle path of a FILE texture referenced from the
// script at scriptPath. The name is tried relative to the script's
// directory first, then from the bundle root, each with every known
// extension. Returns the lowered path and true if found.
func ResolveTexture(name, scriptPath string, fileIndex map[string]string) (string, bool) {
	lower := strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
	base := lower
	for _, ext := range textureExtensions {
		if strings.HasSuffix(lower, ext) {
			base = lower[:len(lower)-len(ext)]
			break
		}
	}

	var roots []string
	if dir := path.Dir(strings.ToLower(scriptPath)); dir != "." {
		roots = append(roots, dir)
	}
	roots = append(roots, "")

	for _, root := range roots {
		if candidate := path.Join(root, lower); fileIndex[candidate] != "" {
			return candidate, true
		}
		if resolved, ok := resolveWithExtensions(path.Join(root, base), fileIndex); ok {
			return resolved, true
		}
	}
	return "", false
}

func resolveWithExtensions(base string, fileIndex map[string]string) (string, bool) {
	for _, ext := range textureExtensions {
		candidate := base + ext
		if _, ok := fileIndex[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}
