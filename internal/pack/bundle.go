// Package pack reads and writes asset bundles: zip archives (.pk3 or .zip)
// holding PFX scripts, their shader includes and PVR textures. Entries may
// be stored with Deflate or zstd.
package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Method is the compression used for entries written by Write.
type Method uint16

const (
	Deflate = Method(zip.Deflate)
	Zstd    = Method(zstd.ZipMethodWinZip)
)

// ParseMethod accepts "deflate" or "zstd".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "deflate":
		return Deflate, nil
	case "zstd":
		return Zstd, nil
	}
	return 0, fmt.Errorf("unknown compression method %q", s)
}

func (m Method) String() string {
	if m == Zstd {
		return "zstd"
	}
	return "deflate"
}

func isBundle(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".pk3") || strings.HasSuffix(lower, ".zip")
}

// CollectBundles returns the bundles under dir in load order: pak0-9 at
// the top level first, then everything else alphabetically. Later bundles
// override earlier ones.
func CollectBundles(dir string) []string {
	var pakFiles []string
	var otherFiles []string

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isBundle(d.Name()) {
			return nil
		}

		lowerName := strings.ToLower(d.Name())
		isRootLevel := filepath.Dir(path) == dir
		if isRootLevel && len(lowerName) == 8 && strings.HasPrefix(lowerName, "pak") {
			if c := lowerName[3]; c >= '0' && c <= '9' {
				pakFiles = append(pakFiles, path)
				return nil
			}
		}
		otherFiles = append(otherFiles, path)
		return nil
	})

	sort.Strings(pakFiles)
	sort.Strings(otherFiles)
	return append(pakFiles, otherFiles...)
}

// openReader opens a bundle with zstd entries readable.
func openReader(bundlePath string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", bundlePath, err)
	}
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return r, nil
}

// ReadFile reads one entry from a bundle, matching the name case-insensitively.
func ReadFile(bundlePath, virtualPath string) ([]byte, error) {
	r, err := openReader(bundlePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	lowerTarget := strings.ToLower(virtualPath)
	for _, f := range r.File {
		if strings.ToLower(f.Name) != lowerTarget {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", virtualPath, bundlePath, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in %s: %w", virtualPath, bundlePath, os.ErrNotExist)
}

// Write creates a bundle holding files.
func Write(outputPath string, files map[string][]byte, method Method) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := WriteTo(f, files, method); err != nil {
		return err
	}
	return f.Close()
}

// WriteTo writes a bundle to w. Entries are sorted by name.
func WriteTo(w io.Writer, files map[string][]byte, method Method) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())

	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: uint16(method)})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}

	return zw.Close()
}

// Iterate calls fn for every entry in a bundle.
func Iterate(bundlePath string, fn func(name string, open func() (io.ReadCloser, error)) error) error {
	r, err := openReader(bundlePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := fn(f.Name, f.Open); err != nil {
			return err
		}
	}
	return nil
}

// BuildFileIndex maps every lowered entry path to the last bundle that
// contains it.
func BuildFileIndex(bundlePaths []string) (map[string]string, error) {
	index := make(map[string]string)
	for _, bundlePath := range bundlePaths {
		err := Iterate(bundlePath, func(name string, _ func() (io.ReadCloser, error)) error {
			index[strings.ToLower(name)] = bundlePath
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return index, nil
}

// Extract reads paths from the bundles named by index. Paths missing from
// the index are skipped. The result is keyed by lowered path.
func Extract(paths []string, index map[string]string) (map[string][]byte, error) {
	byBundle := make(map[string]map[string]bool)
	for _, path := range paths {
		lower := strings.ToLower(path)
		bundle, ok := index[lower]
		if !ok {
			continue
		}
		if byBundle[bundle] == nil {
			byBundle[bundle] = make(map[string]bool)
		}
		byBundle[bundle][lower] = true
	}

	result := make(map[string][]byte)
	for bundlePath, wanted := range byBundle {
		err := Iterate(bundlePath, func(name string, open func() (io.ReadCloser, error)) error {
			lower := strings.ToLower(name)
			if !wanted[lower] {
				return nil
			}
			rc, err := open()
			if err != nil {
				return fmt.Errorf("open %s in %s: %w", name, bundlePath, err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return fmt.Errorf("read %s in %s: %w", name, bundlePath, err)
			}
			result[lower] = data
			delete(wanted, lower)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
