package pack

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// IndexFS is a read-only fs.FS over the bundles of a file index. Names are
// matched case-insensitively; each name is served by the last bundle that
// contains it.
type IndexFS struct {
	index map[string]string
}

// NewIndexFS wraps index as returned by BuildFileIndex.
func NewIndexFS(index map[string]string) *IndexFS {
	return &IndexFS{index: index}
}

// ReadFile implements fs.ReadFileFS.
func (f *IndexFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	bundlePath, ok := f.index[strings.ToLower(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	data, err := ReadFile(bundlePath, name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

// Open implements fs.FS. Directories are not listable.
func (f *IndexFS) Open(name string) (fs.File, error) {
	data, err := f.ReadFile(name)
	if err != nil {
		if pe, ok := err.(*fs.PathError); ok {
			pe.Op = "open"
		}
		return nil, err
	}
	return &memFile{Reader: bytes.NewReader(data), info: memInfo{name: path.Base(name), size: int64(len(data))}}, nil
}

type memFile struct {
	*bytes.Reader
	info memInfo
}

func (m *memFile) Stat() (fs.FileInfo, error) { return m.info, nil }
func (m *memFile) Close() error               { return nil }

var _ io.ReadSeeker = (*memFile)(nil)

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o444 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }
