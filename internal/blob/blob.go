// Package blob reads asset files that may be stored zstd or lz4 compressed.
// Compression is detected from the frame magic, not the file name.
package blob

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	zstdMagic = 0xFD2FB528
	lz4Magic  = 0x184D2204
)

// Compression identifies how a blob is stored.
type Compression int

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "none"
}

// Detect reports the compression of data from its first four bytes.
func Detect(data []byte) Compression {
	if len(data) < 4 {
		return None
	}
	switch binary.LittleEndian.Uint32(data) {
	case zstdMagic:
		return Zstd
	case lz4Magic:
		return LZ4
	}
	return None
}

// ReadFile reads path and inflates it if it is compressed.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := Inflate(data)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", path, err)
	}
	return out, nil
}

// Inflate returns data decompressed, or data itself if it is not compressed.
func Inflate(data []byte) ([]byte, error) {
	switch Detect(data) {
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder init: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if errors.Is(err, zstd.ErrMagicMismatch) && len(out) > 0 {
			err = nil // trailing non-zstd bytes
		}
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case LZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	}
	return data, nil
}

// Compress stores data with the given compression.
func Compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder init: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	}
	return data, nil
}
