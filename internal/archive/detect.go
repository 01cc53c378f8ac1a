// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive reads compressed tar archives and writes zip archives.
// It is the only package that touches container formats; the conversion
// pipeline sees it through two narrow interfaces.
package archive

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compression identifies the stream compression wrapping a tar archive.
type Compression int

const (
	// Uncompressed means no recognized magic bytes were found.
	Uncompressed Compression = iota
	// Gzip compression.
	Gzip
	// Bzip2 compression.
	Bzip2
	// Xz compression.
	Xz
	// Lz4 frame compression.
	Lz4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	case Lz4:
		return "lz4"
	}
	return "uncompressed"
}

var magics = map[Compression][]byte{
	Gzip:  {0x1f, 0x8b, 0x08},
	Bzip2: {0x42, 0x5a, 0x68},
	Xz:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	Lz4:   {0x04, 0x22, 0x4d, 0x18},
}

// DetectCompression inspects the first bytes of source and reports the
// compression in use. The suffix on disk is not trusted; a mislabeled
// file decodes by content.
func DetectCompression(source []byte) Compression {
	for c, m := range magics {
		if len(source) >= len(m) && bytes.Equal(m, source[:len(m)]) {
			return c
		}
	}
	return Uncompressed
}

// decompressor wraps r with the decoder for c. The returned closer is
// non-nil only when the decoder holds resources of its own.
func decompressor(r io.Reader, c Compression) (io.Reader, io.Closer, error) {
	switch c {
	case Gzip:
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, gz, nil
	case Bzip2:
		return bzip2.NewReader(r), nil, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xr, nil, nil
	case Lz4:
		return lz4.NewReader(r), nil, nil
	default:
		return nil, nil, fmt.Errorf("not a recognized compressed stream")
	}
}
