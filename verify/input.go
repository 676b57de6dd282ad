package verify

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// OpenStream returns a reader of the plain record stream held in r, which may
// be gzip or zstd compressed. A JSON stream never starts with either magic.
func OpenStream(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, jzcerr.Wrap(jzcerr.InternalIO, "reading stream", err)
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, jzcerr.Wrap(jzcerr.DecodeFailed, "opening gzip stream", err)
		}
		return zr, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, jzcerr.Wrap(jzcerr.DecodeFailed, "opening zstd stream", err)
		}
		return zr.IOReadCloser(), nil
	}
	return io.NopCloser(br), nil
}
