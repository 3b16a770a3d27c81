// Package unpack transparently decompresses fetched feed bodies. Providers
// often serve guides as .xml.gz or .xml.xz without a Content-Encoding header.
package unpack

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// DefaultLimit caps decompressed output when no limit is given.
const DefaultLimit int64 = 512 * 1024 * 1024

// ErrTooLarge is returned when decompressed output exceeds the limit.
var ErrTooLarge = errors.New("decompressed body exceeds size limit")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Bytes returns body decompressed when it starts with a gzip or xz signature,
// and body unchanged otherwise. Decompressed output larger than limit bytes
// fails with ErrTooLarge. A non-positive limit means DefaultLimit.
func Bytes(body []byte, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	switch {
	case bytes.HasPrefix(body, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		out, err := readLimited(zr, limit)
		if err != nil {
			return nil, fmt.Errorf("decompressing gzip stream: %w", err)
		}
		return out, nil

	case bytes.HasPrefix(body, xzMagic):
		xr, err := xz.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		out, err := readLimited(xr, limit)
		if err != nil {
			return nil, fmt.Errorf("decompressing xz stream: %w", err)
		}
		return out, nil

	default:
		return body, nil
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, nil
}
