// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression [Archive] applies to
// the tar stream. Both formats are the standard framed formats, so the
// node decompresses with the stock zstd or lz4 command line tools.
type Compression uint8

const (
	// CompressionZstd is zstd at the default level. Configuration
	// trees are text and compress well; this is the default.
	CompressionZstd Compression = iota + 1

	// CompressionLZ4 trades ratio for speed on fast links.
	CompressionLZ4
)

// String returns the flag spelling of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the flag spelling of a compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want zstd or lz4)", name)
	}
}

// decompressCommand is the remote pipeline stage that undoes c,
// reading stdin and writing stdout.
func (c Compression) decompressCommand() (string, error) {
	switch c {
	case CompressionZstd:
		return "zstd -d -c", nil
	case CompressionLZ4:
		return "lz4 -d -c", nil
	default:
		return "", fmt.Errorf("unsupported compression %s", c)
	}
}

// NewCompressor returns a writer that compresses into w. Closing it
// flushes the final frame but does not close w.
func NewCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// NewDecompressor returns a reader that decompresses r.
func NewDecompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}
