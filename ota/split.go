package ota

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultChunkSize is the window size the updater expects: 1 MiB per chunk,
// with the final chunk holding the remainder.
const DefaultChunkSize = 1 << 20

type splitConfig struct {
	chunkSize    int64
	deleteSource bool
}

// SplitOption adjusts how Split behaves.
type SplitOption func(*splitConfig)

// WithChunkSize overrides the 1 MiB chunk window. Only useful for tests; the
// device updater assumes DefaultChunkSize.
func WithChunkSize(n int64) SplitOption {
	return func(cfg *splitConfig) {
		cfg.chunkSize = n
	}
}

// DeleteSourceAfterSplit removes the source image once every chunk and the
// chain file are written.
func DeleteSourceAfterSplit(del bool) SplitOption {
	return func(cfg *splitConfig) {
		cfg.deleteSource = del
	}
}

// ChunkName builds the on-disk name for chunk index of an image. The digest
// in the name is NOT the chunk's own digest: it is the digest of the
// preceding chunk, and for index 0 the digest of the whole unsplit image.
// The updater verifies this exact chaining, so it must not be "fixed".
func ChunkName(base string, index int, predecessor Digest) string {
	return fmt.Sprintf("%s.%04d.%s", base, index, predecessor)
}

// ChainName builds the name of the chain file accompanying a chunk set,
// e.g. "ota_md5_rootfs.squashfs.<whole-image-digest>".
func ChainName(base string, image Digest) string {
	return fmt.Sprintf("ota_md5_%s.%s", base, image)
}

// Split cuts the image at imagePath into fixed-size chunks under destDir and
// writes the accompanying chain file. It returns the chain of per-chunk own
// digests in chunk order.
//
// Unlike the filenames, the chain file records each chunk's own digest. The
// chain file is written only after every chunk exists on disk so a failed
// split never leaves a chain referencing missing chunks.
func Split(imagePath, destDir string, opts ...SplitOption) (DigestChain, error) {
	cfg := splitConfig{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.chunkSize)
	}

	imageDigest, err := SumFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("unable to digest image: %w", err)
	}

	src, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	base := filepath.Base(imagePath)
	prior := imageDigest
	buf := make([]byte, cfg.chunkSize)
	var chain DigestChain
	for index := 0; ; index++ {
		n, err := io.ReadFull(src, buf)
		if errors.Is(err, io.EOF) {
			// An image whose size is an exact multiple of the chunk size
			// must not produce a trailing zero-length chunk.
			break
		}
		short := errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !short {
			return nil, fmt.Errorf("unable to read image window %d: %w", index, err)
		}

		window := buf[:n]
		own := Sum(window)
		name := ChunkName(base, index, prior)
		if err := os.WriteFile(filepath.Join(destDir, name), window, 0644); err != nil {
			return nil, fmt.Errorf("unable to write chunk %s: %w", name, err)
		}
		chain = append(chain, own)
		prior = own

		if short {
			break
		}
	}

	if err := WriteChain(filepath.Join(destDir, ChainName(base, imageDigest)), chain); err != nil {
		return nil, fmt.Errorf("unable to write digest chain: %w", err)
	}

	if cfg.deleteSource {
		src.Close()
		if err := os.Remove(imagePath); err != nil {
			return nil, fmt.Errorf("unable to remove split source: %w", err)
		}
	}
	return chain, nil
}
