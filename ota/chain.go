package ota

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DigestChain is the ordered list of per-chunk own digests for one split
// image, one entry per chunk in true chunk order.
type DigestChain []Digest

// WriteChain writes the chain file: one 32-character hex digest per line.
func WriteChain(path string, chain DigestChain) error {
	var b strings.Builder
	for _, d := range chain {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ReadChain parses a chain file written by WriteChain.
func ReadChain(path string) (DigestChain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var chain DigestChain
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		d, err := ParseDigest(line)
		if err != nil {
			return nil, fmt.Errorf("chain file %s line %d: %w", path, i+1, err)
		}
		chain = append(chain, d)
	}
	return chain, nil
}

// VerifyChunks hashes every chunk of base in chunkDir and compares it
// against the chain. Hashing runs concurrently with at most workers
// goroutines (pass 0 for one per CPU); the comparison is positional so
// concurrency cannot reorder results.
func VerifyChunks(ctx context.Context, chunkDir, base string, chain DigestChain, workers int) error {
	parts, err := ChunkFiles(chunkDir, base)
	if err != nil {
		return err
	}
	if len(parts) != len(chain) {
		return fmt.Errorf("%w: chain lists %d digests but %d chunks exist", ErrIntegrity, len(chain), len(parts))
	}

	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := SumFile(filepath.Join(chunkDir, part))
			if err != nil {
				return fmt.Errorf("unable to digest chunk %s: %w", part, err)
			}
			if d != chain[i] {
				return fmt.Errorf("%w: chunk %s has digest %s, chain lists %s", ErrIntegrity, part, d, chain[i])
			}
			return nil
		})
	}
	return g.Wait()
}
