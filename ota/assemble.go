package ota

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var chunkNameRe = regexp.MustCompile(`^(.+)\.([0-9]{4})\.([0-9a-f]{32})$`)

type assembleConfig struct {
	deleteParts bool
}

// AssembleOption adjusts how Assemble behaves.
type AssembleOption func(*assembleConfig)

// DeletePartsAfterAssemble removes the consumed chunk files once the
// reassembled image is fully written.
func DeletePartsAfterAssemble(del bool) AssembleOption {
	return func(cfg *assembleConfig) {
		cfg.deleteParts = del
	}
}

// ChunkFiles returns the chunk filenames for base found in dir, sorted in
// chunk order. The sort is plain lexicographic, which equals numeric order
// only because the sequence index is zero-padded to four digits.
//
// A gap in the index run, a duplicate index or an empty set are each
// reported as a distinct ErrSequence so assembly never silently produces a
// truncated or empty image.
func ChunkFiles(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := chunkNameRe.FindStringSubmatch(entry.Name())
		if m == nil || m[1] != base {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no chunk files for %q in %s", ErrSequence, base, dir)
	}
	sort.Strings(names)

	last := -1
	for want, name := range names {
		m := chunkNameRe.FindStringSubmatch(name)
		index, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s has unparsable index: %v", ErrFormat, name, err)
		}
		switch {
		case index == last:
			return nil, fmt.Errorf("%w: duplicate chunk index %04d (%s)", ErrSequence, index, name)
		case index != want:
			return nil, fmt.Errorf("%w: missing chunk index %04d for %q", ErrSequence, want, base)
		}
		last = index
	}
	return names, nil
}

// Assemble concatenates the chunk set for outputPath's basename found in
// chunkDir back into a single image at outputPath. Digests are not checked
// here; callers wanting verification run VerifyChunks against the chain file
// first.
func Assemble(chunkDir, outputPath string, opts ...AssembleOption) error {
	cfg := assembleConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parts, err := ChunkFiles(chunkDir, filepath.Base(outputPath))
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, part := range parts {
		f, err := os.Open(filepath.Join(chunkDir, part))
		if err != nil {
			out.Close()
			return fmt.Errorf("unable to open chunk %s: %w", part, err)
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("unable to append chunk %s: %w", part, err)
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if cfg.deleteParts {
		for _, part := range parts {
			if err := os.Remove(filepath.Join(chunkDir, part)); err != nil {
				return fmt.Errorf("unable to remove consumed chunk %s: %w", part, err)
			}
		}
	}
	return nil
}
