package firmware

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// SquashTools wraps the external squashfs-tools binaries that turn a
// directory tree into a single filesystem image and back. Compression
// details stay entirely inside the tools; this wrapper's contract is one
// tree in, one image out (and vice versa).
type SquashTools struct {
	log        *zap.Logger
	Mksquashfs string
	Unsquashfs string
}

func NewSquashTools(log *zap.Logger) *SquashTools {
	if log == nil {
		log = zap.NewNop()
	}
	return &SquashTools{log: log, Mksquashfs: "mksquashfs", Unsquashfs: "unsquashfs"}
}

// Check verifies both binaries resolve in PATH before the pipeline starts
// mutating anything.
func (t *SquashTools) Check() error {
	for _, bin := range []string{t.Mksquashfs, t.Unsquashfs} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("required tool %q not found: %w", bin, err)
		}
	}
	return nil
}

// Unpack extracts image into workDir/squashfs-root (unsquashfs's default
// output directory).
func (t *SquashTools) Unpack(ctx context.Context, image, workDir string) error {
	return t.run(ctx, workDir, t.Unsquashfs, "-q", "-n", image)
}

// Pack compresses sourceDir into image. Both paths are interpreted relative
// to workDir, matching how the chunk filenames later embed only the image
// basename.
func (t *SquashTools) Pack(ctx context.Context, sourceDir, image, workDir string) error {
	return t.run(ctx, workDir, t.Mksquashfs, sourceDir, image, "-quiet", "-no-progress")
}

func (t *SquashTools) run(ctx context.Context, dir, bin string, args ...string) error {
	t.log.Debug("running squashfs tool",
		zap.String("binary", bin),
		zap.Strings("args", args),
		zap.String("dir", dir),
	)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
