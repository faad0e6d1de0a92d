package firmware

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Container wraps the external 7z binary handling the password-protected
// outer firmware archive. Creation always enables header encryption
// (-mhe=on) because the stock images hide their file listing the same way.
//
// The password never appears in logs; it is derived, not secret, but
// keeping it out of log files avoids pointless leak reports.
type Container struct {
	log    *zap.Logger
	Binary string
}

func NewContainer(log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	return &Container{log: log, Binary: "7z"}
}

// Check verifies the archiver binary resolves in PATH.
func (c *Container) Check() error {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return fmt.Errorf("required tool %q not found: %w", c.Binary, err)
	}
	return nil
}

// Extract unpacks archive into destDir.
func (c *Container) Extract(ctx context.Context, archive, destDir, password string) error {
	c.log.Debug("extracting firmware container", zap.String("archive", archive), zap.String("dest", destDir))
	return c.run(ctx, "", "x", "-y", "-p"+password, "-o"+destDir, archive)
}

// Create packs srcDir (a path relative to workDir, so the archive member
// names start with the release directory) into archive.
func (c *Container) Create(ctx context.Context, archive, srcDir, workDir, password string) error {
	c.log.Debug("creating firmware container", zap.String("archive", archive), zap.String("source", srcDir))
	return c.run(ctx, workDir, "a", "-y", "-p"+password, "-mhe=on", archive, srcDir)
}

func (c *Container) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", c.Binary, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
