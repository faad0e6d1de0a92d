// Package rootfs applies the customizations that turn a stock extracted root
// filesystem tree into the rooted one: release-info stamping, asset overlay
// and root credential injection. All filesystem access goes through afero so
// the package can be exercised against an in-memory filesystem.
package rootfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// ReleaseInfoTemplate is the template filename expected under the
	// templates directory.
	ReleaseInfoTemplate = "ota_info.tmpl"
	// ReleaseInfoPath is where the rendered release info lands inside the
	// root tree. The device displays this file in its about screen.
	ReleaseInfoPath = "etc/ota_info"
	// ShadowPath is the shadow credential file inside the root tree.
	ShadowPath = "etc/shadow"

	// dateLayout matches the timestamp format the stock firmware uses in
	// etc/ota_info.
	dateLayout = "2006 01.02 15:04:05"
)

// Options carries the per-release values substituted into the tree.
type Options struct {
	// RootPasswordHash is the pre-hashed crypt(3) value written into the
	// shadow file. Hashing happens elsewhere; this package never sees the
	// cleartext password.
	RootPasswordHash string
	BoardName        string
	Version          string
	// Now is the clock used for the release-info date stamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// Customizer mutates an extracted root filesystem tree in place.
type Customizer struct {
	fs  afero.Fs
	log *zap.Logger
}

func NewCustomizer(fs afero.Fs, log *zap.Logger) *Customizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Customizer{fs: fs, log: log}
}

// Customize applies all customizations in a fixed order: release-info
// stamping, asset overlay, credential injection. Later steps may rely on
// earlier ones having completed (the overlay may ship scripts referencing
// the stamped release info).
func (c *Customizer) Customize(rootDir, assetsDir, templatesDir string, opts Options) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := c.stampReleaseInfo(rootDir, templatesDir, opts); err != nil {
		return fmt.Errorf("unable to stamp release info: %w", err)
	}
	if err := c.overlayAssets(rootDir, assetsDir); err != nil {
		return fmt.Errorf("unable to overlay assets: %w", err)
	}
	if err := c.setRootPassword(rootDir, opts.RootPasswordHash); err != nil {
		return fmt.Errorf("unable to set root password: %w", err)
	}
	return nil
}

// stampReleaseInfo renders the ota_info template and writes it over the
// stock etc/ota_info. Rendering fails on any placeholder that is not one of
// version/board_name/date so an unsubstituted placeholder can never ship.
func (c *Customizer) stampReleaseInfo(rootDir, templatesDir string, opts Options) error {
	raw, err := afero.ReadFile(c.fs, filepath.Join(templatesDir, ReleaseInfoTemplate))
	if err != nil {
		return err
	}

	tmpl, err := template.New(ReleaseInfoTemplate).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return err
	}
	var rendered bytes.Buffer
	err = tmpl.Execute(&rendered, map[string]string{
		"version":    opts.Version,
		"board_name": opts.BoardName,
		"date":       opts.Now().Format(dateLayout),
	})
	if err != nil {
		return err
	}

	dst := filepath.Join(rootDir, ReleaseInfoPath)
	if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	c.log.Debug("stamping release info", zap.String("path", dst), zap.String("version", opts.Version))
	return afero.WriteFile(c.fs, dst, rendered.Bytes(), 0644)
}

// overlayAssets copies every regular file under assetsDir to the matching
// relative path under rootDir, overwriting on conflict and creating parent
// directories as needed. Nothing else (symlinks, empty directories) is
// carried over.
func (c *Customizer) overlayAssets(rootDir, assetsDir string) error {
	return afero.Walk(c.fs, assetsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(assetsDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(rootDir, rel)
		if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		c.log.Debug("overlaying asset", zap.String("file", rel))
		return c.copyFile(path, dst, info.Mode().Perm())
	})
}

func (c *Customizer) copyFile(src, dst string, perm os.FileMode) error {
	in, err := c.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := c.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
