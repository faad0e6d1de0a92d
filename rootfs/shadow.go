package rootfs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// setRootPassword replaces the password-hash field of the root entry in
// etc/shadow. Only the second colon-delimited field of the root line
// changes; every other field, line and byte is preserved verbatim. The file
// is rewritten as a whole to a temporary path and renamed into place so an
// interrupted run never leaves a truncated shadow file.
func (c *Customizer) setRootPassword(rootDir, hash string) error {
	path := filepath.Join(rootDir, ShadowPath)
	fi, err := c.fs.Stat(path)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return err
	}

	// Splitting on "\n" and rejoining reproduces the input byte-for-byte,
	// including the presence or absence of a trailing newline.
	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, line := range lines {
		fields := strings.Split(line, ":")
		if fields[0] != "root" {
			continue
		}
		if len(fields) < 2 {
			return fmt.Errorf("shadow entry for root has no password field")
		}
		fields[1] = hash
		lines[i] = strings.Join(fields, ":")
		replaced = true
		break
	}
	if !replaced {
		return fmt.Errorf("no shadow entry for root in %s", path)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, []byte(strings.Join(lines, "\n")), fi.Mode().Perm()); err != nil {
		return err
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		return err
	}
	c.log.Debug("injected root credential", zap.String("path", path))
	return nil
}
