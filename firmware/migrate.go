package firmware

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// stockFilePatterns matches the release files a rooted build reuses
// unchanged from the stock tree: the kernel and padding chunk sets and
// their digest chains. The rootfs chain file is excluded because the rootfs
// is rebuilt and re-split.
var stockFilePatterns = []string{
	"xImage.*",
	"zero.bin.*",
	"ota_md5_*",
}

const rootfsChainPrefix = "ota_md5_" + rootfsImage + "."

// MigrateStockFiles moves the unchanged release files from the stock OTA
// directory into the rooted one and returns how many files moved.
func MigrateStockFiles(stockDir, rootedDir string, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(stockDir)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, rootfsChainPrefix) {
			continue
		}
		match := false
		for _, pattern := range stockFilePatterns {
			ok, err := doublestar.Match(pattern, name)
			if err != nil {
				return moved, fmt.Errorf("bad migration pattern %q: %w", pattern, err)
			}
			if ok {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		if err := os.Rename(filepath.Join(stockDir, name), filepath.Join(rootedDir, name)); err != nil {
			return moved, fmt.Errorf("unable to migrate %s: %w", name, err)
		}
		log.Debug("migrated stock file", zap.String("file", name))
		moved++
	}
	return moved, nil
}
