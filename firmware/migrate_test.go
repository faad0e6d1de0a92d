package firmware

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateStockFiles(t *testing.T) {
	stock := t.TempDir()
	rooted := t.TempDir()

	digest := strings.Repeat("ab", 16)
	moves := []string{
		"xImage.0000." + digest,
		"xImage.0001." + digest,
		"zero.bin.0000." + digest,
		"ota_md5_xImage." + digest,
		"ota_md5_zero.bin." + digest,
	}
	stays := []string{
		"rootfs.squashfs.0000." + digest,
		"ota_md5_rootfs.squashfs." + digest,
		"ota_update.in",
	}
	for _, name := range append(append([]string{}, moves...), stays...) {
		require.NoError(t, os.WriteFile(filepath.Join(stock, name), []byte(name), 0644))
	}

	moved, err := MigrateStockFiles(stock, rooted, nil)
	require.NoError(t, err)
	assert.Equal(t, len(moves), moved)

	for _, name := range moves {
		_, err := os.Stat(filepath.Join(rooted, name))
		assert.NoError(t, err, "expected %s in rooted tree", name)
		_, err = os.Stat(filepath.Join(stock, name))
		assert.ErrorIs(t, err, os.ErrNotExist, "expected %s gone from stock tree", name)
	}
	for _, name := range stays {
		_, err := os.Stat(filepath.Join(stock, name))
		assert.NoError(t, err, "expected %s to stay in stock tree", name)
	}
}
