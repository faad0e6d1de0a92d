package rootfs

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShadow = "root:$1$old$hash:19000:0:99999:7:::\n" +
	"daemon:*:19000:0:99999:7:::\n" +
	"rootly:*:19000:0:99999:7:::\n" +
	"sshd:!:19000:0:99999:7:::\n"

func newTestTree(t *testing.T) (afero.Fs, *Customizer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("rootfs/etc", 0755))
	require.NoError(t, afero.WriteFile(fs, "rootfs/etc/shadow", []byte(testShadow), 0600))
	require.NoError(t, afero.WriteFile(fs, "rootfs/etc/ota_info", []byte("stock\n"), 0644))
	require.NoError(t, fs.MkdirAll("templates", 0755))
	require.NoError(t, afero.WriteFile(fs, "templates/ota_info.tmpl",
		[]byte("board: {{.board_name}}\nversion: {{.version}}\nbuilt: {{.date}}\n"), 0644))
	require.NoError(t, fs.MkdirAll("assets", 0755))
	return fs, NewCustomizer(fs, nil)
}

func TestCustomize(t *testing.T) {
	fs, c := newTestTree(t)
	require.NoError(t, afero.WriteFile(fs, "assets/etc/init.d/S99root", []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, afero.WriteFile(fs, "assets/usr/bin/helper", []byte("helper"), 0755))

	now := time.Date(2026, 8, 23, 14, 5, 6, 0, time.Local)
	err := c.Customize("rootfs", "assets", "templates", Options{
		RootPasswordHash: "$5$salt$newhash",
		BoardName:        "NEBULA",
		Version:          "6.1.0.30",
		Now:              func() time.Time { return now },
	})
	require.NoError(t, err)

	info, err := afero.ReadFile(fs, "rootfs/etc/ota_info")
	require.NoError(t, err)
	assert.Equal(t, "board: NEBULA\nversion: 6.1.0.30\nbuilt: 2026 08.23 14:05:06\n", string(info))

	overlay, err := afero.ReadFile(fs, "rootfs/etc/init.d/S99root")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(overlay))
	_, err = fs.Stat("rootfs/usr/bin/helper")
	assert.NoError(t, err)

	shadow, err := afero.ReadFile(fs, "rootfs/etc/shadow")
	require.NoError(t, err)
	assert.Equal(t, "root:$5$salt$newhash:19000:0:99999:7:::\n"+
		"daemon:*:19000:0:99999:7:::\n"+
		"rootly:*:19000:0:99999:7:::\n"+
		"sshd:!:19000:0:99999:7:::\n", string(shadow))
}

func TestSetRootPassword(t *testing.T) {
	t.Run("only the hash field of the root line changes", func(t *testing.T) {
		fs, c := newTestTree(t)
		require.NoError(t, c.setRootPassword("rootfs", "$5$abc$def"))

		got, err := afero.ReadFile(fs, "rootfs/etc/shadow")
		require.NoError(t, err)
		lines := []string{
			"root:$5$abc$def:19000:0:99999:7:::",
			"daemon:*:19000:0:99999:7:::",
			"rootly:*:19000:0:99999:7:::",
			"sshd:!:19000:0:99999:7:::",
			"",
		}
		assert.Equal(t, lines, splitLines(string(got)))
	})

	t.Run("user matching is exact, not prefix", func(t *testing.T) {
		fs, c := newTestTree(t)
		shadow := "rootly:*:19000:0:99999:7:::\nroot:x:19000:0:99999:7:::\n"
		require.NoError(t, afero.WriteFile(fs, "rootfs/etc/shadow", []byte(shadow), 0600))

		require.NoError(t, c.setRootPassword("rootfs", "HASH"))
		got, err := afero.ReadFile(fs, "rootfs/etc/shadow")
		require.NoError(t, err)
		assert.Equal(t, "rootly:*:19000:0:99999:7:::\nroot:HASH:19000:0:99999:7:::\n", string(got))
	})

	t.Run("missing root entry is a hard error", func(t *testing.T) {
		fs, c := newTestTree(t)
		require.NoError(t, afero.WriteFile(fs, "rootfs/etc/shadow", []byte("daemon:*:1:2:3:4:::\n"), 0600))

		err := c.setRootPassword("rootfs", "HASH")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no shadow entry for root")
	})
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func TestStampReleaseInfoRejectsUnknownPlaceholder(t *testing.T) {
	fs, c := newTestTree(t)
	require.NoError(t, afero.WriteFile(fs, "templates/ota_info.tmpl",
		[]byte("version: {{.version}}\nserial: {{.serial_number}}\n"), 0644))

	err := c.Customize("rootfs", "assets", "templates", Options{Version: "1.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial_number")

	// The stock file must be left untouched when rendering fails.
	info, err := afero.ReadFile(fs, "rootfs/etc/ota_info")
	require.NoError(t, err)
	assert.Equal(t, "stock\n", string(info))
}

func TestOverlayAssetsOverwritesOnConflict(t *testing.T) {
	fs, c := newTestTree(t)
	require.NoError(t, afero.WriteFile(fs, "rootfs/etc/motd", []byte("stock motd"), 0644))
	require.NoError(t, afero.WriteFile(fs, "assets/etc/motd", []byte("rooted motd"), 0644))

	require.NoError(t, c.overlayAssets("rootfs", "assets"))
	got, err := afero.ReadFile(fs, "rootfs/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "rooted motd", string(got))
}
