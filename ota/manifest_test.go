package ota

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stockManifest = "ota_version=1.1.0.30\n\n" +
	"img_type=rootfs\nimg_name=rootfs.squashfs\nimg_size=1000\nimg_md5=abc123\n\n"

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(stockManifest))
	require.NoError(t, err)

	assert.Equal(t, "1.1.0.30", m.Version)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, Entry{Type: "rootfs", Name: "rootfs.squashfs", Size: "1000", MD5: "abc123"}, m.Entries[0])
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "duplicate partition type",
			text: "ota_version=1\n\n" +
				"img_type=rootfs\nimg_name=a\nimg_size=1\nimg_md5=x\n\n" +
				"img_type=rootfs\nimg_name=b\nimg_size=2\nimg_md5=y\n\n",
			want: `duplicate partition type "rootfs"`,
		},
		{
			name: "missing version header",
			text: "img_type=rootfs\nimg_name=a\nimg_size=1\nimg_md5=x\n\n",
			want: "missing ota_version",
		},
		{
			name: "wrong key order",
			text: "ota_version=1\n\nimg_name=a\nimg_type=rootfs\nimg_size=1\nimg_md5=x\n\n",
			want: `expected "img_type" line`,
		},
		{
			name: "truncated section",
			text: "ota_version=1\n\nimg_type=rootfs\nimg_name=a\nimg_size=1\n\n",
			want: "partition section has 3 lines",
		},
		{
			name: "repeated version",
			text: "ota_version=1\n\nota_version=2\n\n",
			want: "repeated ota_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.text))
			require.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestManifestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
	}{
		{
			name: "several partitions",
			m: Manifest{
				Version: "6.1.0.30",
				Entries: []Entry{
					{Type: "kernel", Name: "xImage", Size: "123", MD5: "aaa"},
					{Type: "rootfs", Name: "rootfs.squashfs", Size: "456", MD5: "bbb"},
					{Type: "userdata", Name: "zero.bin", Size: "789", MD5: "ccc"},
				},
			},
		},
		{
			name: "empty string fields",
			m: Manifest{
				Version: "1.0",
				Entries: []Entry{{Type: "rootfs", Name: "", Size: "", MD5: ""}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManifest(tt.m.Encode())
			require.NoError(t, err)
			assert.Equal(t, &tt.m, got)
		})
	}
}

func TestManifestEncodeIsStable(t *testing.T) {
	// Rewriting a manifest with unchanged values must be byte-identical; the
	// updater compares these files with a fixed-format reader.
	m, err := ParseManifest([]byte(stockManifest))
	require.NoError(t, err)

	first := m.Encode()
	assert.Equal(t, stockManifest, string(first))
	assert.Equal(t, first, m.Encode())
}

func TestManifestUpdateImage(t *testing.T) {
	m, err := ParseManifest([]byte(stockManifest))
	require.NoError(t, err)

	d := Sum([]byte("new rootfs"))
	require.NoError(t, m.UpdateImage("rootfs", 2048, d))
	entry := m.Find("rootfs")
	require.NotNil(t, entry)
	assert.Equal(t, "2048", entry.Size)
	assert.Equal(t, d.String(), entry.MD5)

	err = m.UpdateImage("bootloader", 1, d)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEntryVerify(t *testing.T) {
	dir := t.TempDir()
	data := []byte("squashfs contents")
	path := filepath.Join(dir, "rootfs.squashfs")
	require.NoError(t, os.WriteFile(path, data, 0644))

	entry := Entry{Type: "rootfs", Name: "rootfs.squashfs", Size: "17", MD5: Sum(data).String()}
	assert.NoError(t, entry.Verify(path))

	entry.Size = "16"
	assert.ErrorIs(t, entry.Verify(path), ErrIntegrity)

	entry.Size = "17"
	entry.MD5 = Sum([]byte("other")).String()
	assert.ErrorIs(t, entry.Verify(path), ErrIntegrity)
}

func TestWriteConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ota_config.in")
	require.NoError(t, WriteConfigFile(path, "6.1.0.30"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "current_version=6.1.0.30\n", string(data))
}
