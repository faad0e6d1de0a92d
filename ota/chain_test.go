package ota

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRoundTrip(t *testing.T) {
	chain := DigestChain{Sum([]byte("a")), Sum([]byte("b")), Sum([]byte("c"))}
	path := filepath.Join(t.TempDir(), "ota_md5_rootfs.squashfs.test")

	require.NoError(t, WriteChain(path, chain))
	got, err := ReadChain(path)
	require.NoError(t, err)
	assert.Equal(t, chain, got)
}

func TestReadChainRejectsBadDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain")
	require.NoError(t, os.WriteFile(path, []byte("not-a-digest\n"), 0644))

	_, err := ReadChain(path)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestVerifyChunks(t *testing.T) {
	dir := t.TempDir()
	image, _ := writeImage(t, dir, 5*512+99)
	chain, err := Split(image, dir, WithChunkSize(512), DeleteSourceAfterSplit(true))
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("intact set verifies", func(t *testing.T) {
		assert.NoError(t, VerifyChunks(ctx, dir, "rootfs.squashfs", chain, 4))
	})

	t.Run("chain length mismatch", func(t *testing.T) {
		err := VerifyChunks(ctx, dir, "rootfs.squashfs", chain[:len(chain)-1], 4)
		assert.ErrorIs(t, err, ErrIntegrity)
	})

	t.Run("corrupted chunk detected", func(t *testing.T) {
		parts, err := ChunkFiles(dir, "rootfs.squashfs")
		require.NoError(t, err)
		corrupted := filepath.Join(dir, parts[3])
		require.NoError(t, os.WriteFile(corrupted, []byte("flipped"), 0644))

		err = VerifyChunks(ctx, dir, "rootfs.squashfs", chain, 4)
		assert.ErrorIs(t, err, ErrIntegrity)
		assert.Contains(t, err.Error(), parts[3])
	})
}
