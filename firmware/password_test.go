package firmware

import (
	"strings"
	"testing"

	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerPassword(t *testing.T) {
	got, err := ContainerPassword("NEBULA")
	require.NoError(t, err)

	// The fixed salt makes the derivation deterministic; the device updater
	// recomputes the same value.
	assert.True(t, strings.HasPrefix(got, "$1$cxswfile$"), "unexpected password form: %s", got)
	again, err := ContainerPassword("NEBULA")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	assert.NoError(t, md5_crypt.New().Verify(got, []byte("NEBULAC3_7e_bz")))

	other, err := ContainerPassword("SONIC")
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestShadowHash(t *testing.T) {
	hash, err := ShadowHash("creality")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$5$"), "expected sha256-crypt form, got %s", hash)
	// The stock image uses the default 5000 rounds, which crypt encodes by
	// omitting the rounds parameter entirely.
	assert.NotContains(t, hash, "rounds=")
	assert.NoError(t, sha256_crypt.New().Verify(hash, []byte("creality")))
	assert.Error(t, sha256_crypt.New().Verify(hash, []byte("wrong")))
}
