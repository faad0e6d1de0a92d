package firmware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{version: "1.1.0.30", valid: true},
		{version: "6", valid: true},
		{version: "1.2", valid: true},
		{version: "", valid: false},
		{version: "1.", valid: false},
		{version: ".1", valid: false},
		{version: "1.1.0.30-beta", valid: false},
		{version: "v1.1.0.30", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRootedVersion(t *testing.T) {
	assert.Equal(t, "6.1.0.30", RootedVersion("1.1.0.30", "6"))
	assert.Equal(t, "9", RootedVersion("2", "9"))
	assert.Equal(t, "99.0", RootedVersion("1.0", "99"))
}

func TestReleaseNames(t *testing.T) {
	assert.Equal(t, "NEBULA_ota_img_V1.1.0.30", ImageBasename("NEBULA", "1.1.0.30"))
	assert.Equal(t, "ota_v6.1.0.30", OTADirName("6.1.0.30"))
}
