package firmware

import (
	"fmt"
	"regexp"
	"strings"
)

var versionRe = regexp.MustCompile(`^\d+(\.\d+)*$`)

// ValidateVersion accepts dot-separated numeric versions (w.x.y.z).
func ValidateVersion(v string) error {
	if !versionRe.MatchString(v) {
		return fmt.Errorf("version %q must be dot-separated numbers (e.g. 1.1.0.30)", v)
	}
	return nil
}

// RootedVersion replaces the leading component of a stock version with
// prefix. The resulting version sorts above anything the vendor publishes,
// so a device running it is never offered an automatic update back to stock.
func RootedVersion(stock, prefix string) string {
	parts := strings.Split(stock, ".")
	parts[0] = prefix
	return strings.Join(parts, ".")
}

// ImageBasename is the archive and directory basename the vendor layout
// uses for a release, e.g. "NEBULA_ota_img_V1.1.0.30".
func ImageBasename(boardName, version string) string {
	return fmt.Sprintf("%s_ota_img_V%s", boardName, version)
}

// OTADirName is the per-release subdirectory holding manifests and chunk
// sets, e.g. "ota_v1.1.0.30".
func OTADirName(version string) string {
	return "ota_v" + version
}
