package version

import (
	"os"
	"strings"
)

// Version is the fallback application version when no VERSION file is present.
var Version = "v1.0.0"

// GetVersion returns the version string, preferring a VERSION file so
// container builds can stamp releases without recompiling.
func GetVersion() string {
	if data, err := os.ReadFile("VERSION"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return Version
}
