// Package version carries the build version stamped in by the linker.
package version

import (
	"fmt"
	"regexp"
	"strings"
)

// Overridden with -ldflags "-X github.com/hylauncher/hylauncher/internal/version.version=...".
var version = "dev"

// String returns the build version for the current binary.
func String() string {
	return version
}

// ForTesting overrides the version string and returns a cleanup function
// that restores the original value. Must not be called concurrently.
func ForTesting(v string) func() {
	original := version
	version = v
	return func() { version = original }
}

// gitDescribeSuffix matches the trailing "-N-gHASH" added by git describe.
var gitDescribeSuffix = regexp.MustCompile(`-\d+-g[0-9a-f]+$`)

func normalizeVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	return gitDescribeSuffix.ReplaceAllString(v, "")
}

// FormatVersion ensures a "v" prefix for release versions. "dev" and empty
// strings are returned as-is.
func FormatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// CheckVersionMismatch compares this binary's version with the one reported
// by a running launcher service. It returns a warning when they differ and
// "" when they match or either side is a dev build.
func CheckVersionMismatch(serviceVersion string) string {
	if serviceVersion == "" || version == "" {
		return ""
	}
	local := version
	if local == "dev" || serviceVersion == "dev" {
		return ""
	}
	if normalizeVersion(local) == normalizeVersion(serviceVersion) {
		return ""
	}
	return fmt.Sprintf(
		"WARNING: hylauncher %s is talking to a launcher service running %s; restart the service with `hylauncher serve`",
		FormatVersion(local), FormatVersion(serviceVersion),
	)
}
