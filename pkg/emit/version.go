// Package emit synthesizes shim class artifacts for the supported wrapper
// shapes. Each emitter builds a complete class file in memory, with exact
// operand stack and local slot budgets for every trampoline body.
package emit

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// DefaultMinPlatform is the minimum language version generation requires
// unless the caller raises it.
const DefaultMinPlatform = 21

// UnsupportedPlatformError reports that the running toolchain is older
// than what a wrapper shape requires.
type UnsupportedPlatformError struct {
	Feature  string
	Required int
	Actual   int
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s requires go%d or greater, but the runtime is go%d", e.Feature, e.Required, e.Actual)
}

// PlatformVersion returns the running platform's minor language version,
// parsed from runtime.Version ("go1.24.1" reports 24). Development builds
// without a parseable version report DefaultMinPlatform.
func PlatformVersion() int {
	return parsePlatformVersion(runtime.Version())
}

func parsePlatformVersion(v string) int {
	v = strings.TrimPrefix(v, "go1.")
	if i := strings.IndexByte(v, '.'); i >= 0 {
		v = v[:i]
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return DefaultMinPlatform
	}
	return n
}

// VersionFor gates generation on the platform version: it returns the
// class file major version to stamp on artifacts, or an
// UnsupportedPlatformError when the runtime is older than min.
func VersionFor(min int, feature string) (uint16, error) {
	actual := PlatformVersion()
	if actual < min {
		return 0, &UnsupportedPlatformError{Feature: feature, Required: min, Actual: actual}
	}
	return uint16(actual), nil
}
