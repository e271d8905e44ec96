// kernel.go defines the kernel version value object used by the
// kernel-version gate in the provisioning sequence.
//
// Single-board OS images frequently ship a kernel older than the one the
// depth-camera SDK's UVC backend needs. The gate reads the running kernel
// release once, compares it against a minimum, and, when too old, ends
// the run with a reboot verdict so the freshly upgraded kernel (installed
// by the system-update step) takes effect.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// KernelVersion holds the numeric components of a kernel release string.
// Only Major and Minor participate in the gate comparison; Patch is kept
// for display.
type KernelVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ParseKernelVersion parses a kernel release string such as
// "5.10.17-v7l+" or "6.1.0-rpi7-rpi-v8" into a KernelVersion.
//
// The release string is everything uname -r reports: "M.m.p" optionally
// followed by a distribution suffix starting with "-" or "+". Parsing is
// deliberately lenient about the suffix and strict about the numeric
// prefix: at least major and minor must be present and numeric.
func ParseKernelVersion(release string) (KernelVersion, error) {
	release = strings.TrimSpace(release)
	if release == "" {
		return KernelVersion{}, fmt.Errorf("empty kernel release string")
	}

	// Cut the distribution suffix. The numeric prefix ends at the first
	// character that is neither a digit nor a dot.
	numeric := release
	if i := strings.IndexFunc(release, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i >= 0 {
		numeric = release[:i]
	}

	parts := strings.Split(numeric, ".")
	if len(parts) < 2 {
		return KernelVersion{}, fmt.Errorf("kernel release %q: need at least major.minor", release)
	}

	var v KernelVersion
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return KernelVersion{}, fmt.Errorf("kernel release %q: bad major component: %w", release, err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return KernelVersion{}, fmt.Errorf("kernel release %q: bad minor component: %w", release, err)
	}
	// Patch is optional ("6.1" is a valid release) and may be truncated
	// by the suffix cut; ignore conversion errors and keep zero.
	if len(parts) >= 3 && parts[2] != "" {
		if p, perr := strconv.Atoi(parts[2]); perr == nil {
			v.Patch = p
		}
	}
	return v, nil
}

// AtLeast reports whether the kernel version is at least major.minor.
//
// Note the comparison is a proper lexicographic order on (Major, Minor):
// 6.0 satisfies a 5.10 minimum even though 0 < 10. The upstream shell
// script's flat boolean got this wrong (it rebooted on 5.3's sibling
// versions only by accident of clause ordering); the gate here compares
// components in order.
func (v KernelVersion) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// String returns the dotted form "M.m.p".
func (v KernelVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
