// probe.go implements the read-only host probes: attached video device
// count, running kernel release, CPU/memory totals, and tool presence.
//
// Probes ask the OS directly (glob, uname, sysinfo) instead of shelling
// out to ls/uname and parsing their output. The original flow redirected
// stderr away while listing /dev/video* to hide "no such file" noise;
// a glob has no stderr to suppress, which achieves the same quietly.
package host

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/etcdsp/rsprov/internal/model"
)

// DefaultVideoGlob matches the V4L2 device nodes a connected camera
// registers on Linux.
const DefaultVideoGlob = "/dev/video*"

// osReleasePath is the fallback source for the kernel release string
// when the uname syscall is unavailable.
const osReleasePath = "/proc/sys/kernel/osrelease"

// Prober answers read-only questions about the machine being
// provisioned.
//
// The struct carries the video glob so tests can point it at a temp
// directory; everything else reads fixed kernel interfaces.
type Prober struct {
	// VideoGlob is the pattern whose matches are counted as attached
	// video devices. Defaults to DefaultVideoGlob.
	VideoGlob string
}

// NewProber creates a Prober with the default video device glob.
func NewProber() *Prober {
	return &Prober{VideoGlob: DefaultVideoGlob}
}

// CountVideoDevices returns the number of device nodes matching the
// video glob. Zero matches is a normal answer (camera not yet attached),
// not an error; a malformed pattern also counts as zero because the
// only consumer is the "prompt the operator?" decision.
func (p *Prober) CountVideoDevices() int {
	matches, err := filepath.Glob(p.VideoGlob)
	if err != nil {
		return 0
	}
	return len(matches)
}

// KernelVersion reads the running kernel release once and parses it.
func (p *Prober) KernelVersion() (model.KernelVersion, error) {
	release, err := kernelRelease()
	if err != nil {
		return model.KernelVersion{}, model.WrapCLIError(model.ExitGeneralError,
			"failed to read kernel release", err)
	}
	v, err := model.ParseKernelVersion(release)
	if err != nil {
		return model.KernelVersion{}, model.WrapCLIError(model.ExitGeneralError,
			"failed to parse kernel release", err)
	}
	return v, nil
}

// kernelRelease returns the raw uname -r string, falling back to
// /proc/sys/kernel/osrelease.
func kernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		return unix.ByteSliceToString(uts.Release[:]), nil
	}

	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// CPUCount returns the number of usable CPUs.
func (p *Prober) CPUCount() int {
	return runtime.NumCPU()
}

// MemoryTotalBytes returns the host's total RAM in bytes, or zero when
// the sysinfo syscall is unavailable. Callers treat zero as "unknown"
// and fall back to the most conservative compile parallelism.
func (p *Prober) MemoryTotalBytes() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	// Totalram is in units of info.Unit bytes (usually 1 on 64-bit,
	// larger on 32-bit boards with >4GB addressable memory).
	return uint64(info.Totalram) * uint64(info.Unit)
}

// LookTool reports the resolved path of a required host tool, or an
// error when it is not on PATH. Used by `rsprov check` to fail the
// preflight before any mutation happens.
func (p *Prober) LookTool(name string) (string, error) {
	return exec.LookPath(name)
}

// Reboot asks the host to reboot via the system reboot command. The
// call only returns on failure; on success the process is torn down
// with the rest of userspace.
func Reboot(ctx context.Context, r Runner) error {
	if _, err := r.Run(ctx, Cmd{Name: "reboot"}); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "reboot command failed", err)
	}
	return nil
}
