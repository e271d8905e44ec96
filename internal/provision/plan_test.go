package provision

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// planNames is the canonical step order; changing it is a behavior
// change that must be deliberate.
var planNames = []string{
	"check-attached-devices",
	"system-update",
	"kernel-version-gate",
	"install-build-deps",
	"clone-sdk-source",
	"install-udev-rules",
	"clone-serialization-source",
	"compile-serialization",
	"serialization-self-test",
	"install-serialization",
	"serialization-python-runtime",
	"patch-sdk-build-file",
	"compile-sdk",
	"install-image-libs",
}

// TestPlan_OrderAndPolicies pins the step order and the single
// tolerated step.
func TestPlan_OrderAndPolicies(t *testing.T) {
	steps := Plan(host.NewProber())

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
		if s.Name == "serialization-self-test" {
			assert.Equal(t, model.PolicyTolerate, s.Policy)
		} else {
			assert.Equal(t, model.PolicyFatal, s.Policy, s.Name)
		}
	}
	assert.Equal(t, planNames, names)
}

// planTestContext builds a context over a fake runner with all
// filesystem paths pointed into a temp tree.
func planTestContext(t *testing.T, f *host.FakeRunner) *sequence.Context {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.SDK.SourceDir = filepath.Join(base, "librealsense")
	cfg.Serialization.SourceDir = filepath.Join(base, "protobuf")
	cfg.Companion.Dest = filepath.Join(base, "rs_py")

	sc := sequence.NewContext(f, cfg, &bytes.Buffer{})
	sc.Jobs = 1
	return sc
}

// devProber returns a Prober whose video glob matches `count` fake
// device nodes in a temp directory.
func devProber(t *testing.T, count int) *host.Prober {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < count; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "video"+string(rune('0'+i))), nil, 0o644))
	}
	return &host.Prober{VideoGlob: filepath.Join(dir, "video*")}
}

// TestCheckAttachedDevices_DevicePresent verifies no prompt fires when
// a camera is attached.
func TestCheckAttachedDevices_DevicePresent(t *testing.T) {
	sc := planTestContext(t, &host.FakeRunner{})
	prompted := false
	sc.Confirm = func(string, string) (bool, error) { prompted = true; return false, nil }

	step := checkAttachedDevices(devProber(t, 2))
	require.NoError(t, step(context.Background(), sc))
	assert.False(t, prompted)
}

// TestCheckAttachedDevices_NoDevicePrompt verifies the zero-device
// prompt and both of its answers.
func TestCheckAttachedDevices_NoDevicePrompt(t *testing.T) {
	step := checkAttachedDevices(devProber(t, 0))

	scYes := planTestContext(t, &host.FakeRunner{})
	scYes.Confirm = func(string, string) (bool, error) { return true, nil }
	require.NoError(t, step(context.Background(), scYes))

	scNo := planTestContext(t, &host.FakeRunner{})
	scNo.Confirm = func(string, string) (bool, error) { return false, nil }
	assert.ErrorIs(t, step(context.Background(), scNo), sequence.ErrCancelled)
}

// TestKernelVersionGate verifies both sides of the gate against the
// running kernel by adjusting the configured minimum around it.
func TestKernelVersionGate(t *testing.T) {
	prober := host.NewProber()
	running, err := prober.KernelVersion()
	require.NoError(t, err)

	gate := kernelVersionGate(prober)

	// Minimum below the running kernel: pass.
	scPass := planTestContext(t, &host.FakeRunner{})
	scPass.Cfg.MinKernel = config.KernelRequirement{Major: running.Major, Minor: running.Minor}
	require.NoError(t, gate(context.Background(), scPass))

	// Minimum above the running kernel: reboot verdict.
	scReboot := planTestContext(t, &host.FakeRunner{})
	scReboot.Cfg.MinKernel = config.KernelRequirement{Major: running.Major + 1, Minor: 0}
	err = gate(context.Background(), scReboot)
	require.Error(t, err)
	var re *sequence.RebootError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Reason, running.String())
}

// TestSystemUpdate verifies the update/upgrade pair.
func TestSystemUpdate(t *testing.T) {
	f := &host.FakeRunner{}
	sc := planTestContext(t, f)

	require.NoError(t, systemUpdate(context.Background(), sc))
	assert.Equal(t, []string{"apt-get update", "apt-get -y upgrade"}, f.CommandLines())
}

// TestInstallImageLibs verifies OS packages install before Python ones.
func TestInstallImageLibs(t *testing.T) {
	f := &host.FakeRunner{}
	sc := planTestContext(t, f)

	require.NoError(t, installImageLibs(context.Background(), sc))

	lines := f.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "apt-get -y install python3-opencv python3-numpy", lines[0])
	assert.Equal(t, "pip3 install opencv-python", lines[1])
}

// TestPlan_DryRunFullSequence runs the whole plan in dry-run mode over
// a fake runner: every step must complete without touching the host,
// and the report must show a full set of OK steps.
func TestPlan_DryRunFullSequence(t *testing.T) {
	f := &host.FakeRunner{}
	sc := planTestContext(t, f)
	sc.DryRun = true

	runner := sequence.NewRunner(Plan(devProber(t, 1)))
	report, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)

	require.Len(t, report.Steps, len(planNames))
	for _, sr := range report.Steps {
		assert.Equal(t, model.StatusOK, sr.Status, sr.Name)
	}
	assert.True(t, report.DryRun)
	// Dry-run must not invoke any real command.
	assert.Empty(t, f.Calls)
}
