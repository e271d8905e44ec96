// plan.go defines the provisioning sequence.
package provision

import (
	"context"
	"fmt"

	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
	"github.com/etcdsp/rsprov/internal/protobuild"
	"github.com/etcdsp/rsprov/internal/realsense"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// Plan returns the full provisioning sequence. The prober is injected
// so tests (and `rsprov check`) can point the device probe elsewhere.
func Plan(prober *host.Prober) []sequence.Step {
	return []sequence.Step{
		{
			Name:   "check-attached-devices",
			Policy: model.PolicyFatal,
			Run:    checkAttachedDevices(prober),
		},
		{
			Name:   "system-update",
			Policy: model.PolicyFatal,
			Run:    systemUpdate,
		},
		{
			Name:   "kernel-version-gate",
			Policy: model.PolicyFatal,
			Run:    kernelVersionGate(prober),
		},
		{
			Name:   "install-build-deps",
			Policy: model.PolicyFatal,
			Run: func(ctx context.Context, sc *sequence.Context) error {
				return host.NewApt(sc).Install(ctx, sc.Cfg.Packages.Build...)
			},
		},
		{
			Name:   "clone-sdk-source",
			Policy: model.PolicyFatal,
			Run:    realsense.CloneSource,
		},
		{
			Name:   "install-udev-rules",
			Policy: model.PolicyFatal,
			Run:    realsense.InstallUdevRules,
		},
		{
			Name:   "clone-serialization-source",
			Policy: model.PolicyFatal,
			Run:    protobuild.Clone,
		},
		{
			Name:   "compile-serialization",
			Policy: model.PolicyFatal,
			Run:    protobuild.Build,
		},
		{
			// Upstream's test suite is flaky on low-memory ARM boards;
			// a failure here does not invalidate the built library.
			Name:   "serialization-self-test",
			Policy: model.PolicyTolerate,
			Run:    protobuild.SelfTest,
		},
		{
			Name:   "install-serialization",
			Policy: model.PolicyFatal,
			Run:    protobuild.Install,
		},
		{
			Name:   "serialization-python-runtime",
			Policy: model.PolicyFatal,
			Run:    protobuild.PythonRuntime,
		},
		{
			Name:   "patch-sdk-build-file",
			Policy: model.PolicyFatal,
			Run:    realsense.PatchBuildFile,
		},
		{
			Name:   "compile-sdk",
			Policy: model.PolicyFatal,
			Run:    realsense.Compile,
		},
		{
			Name:   "install-image-libs",
			Policy: model.PolicyFatal,
			Run:    installImageLibs,
		},
	}
}

// checkAttachedDevices counts V4L2 device nodes and, when none are
// present, asks the operator whether to provision anyway. Provisioning
// without the camera attached is legitimate (the udev rules and
// libraries install fine), so this is a prompt, not a failure.
func checkAttachedDevices(prober *host.Prober) func(context.Context, *sequence.Context) error {
	return func(_ context.Context, sc *sequence.Context) error {
		count := prober.CountVideoDevices()
		sc.Logf("video devices attached: %d", count)
		if count > 0 {
			fmt.Fprintf(sc.Out, "      %d video device(s) detected\n", count)
			return nil
		}

		ok, err := sc.AskConfirm(
			"No camera detected. Continue?",
			"No /dev/video* device nodes were found. The camera can be attached after provisioning.",
		)
		if err != nil {
			return err
		}
		if !ok {
			return sequence.ErrCancelled
		}
		return nil
	}
}

// systemUpdate refreshes the package index and applies pending
// upgrades, which is also what brings in a newer kernel for the gate
// that follows.
func systemUpdate(ctx context.Context, sc *sequence.Context) error {
	apt := host.NewApt(sc)
	if err := apt.Update(ctx); err != nil {
		return err
	}
	return apt.Upgrade(ctx)
}

// kernelVersionGate compares the running kernel against the configured
// minimum and returns the terminal reboot verdict when it is too old.
// The upgraded kernel from the system-update step only takes effect
// after a reboot, so the verdict ends this run.
func kernelVersionGate(prober *host.Prober) func(context.Context, *sequence.Context) error {
	return func(_ context.Context, sc *sequence.Context) error {
		v, err := prober.KernelVersion()
		if err != nil {
			return err
		}

		minMajor, minMinor := sc.Cfg.MinKernel.Major, sc.Cfg.MinKernel.Minor
		sc.Logf("running kernel %s, minimum %d.%d", v, minMajor, minMinor)
		if v.AtLeast(minMajor, minMinor) {
			return nil
		}
		return &sequence.RebootError{
			Reason: fmt.Sprintf("running kernel %s, need at least %d.%d", v, minMajor, minMinor),
		}
	}
}

// installImageLibs installs the image-processing stack: the OS packages
// first, then the Python packages that build on them.
func installImageLibs(ctx context.Context, sc *sequence.Context) error {
	if err := host.NewApt(sc).Install(ctx, sc.Cfg.Packages.Image...); err != nil {
		return err
	}
	return host.NewPip(sc).Install(ctx, sc.Cfg.Packages.Pip...)
}
