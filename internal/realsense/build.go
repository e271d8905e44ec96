// build.go drives the SDK source checkout, udev rule installation, and
// the cmake/make build with Python bindings.
package realsense

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// installedLibDir is where `make install` places the SDK shared
// libraries; exported into the run environment so the Python bindings
// and later tooling can resolve them.
const installedLibDir = "/usr/local/lib"

// CloneSource checks out the pinned SDK revision.
func CloneSource(ctx context.Context, sc *sequence.Context) error {
	sdk := sc.Cfg.SDK
	return host.NewGit(sc).Clone(ctx, sdk.Repo, sdk.Ref, sdk.SourceDir)
}

// InstallUdevRules runs the SDK's own udev setup script, which grants
// non-root access to the camera's USB interface. The script is an
// external collaborator: we invoke it by absolute path and observe only
// its exit status.
func InstallUdevRules(ctx context.Context, sc *sequence.Context) error {
	script := filepath.Join(sc.Cfg.SDK.SourceDir, sc.Cfg.SDK.UdevScript)
	_, err := sc.Run(ctx, host.Cmd{
		Name: "bash",
		Args: []string{script},
		Dir:  sc.Cfg.SDK.SourceDir,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitStepFailed,
			fmt.Sprintf("udev rule script %s failed", script), err)
	}
	return nil
}

// PatchBuildFile applies the anchored wrapper build-file fix.
// In dry-run mode the target is announced but left untouched.
func PatchBuildFile(_ context.Context, sc *sequence.Context) error {
	target := filepath.Join(sc.Cfg.SDK.SourceDir, BuildFileRelPath)
	if sc.DryRun {
		fmt.Fprintf(sc.Out, "dry-run: patch %s (%d anchored replacements)\n", target, len(BuildFilePatch))
		return nil
	}
	sc.Logf("patching %s", target)
	return PatchFile(target, BuildFilePatch)
}

// Compile configures and builds the SDK in an out-of-tree build
// directory, installs it, and exports the library/binding paths into
// the run environment for the steps that follow.
func Compile(ctx context.Context, sc *sequence.Context) error {
	buildDir := filepath.Join(sc.Cfg.SDK.SourceDir, "build")
	if !sc.DryRun {
		if err := os.MkdirAll(buildDir, 0o755); err != nil {
			return model.WrapCLIError(model.ExitStepFailed,
				fmt.Sprintf("failed to create build directory %s", buildDir), err)
		}
	}

	cmakeArgs := append([]string{".."}, sc.Cfg.SDK.CMakeArgs...)
	if _, err := sc.ExecStream(ctx, host.Cmd{Name: "cmake", Args: cmakeArgs, Dir: buildDir}); err != nil {
		return model.WrapCLIError(model.ExitStepFailed, "cmake configure failed", err)
	}

	jobs := fmt.Sprintf("-j%d", sc.Jobs)
	if _, err := sc.ExecStream(ctx, host.Cmd{Name: "make", Args: []string{jobs}, Dir: buildDir}); err != nil {
		return model.WrapCLIError(model.ExitStepFailed, "SDK build failed", err)
	}

	if _, err := sc.ExecStream(ctx, host.Cmd{Name: "make", Args: []string{"install"}, Dir: buildDir}); err != nil {
		return model.WrapCLIError(model.ExitStepFailed, "SDK install failed", err)
	}

	// The installed shared libraries and Python bindings are outside the
	// default search paths on the target image; thread both to the
	// remaining steps.
	sc.AppendPathEnv("LD_LIBRARY_PATH", installedLibDir)
	sc.AppendPathEnv("PYTHONPATH", filepath.Join(installedLibDir, "python3", "dist-packages"))
	return nil
}
