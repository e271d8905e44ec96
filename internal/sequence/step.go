// step.go defines the Step type, the shared run Context, and the
// sentinel outcomes a step can produce besides plain failure.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
)

// Step is one unit of work in the provisioning sequence. The sequencer
// only schedules steps and records outcomes; all host interaction
// happens inside Run via the Context.
type Step struct {
	// Name identifies the step in plan and run output.
	Name string

	// Policy declares how the sequencer reacts to a failure of this step.
	Policy model.StepPolicy

	// Run performs the step. Returning a RebootError ends the run with a
	// reboot verdict; returning ErrCancelled ends it as cancelled by the
	// operator; any other error is handled per Policy.
	Run func(ctx context.Context, sc *Context) error
}

// ErrCancelled is returned by a step when the operator declines an
// interactive confirmation.
var ErrCancelled = errors.New("cancelled by operator")

// RebootError is the terminal "host must reboot before provisioning can
// continue" verdict from the kernel gate. It is an outcome, not a
// failure: the run report records it as StatusRebootRequired.
type RebootError struct {
	// Reason explains the verdict to the operator (e.g., the running
	// and required kernel versions).
	Reason string
}

// Error implements the error interface.
func (e *RebootError) Error() string {
	return "reboot required: " + e.Reason
}

// Context carries everything a step needs: the command runner, the
// effective configuration, and the mutable environment that replaces
// the original flow's exported shell variables.
//
// Context is NOT safe for concurrent use. The sequencer runs steps
// strictly one at a time, so no locking is needed or wanted.
type Context struct {
	// Runner executes external commands.
	Runner host.Runner

	// Cfg is the effective provisioning configuration.
	Cfg *config.Config

	// Env accumulates the variables steps export for later steps. It is
	// merged into every command invocation; the rsprov process
	// environment is never touched.
	Env map[string]string

	// Jobs is the compiler parallelism for the source builds.
	Jobs int

	// Out receives step progress and streamed tool output.
	Out io.Writer

	// DryRun prints each command instead of executing it.
	DryRun bool

	// Confirm asks the operator a yes/no question. A nil Confirm (or
	// --yes) answers every question with yes.
	Confirm func(title, description string) (bool, error)

	// Logf emits verbose diagnostics. Never nil after NewContext.
	Logf func(format string, args ...interface{})
}

// NewContext builds a run context with an empty environment and no-op
// verbose logging.
func NewContext(r host.Runner, cfg *config.Config, out io.Writer) *Context {
	return &Context{
		Runner: r,
		Cfg:    cfg,
		Env:    make(map[string]string),
		Out:    out,
		Logf:   func(string, ...interface{}) {},
	}
}

// Setenv exports a variable to every subsequent command in the run.
func (sc *Context) Setenv(key, value string) {
	sc.Env[key] = value
	sc.Logf("env: %s=%s", key, value)
}

// AppendPathEnv prepends dir to a colon-separated path variable in the
// run environment (LD_LIBRARY_PATH, PYTHONPATH).
func (sc *Context) AppendPathEnv(key, dir string) {
	if existing, ok := sc.Env[key]; ok && existing != "" {
		sc.Setenv(key, dir+":"+existing)
		return
	}
	sc.Setenv(key, dir)
}

// Run runs a command silently (output captured only). The run
// environment is merged under any command-specific overrides. In
// dry-run mode the command is printed and skipped.
//
// Run makes Context itself a host.Runner, so helpers built over that
// interface (host.Git) inherit env threading and dry-run behavior.
func (sc *Context) Run(ctx context.Context, cmd host.Cmd) (host.Result, error) {
	return sc.run(ctx, cmd, false)
}

// ExecStream runs a command with stdout/stderr teed to the run output,
// for long builds where the operator wants live progress.
func (sc *Context) ExecStream(ctx context.Context, cmd host.Cmd) (host.Result, error) {
	return sc.run(ctx, cmd, true)
}

func (sc *Context) run(ctx context.Context, cmd host.Cmd, stream bool) (host.Result, error) {
	// Merge the accumulated run environment under the command's own
	// overrides: a step that sets a variable just for one invocation
	// wins over the shared state.
	if len(sc.Env) > 0 {
		merged := make(map[string]string, len(sc.Env)+len(cmd.Env))
		for k, v := range sc.Env {
			merged[k] = v
		}
		for k, v := range cmd.Env {
			merged[k] = v
		}
		cmd.Env = merged
	}

	if sc.DryRun {
		fmt.Fprintf(sc.Out, "dry-run: %s\n", cmd.String())
		return host.Result{}, nil
	}

	if stream {
		cmd.Stdout = sc.Out
		cmd.Stderr = sc.Out
	}

	sc.Logf("exec: %s", cmd.String())
	return sc.Runner.Run(ctx, cmd)
}

// AskConfirm routes an operator question through the configured prompt.
// With no prompt configured the answer is yes, which covers both --yes
// and non-interactive runs.
func (sc *Context) AskConfirm(title, description string) (bool, error) {
	if sc.Confirm == nil {
		return true, nil
	}
	return sc.Confirm(title, description)
}
