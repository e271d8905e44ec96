// runner.go defines the Cmd/Result/Runner abstraction and the real
// os/exec implementation behind it.
//
// Design decisions:
//   - We shell out to the host tools (apt-get, git, cmake, make, pip)
//     rather than reimplementing any of them: the provisioning flow is
//     glue around external tools whose own correctness is out of scope.
//   - Runner is an interface so every step can be exercised in tests with
//     a scripted fake; ExecRunner is the only code that runs commands.
//   - Output is captured for error reporting and optionally teed to a
//     writer for long builds, where the operator wants to see compiler
//     progress live.
package host

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

// Cmd describes a single external command invocation.
type Cmd struct {
	// Name is the binary to invoke (resolved via PATH).
	Name string

	// Args are the command arguments, excluding the binary name.
	Args []string

	// Dir is the working directory. Empty means the process's own.
	Dir string

	// Env holds environment overrides for this invocation only. They are
	// merged over the inherited environment; the rsprov process
	// environment is never mutated.
	Env map[string]string

	// Stdout, when non-nil, receives the command's standard output live
	// in addition to capture. Used for compiler and package-manager
	// output during long steps.
	Stdout io.Writer

	// Stderr, when non-nil, receives standard error live in addition to
	// capture. Leaving both writers nil makes the invocation silent,
	// which the device probe relies on to suppress irrelevant
	// diagnostics.
	Stderr io.Writer
}

// String renders the invocation the way it would be typed in a shell,
// prefixed with any environment overrides. Used by dry-run output.
func (c Cmd) String() string {
	var b strings.Builder

	// Render env overrides in a stable order so dry-run output is
	// deterministic.
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s ", k, c.Env[k])
	}

	b.WriteString(c.Name)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

// Result holds the captured output of a completed command.
type Result struct {
	// Stdout is the complete captured standard output.
	Stdout string

	// Stderr is the complete captured standard error.
	Stderr string
}

// Runner executes external commands. The provisioning sequence depends
// only on this interface, never on os/exec directly.
type Runner interface {
	// Run executes the command and returns its captured output.
	// A non-zero exit status is returned as an error that includes a
	// stderr excerpt for diagnosis.
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// ExecRunner runs commands on the real host via os/exec.
//
// The struct is stateless; it exists as a receiver so it can satisfy
// Runner and be swapped for a fake in tests.
type ExecRunner struct{}

// NewExecRunner creates the real command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner. Output is always captured; when the Cmd carries
// writers, output is additionally teed to them as it is produced.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) (Result, error) {
	// #nosec G204 command names and arguments come from the pinned
	// configuration, not from untrusted input.
	ec := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	ec.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		// Merge overrides onto the inherited environment. Environ()
		// semantics make the last occurrence of a variable win, so
		// appending the overrides is sufficient.
		ec.Env = ec.Environ()
		keys := make([]string, 0, len(cmd.Env))
		for k := range cmd.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ec.Env = append(ec.Env, k+"="+cmd.Env[k])
		}
	}

	var stdout, stderr strings.Builder
	ec.Stdout = &stdout
	ec.Stderr = &stderr
	if cmd.Stdout != nil {
		ec.Stdout = io.MultiWriter(&stdout, cmd.Stdout)
	}
	if cmd.Stderr != nil {
		ec.Stderr = io.MultiWriter(&stderr, cmd.Stderr)
	}

	err := ec.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, fmt.Errorf("%s: %w%s", cmd.Name, err, stderrExcerpt(res.Stderr))
	}
	return res, nil
}

// stderrExcerpt formats the tail of a command's stderr for inclusion in
// an error message. Build tools can produce megabytes of output; the
// last few lines are where the actual failure reason lives.
func stderrExcerpt(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	const keep = 5
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return ": " + strings.Join(lines, " / ")
}
