// fake.go provides a scripted Runner for tests in this module.
//
// It lives in the package proper (not a _test.go file) because the
// sequence, provision, realsense, protobuild, and cli packages all need
// it in their own tests.
package host

import (
	"context"
	"fmt"
	"strings"
)

// FakeResponse scripts the outcome for commands whose rendered form
// contains Match.
type FakeResponse struct {
	// Match is a substring matched against Cmd.String().
	Match string

	// Stdout is returned as the command's captured standard output.
	Stdout string

	// Err, when non-nil, is returned as the command failure.
	Err error
}

// FakeRunner records every Cmd it receives and answers from a script.
// Commands with no matching response succeed with empty output, so tests
// only script the invocations they care about.
type FakeRunner struct {
	// Responses are consulted in order; the first match wins.
	Responses []FakeResponse

	// Calls records every executed command in order.
	Calls []Cmd
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, cmd Cmd) (Result, error) {
	f.Calls = append(f.Calls, cmd)

	rendered := cmd.String()
	for _, resp := range f.Responses {
		if strings.Contains(rendered, resp.Match) {
			if resp.Err != nil {
				return Result{Stderr: resp.Err.Error()}, fmt.Errorf("%s: %w", cmd.Name, resp.Err)
			}
			return Result{Stdout: resp.Stdout}, nil
		}
	}
	return Result{}, nil
}

// CommandLines renders every recorded call, one per line, for assertions
// on invocation order.
func (f *FakeRunner) CommandLines() []string {
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.String()
	}
	return lines
}
