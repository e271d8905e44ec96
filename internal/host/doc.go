// Package host is the execution backend for provisioning: it wraps
// os/exec command invocation and the read-only probes of the machine
// being provisioned (video device count, kernel release, CPU/memory).
//
// The Runner interface is the single seam between provisioning logic and
// the host. Everything above it (steps, the sequencer, the CLI) is
// testable against the fake runner in this package; only ExecRunner
// touches the real system.
//
// Environment variables are never set on the rsprov process itself.
// Each Cmd carries its own overrides, which ExecRunner merges over the
// inherited environment for that one invocation. This keeps the
// exported-variable state of the original shell flow explicit and local.
package host
