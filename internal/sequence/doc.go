// Package sequence implements the provisioning step sequencer.
//
// A provisioning run is an ordered list of typed steps, each declaring a
// failure policy (fatal or tolerated). The Runner executes them strictly
// sequentially, aborts the run on the first fatal failure, and treats a
// reboot verdict as a terminal outcome rather than an error. There are
// no retries and no rollback: a failed run leaves the host partially
// provisioned, exactly as the underlying package-manager and build-tool
// commands left it.
//
// Steps share a Context instead of the process environment: variables a
// step exports (LD_LIBRARY_PATH, PYTHONPATH, the serialization library's
// Python implementation switches) are threaded to later commands through
// Context.Env and merged per invocation by the host runner.
package sequence
