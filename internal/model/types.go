// Package model defines the domain types for the rsprov CLI.
//
// All types in this package are plain values passed between the CLI layer,
// the step sequencer, and the host-facing packages. Key design decision:
// every provisioning step declares an explicit failure policy (StepPolicy)
// instead of relying on a shell interpreter's implicit abort-on-error
// behavior, and every step outcome is recorded as a StepReport so the run
// can be summarized in text or JSON.
package model

import (
	"fmt"
	"strings"
	"time"
)

// StepPolicy declares how the sequencer reacts when a step's command
// exits non-zero. Almost every step is PolicyFatal; the serialization
// library's self-test is the one step the original provisioning flow
// explicitly allows to fail.
type StepPolicy string

const (
	// PolicyFatal aborts the entire run on step failure, leaving the host
	// partially provisioned. There is no rollback.
	PolicyFatal StepPolicy = "fatal"

	// PolicyTolerate records the failure, prints a warning, and continues
	// with the next step.
	PolicyTolerate StepPolicy = "tolerate"
)

// String returns the string representation of StepPolicy.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and plan listings.
func (p StepPolicy) String() string {
	return string(p)
}

// IsValid checks whether the StepPolicy value is one of the
// predefined valid policies.
func (p StepPolicy) IsValid() bool {
	switch p {
	case PolicyFatal, PolicyTolerate:
		return true
	default:
		return false
	}
}

// ParseStepPolicy converts a string to a StepPolicy.
// Returns an error if the string does not match any valid policy.
func ParseStepPolicy(s string) (StepPolicy, error) {
	policy := StepPolicy(strings.ToLower(s))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid step policy: %q (valid: fatal, tolerate)", s)
	}
	return policy, nil
}

// StepStatus represents the outcome of a single executed step.
// The transitions during a run are:
//
//	[Pending] → Running → {OK | Failed | Tolerated | RebootRequired}
//	[Pending] → Skipped (steps after a fatal failure or reboot verdict)
type StepStatus string

const (
	// StatusOK indicates the step's commands all exited zero.
	StatusOK StepStatus = "ok"

	// StatusFailed indicates a fatal step failure that aborted the run.
	StatusFailed StepStatus = "failed"

	// StatusTolerated indicates the step failed but its policy allowed
	// the run to continue (e.g., the serialization library self-test).
	StatusTolerated StepStatus = "tolerated"

	// StatusSkipped indicates the step never ran because an earlier step
	// ended the run.
	StatusSkipped StepStatus = "skipped"

	// StatusRebootRequired indicates the step decided the host must be
	// rebooted before provisioning can continue. This is a terminal
	// outcome for the run, not a failure.
	StatusRebootRequired StepStatus = "reboot-required"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// IsValid checks whether the StepStatus value is one of the
// predefined valid statuses.
func (s StepStatus) IsValid() bool {
	switch s {
	case StatusOK, StatusFailed, StatusTolerated, StatusSkipped, StatusRebootRequired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether this status ends the run: a fatal failure
// aborts it and a reboot verdict hands control back to the operator.
func (s StepStatus) IsTerminal() bool {
	return s == StatusFailed || s == StatusRebootRequired
}

// StepReport records the outcome of one step in a provisioning run.
// A slice of these is the run's full audit trail, rendered by the CLI
// in text or JSON form.
type StepReport struct {
	// Name is the step's identifier as shown in plan and run output.
	Name string `json:"name"`

	// Policy is the declared failure policy of the step.
	Policy StepPolicy `json:"policy"`

	// Status is the observed outcome.
	Status StepStatus `json:"status"`

	// Detail holds the failure message for Failed/Tolerated steps,
	// or an informational note (e.g., the reboot reason). Empty for OK.
	Detail string `json:"detail,omitempty"`

	// Duration is the wall-clock time the step took. Zero for skipped steps.
	Duration time.Duration `json:"duration"`
}

// RunReport summarizes a full provisioning run for CLI output.
type RunReport struct {
	// Steps lists every planned step with its outcome, in plan order.
	Steps []StepReport `json:"steps"`

	// DryRun records whether commands were printed instead of executed.
	DryRun bool `json:"dryRun"`

	// StartedAt is the wall-clock start of the run.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is the wall-clock end of the run (or of the abort).
	FinishedAt time.Time `json:"finishedAt"`
}

// Failed reports whether any fatal step failed during the run.
func (r *RunReport) Failed() bool {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return true
		}
	}
	return false
}

// RebootRequired reports whether the run ended with a reboot verdict.
func (r *RunReport) RebootRequired() bool {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusRebootRequired {
			return true
		}
	}
	return false
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigInvalid indicates the provisioning configuration file
	// could not be loaded or failed validation.
	ExitConfigInvalid ExitCode = 2

	// ExitStepFailed indicates a fatal provisioning step failed and the
	// run was aborted, leaving the host partially provisioned.
	ExitStepFailed ExitCode = 3

	// ExitDownloadFailed indicates the companion repository archive
	// could not be downloaded or extracted.
	ExitDownloadFailed ExitCode = 4

	// ExitGitError indicates a git operation (clone/checkout) failed.
	ExitGitError ExitCode = 5

	// ExitPatchFailed indicates the SDK build-file patch could not be
	// applied because an anchor line was missing or ambiguous.
	ExitPatchFailed ExitCode = 6

	// ExitUserCancelled indicates the operator declined an interactive prompt.
	ExitUserCancelled ExitCode = 7

	// ExitRebootRequired indicates the kernel gate decided the host must
	// reboot before provisioning can continue (reported rather than
	// executed, e.g., under --no-reboot or --dry-run).
	ExitRebootRequired ExitCode = 8
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
