// Package model defines the domain types and value objects for the
// rsprov CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (StepPolicy, StepReport, KernelVersion, etc.) are transient
// representations of a single provisioning run; there are no persistent
// state files; the only durable output of a run is the mutated host.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
