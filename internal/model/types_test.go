package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStepPolicy_String verifies that StepPolicy values produce the
// expected string representations for plan output and JSON serialization.
func TestStepPolicy_String(t *testing.T) {
	assert.Equal(t, "fatal", PolicyFatal.String())
	assert.Equal(t, "tolerate", PolicyTolerate.String())
}

// TestStepPolicy_IsValid checks that only defined policy values pass validation.
func TestStepPolicy_IsValid(t *testing.T) {
	assert.True(t, PolicyFatal.IsValid())
	assert.True(t, PolicyTolerate.IsValid())
	assert.False(t, StepPolicy("retry").IsValid())
	assert.False(t, StepPolicy("").IsValid())
}

// TestParseStepPolicy verifies string-to-policy conversion,
// including case normalization and error cases.
func TestParseStepPolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected StepPolicy
		hasError bool
	}{
		{"fatal", PolicyFatal, false},
		{"tolerate", PolicyTolerate, false},
		{"Fatal", PolicyFatal, false},       // case insensitive
		{"TOLERATE", PolicyTolerate, false}, // case insensitive
		{"retry", "", true},                 // unknown value
		{"", "", true},                      // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseStepPolicy(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestStepStatus_IsTerminal verifies that only a fatal failure and a
// reboot verdict end the run.
func TestStepStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusRebootRequired.IsTerminal())
	assert.False(t, StatusOK.IsTerminal())
	assert.False(t, StatusTolerated.IsTerminal())
	assert.False(t, StatusSkipped.IsTerminal())
}

// TestStepStatus_IsValid checks that only defined statuses pass validation.
func TestStepStatus_IsValid(t *testing.T) {
	for _, s := range []StepStatus{StatusOK, StatusFailed, StatusTolerated, StatusSkipped, StatusRebootRequired} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, StepStatus("running").IsValid())
}

// TestRunReport_Failed verifies fatal-failure detection across step reports.
func TestRunReport_Failed(t *testing.T) {
	report := &RunReport{Steps: []StepReport{
		{Name: "system-update", Status: StatusOK},
		{Name: "serialization-self-test", Status: StatusTolerated},
	}}
	assert.False(t, report.Failed())

	report.Steps = append(report.Steps, StepReport{Name: "compile-sdk", Status: StatusFailed})
	assert.True(t, report.Failed())
}

// TestRunReport_RebootRequired verifies reboot verdict detection.
func TestRunReport_RebootRequired(t *testing.T) {
	report := &RunReport{Steps: []StepReport{
		{Name: "kernel-version-gate", Status: StatusRebootRequired},
		{Name: "install-build-deps", Status: StatusSkipped},
	}}
	assert.True(t, report.RebootRequired())
	assert.False(t, report.Failed())
}

// TestCLIError_ErrorAndUnwrap verifies error formatting and that the
// wrapped error is reachable via errors.Is.
func TestCLIError_ErrorAndUnwrap(t *testing.T) {
	underlying := errors.New("exit status 100")

	wrapped := WrapCLIError(ExitStepFailed, "apt-get update failed", underlying)
	assert.Equal(t, "apt-get update failed: exit status 100", wrapped.Error())
	assert.True(t, errors.Is(wrapped, underlying))
	assert.Equal(t, ExitStepFailed, wrapped.Code)

	bare := NewCLIError(ExitUserCancelled, "cancelled by operator")
	assert.Equal(t, "cancelled by operator", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
