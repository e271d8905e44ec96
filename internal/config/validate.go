// validate.go checks the effective configuration before a run starts.
// A provisioning run mutates the host irreversibly, so obviously broken
// configuration (empty URLs, relative checkout paths, a zero kernel
// minimum) is rejected up front rather than mid-sequence.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	// Field is the dotted field path that failed validation
	// (e.g., "sdk.sourceDir").
	Field string

	// Message describes what is wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration and returns the first problem found,
// or nil when the configuration is usable.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		err   string
	}{
		{"sdk.repo", checkRepoURL(c.SDK.Repo)},
		{"sdk.ref", checkNonEmpty(c.SDK.Ref)},
		{"sdk.sourceDir", checkAbsPath(c.SDK.SourceDir)},
		{"sdk.udevScript", checkRelPath(c.SDK.UdevScript)},
		{"serialization.repo", checkRepoURL(c.Serialization.Repo)},
		{"serialization.ref", checkNonEmpty(c.Serialization.Ref)},
		{"serialization.sourceDir", checkAbsPath(c.Serialization.SourceDir)},
		{"companion.repo", checkRepoURL(c.Companion.Repo)},
		{"companion.branch", checkNonEmpty(c.Companion.Branch)},
		{"companion.dest", checkAbsPath(c.Companion.Dest)},
	}
	for _, ck := range checks {
		if ck.err != "" {
			return &ValidationError{Field: ck.field, Message: ck.err}
		}
	}

	if c.MinKernel.Major <= 0 {
		return &ValidationError{Field: "minKernel.major", Message: "must be a positive integer"}
	}
	if c.MinKernel.Minor < 0 {
		return &ValidationError{Field: "minKernel.minor", Message: "must not be negative"}
	}
	if c.Jobs < 0 {
		return &ValidationError{Field: "jobs", Message: "must be zero (auto) or positive"}
	}

	return nil
}

// checkNonEmpty returns a message when the value is blank.
func checkNonEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "must not be empty"
	}
	return ""
}

// checkRepoURL returns a message unless the value is an http(s) or git URL.
func checkRepoURL(v string) string {
	if msg := checkNonEmpty(v); msg != "" {
		return msg
	}
	u, err := url.Parse(v)
	if err != nil {
		return fmt.Sprintf("not a valid URL: %v", err)
	}
	switch u.Scheme {
	case "http", "https", "git", "ssh":
		return ""
	default:
		return fmt.Sprintf("unsupported URL scheme %q", u.Scheme)
	}
}

// checkAbsPath returns a message unless the value is an absolute path.
// Checkout and extraction destinations are removed or rewritten during a
// run, so an ambiguous relative path is refused outright.
func checkAbsPath(v string) string {
	if msg := checkNonEmpty(v); msg != "" {
		return msg
	}
	if !filepath.IsAbs(v) {
		return "must be an absolute path"
	}
	return ""
}

// checkRelPath returns a message unless the value is a clean relative path
// (it is joined onto a source directory at run time).
func checkRelPath(v string) string {
	if msg := checkNonEmpty(v); msg != "" {
		return msg
	}
	if filepath.IsAbs(v) {
		return "must be relative to the SDK source directory"
	}
	if strings.HasPrefix(filepath.Clean(v), "..") {
		return "must not escape the SDK source directory"
	}
	return ""
}
