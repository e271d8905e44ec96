// Package config handles loading and validation of the rsprov
// provisioning configuration.
//
// Behavior is fully defined by the built-in defaults (the pinned SDK and
// serialization-library refs, package lists, and home-directory paths the
// original provisioning flow hardcodes); an optional configuration file
// overrides individual fields. Both YAML (rsprov.yaml) and comment-tolerant
// JSONC (rsprov.jsonc) files are supported; JSONC is stripped with
// github.com/tidwall/jsonc before parsing with encoding/json.
package config
