// load.go locates and parses the optional rsprov configuration file.
//
// Lookup order mirrors common CLI conventions: an explicit --config path
// wins; otherwise rsprov.yaml, rsprov.yml, then rsprov.jsonc are probed in
// the working directory. A missing file is not an error: the built-in
// defaults fully describe a provisioning run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/etcdsp/rsprov/internal/model"
)

// candidateNames are the config file names probed in the working
// directory, in preference order.
var candidateNames = []string{"rsprov.yaml", "rsprov.yml", "rsprov.jsonc"}

// Load returns the effective configuration.
//
// When explicitPath is non-empty the file must exist and parse; any
// problem is an ExitConfigInvalid error. When explicitPath is empty the
// working directory is probed for the candidate names and the defaults
// are returned untouched if none is present.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		path = findConfig()
		if path == "" {
			// No file anywhere, pure defaults.
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := unmarshalInto(path, data, cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("invalid config file %s", path), err)
	}

	return cfg, nil
}

// findConfig probes the working directory for a config file and returns
// the first candidate that exists, or "" if none does.
func findConfig() string {
	for _, name := range candidateNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// unmarshalInto parses data into cfg based on the file extension.
//
// JSONC files are stripped of comments and trailing commas with
// jsonc.ToJSON before parsing with encoding/json, so operators can keep
// an annotated config the same way devcontainer.json files are written.
// Everything else is treated as YAML (which also accepts plain JSON).
func unmarshalInto(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc", ".json":
		clean := jsonc.ToJSON(data)
		return json.Unmarshal(clean, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}
