package driver

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config controls how the driver runs the explicit register pass.
type Config struct {
	// VerifyBefore checks the structure of each pipeline before rewriting.
	// Default: true.
	VerifyBefore bool `json:"verify_before"`

	// VerifyAfter checks each rewritten pipeline, including that no stage
	// refers to another stage's values anymore. Default: true.
	VerifyAfter bool `json:"verify_after"`

	// DumpBefore prints each pipeline before rewriting. Default: false.
	DumpBefore bool `json:"dump_before"`

	// DumpAfter prints each pipeline after rewriting. Default: false.
	DumpAfter bool `json:"dump_after"`

	// Trace logs every routing decision and boundary rewrite.
	// Default: false.
	Trace bool `json:"trace"`

	// ContinueOnError keeps processing the remaining pipelines after one
	// fails. All failures are reported together. Default: false.
	ContinueOnError bool `json:"continue_on_error"`

	// Pipelines restricts the run to the named pipelines. Empty means all.
	Pipelines []string `json:"pipelines,omitempty"`
}

// DefaultConfig returns a Config that verifies but does not dump.
func DefaultConfig() *Config {
	return &Config{
		VerifyBefore: true,
		VerifyAfter:  true,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read driver config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse driver config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize driver config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write driver config file: %w", err)
	}

	return nil
}

// Validate checks that the pipeline filter has no empty or repeated names.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Pipelines))
	for _, name := range c.Pipelines {
		if name == "" {
			return fmt.Errorf("pipelines must not contain an empty name")
		}
		if seen[name] {
			return fmt.Errorf("pipeline %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Pipelines = append([]string(nil), c.Pipelines...)
	return &clone
}

// selects reports whether the pipeline named name should be processed.
func (c *Config) selects(name string) bool {
	if len(c.Pipelines) == 0 {
		return true
	}
	for _, n := range c.Pipelines {
		if n == name {
			return true
		}
	}
	return false
}
