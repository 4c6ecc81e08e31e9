package config

import (
	"fmt"
	"os"
	"strings"
)

var outputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	valid := false
	for _, m := range outputModes {
		if c.OutputFormat == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(outputModes, ", "))
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}

// ValidateTable checks that the configured table file exists.
func (c *Config) ValidateTable() error {
	if c.Table == "" {
		return nil
	}
	if _, err := os.Stat(c.Table); os.IsNotExist(err) {
		return fmt.Errorf("table file does not exist: %s\nHint: Create it or use --table to specify a different path", c.Table)
	}
	return nil
}

// LockExists reports whether the lock file is present.
func (c *Config) LockExists() bool {
	if c.Lock == "" {
		return false
	}
	_, err := os.Stat(c.Lock)
	return err == nil
}
