package config

import "fmt"

// validOutputs are the accepted output mode names.
var validOutputs = map[string]bool{
	"":         true,
	"auto":     true,
	"text":     true,
	"markdown": true,
	"json":     true,
}

// Validate checks configuration invariants that cannot be expressed as
// defaults.
func (c *Config) Validate() error {
	if c.Compiler == "" {
		return fmt.Errorf("compiler is required")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be zero or positive, got %d", c.Jobs)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be zero or positive, got %d", c.Timeout)
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("unknown output mode %q, must be one of: auto, text, markdown, json", c.Output)
	}
	return nil
}
