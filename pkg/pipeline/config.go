// Package pipeline loads a declarative list of steps from YAML and runs
// them in order.
//
// Each step names an implementation (module + class), the parameters it
// is constructed with, and two flags: execute (default true) and stop
// (default false). Steps never share in-memory state; everything a step
// produces is written to disk for the steps after it.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level pipeline document.
type Config struct {
	Steps []StepConfig `yaml:"steps"`
}

// StepConfig declares one pipeline step.
type StepConfig struct {
	Module  string    `yaml:"module"`
	Class   string    `yaml:"class"`
	Params  yaml.Node `yaml:"params"`
	Execute *bool     `yaml:"execute"`
	Stop    bool      `yaml:"stop"`
}

// Name is the registry key of the step, "module.class".
func (s StepConfig) Name() string {
	return StepName(s.Module, s.Class)
}

// ShouldExecute reports the execute flag, which defaults to true.
func (s StepConfig) ShouldExecute() bool {
	return s.Execute == nil || *s.Execute
}

// StepName joins a module and class into a registry key.
func StepName(module, class string) string {
	return module + "." + class
}

// LoadConfig reads and parses a pipeline file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a pipeline document. Unknown top-level or step keys
// are rejected.
func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every step names a module and a class.
func (c *Config) Validate() error {
	var errs []error
	for i, s := range c.Steps {
		if s.Module == "" {
			errs = append(errs, fmt.Errorf("step %d: module is required", i+1))
		}
		if s.Class == "" {
			errs = append(errs, fmt.Errorf("step %d: class is required", i+1))
		}
	}
	return errors.Join(errs...)
}
