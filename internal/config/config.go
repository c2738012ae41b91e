// Package config loads the optional YAML pipeline/palette configuration
// the driver consults before running (an ambient-stack addition: the
// core spec hardcodes the register palette and pass order, but a
// production driver takes these as configuration the way the teacher's
// OptimizationPipeline.AddPass sequencing is assembled by its caller).
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultRegisterCount is the reference allocatable-register palette size
// (spec.md §9 open question: "an implementation parameter; in the
// reference, 22").
const DefaultRegisterCount = 22

// Config is the driver's tunable parameters. The zero value is not the
// reference configuration: Default supplies it, and Load fills any
// field absent from the file (or non-positive) with the default.
type Config struct {
	// Registers is the allocatable register count passed to regalloc.
	Registers int `yaml:"registers"`
	// InlineMaxInstructions/InlineMaxBlocks gate inlining candidacy.
	InlineMaxInstructions int `yaml:"inline_max_instructions"`
	InlineMaxBlocks       int `yaml:"inline_max_blocks"`
	// Passes is parsed from the file but not consulted: the driver always
	// runs ir.NewDriver's default pass list, and names are not checked.
	Passes []string `yaml:"passes"`
	// Verbose enables pass-by-pass progress logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Registers:             DefaultRegisterCount,
		InlineMaxInstructions: 10,
		InlineMaxBlocks:       5,
	}
}

// Load reads a YAML config file at path, overlaying it onto Default().
// A missing file is not an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Registers <= 0 {
		cfg.Registers = DefaultRegisterCount
	}
	if cfg.InlineMaxInstructions <= 0 {
		cfg.InlineMaxInstructions = 10
	}
	if cfg.InlineMaxBlocks <= 0 {
		cfg.InlineMaxBlocks = 5
	}
	return cfg, nil
}
