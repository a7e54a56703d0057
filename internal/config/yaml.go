// Package config loads the external CLI/YAML configuration surface
// of §6 and turns it into device.Config values the core consumes.
// Two layers compose the way acars-oxide's clap-based OxideInput and
// the teacher's own config loading both draw from multiple sources:
// pflag-parsed CLI flags (teacher dependency) override an optional
// YAML file (teacher dependency); see Build for the precedence rules.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors the CLI surface for users who'd rather not pass
// 40 flags, the way acars-oxide's env-var layer mirrors its clap
// flags one-for-one.
type YAMLConfig struct {
	OutputConsole bool         `yaml:"output_console"`
	OutputFile    string       `yaml:"output_file"`
	OutputTCP     string       `yaml:"output_tcp"`
	Verbosity     int          `yaml:"verbosity"`
	Devices       []YAMLDevice `yaml:"devices"`
}

type YAMLDevice struct {
	Serial      string    `yaml:"serial"`
	Remote      string    `yaml:"remote"`
	PPM         int32     `yaml:"ppm"`
	Gain        int32     `yaml:"gain"`
	BiasTee     bool      `yaml:"bias_tee"`
	Mult        int       `yaml:"mult"`
	Frequencies []float64 `yaml:"frequencies"`
	Decoder     string     `yaml:"decoder"`
}

// LoadYAML reads and parses an optional config file. A missing path
// is not an error — callers pass "" to mean "no file".
func LoadYAML(path string) (*YAMLConfig, error) {
	if path == "" {
		return &YAMLConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}
