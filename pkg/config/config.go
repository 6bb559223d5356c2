// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/xorbatch/pkg/conflict"
	"github.com/walteh/xorbatch/pkg/xor"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultInputMask     = "*.txt"
	DefaultXORValue      = "0000000000000000"
	DefaultTimerInterval = 1000 // milliseconds
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config is the settings snapshot a run works from
type Config struct {
	InputPath      string          `json:"input_path" yaml:"input_path"`           // Directory to scan
	InputMask      string          `json:"input_mask" yaml:"input_mask"`           // Glob mask, e.g. "*.txt"
	XORValue       string          `json:"xor_value" yaml:"xor_value"`             // 64-bit key as hex
	DeleteInput    bool            `json:"delete_input" yaml:"delete_input"`       // Remove sources after a successful write
	OutputPath     string          `json:"output_path" yaml:"output_path"`         // Directory to write to
	ConflictPolicy conflict.Policy `json:"conflict_policy" yaml:"conflict_policy"` // What to do when the output exists
	UseTimer       bool            `json:"use_timer" yaml:"use_timer"`             // Re-run on an interval
	TimerInterval  int             `json:"timer_interval" yaml:"timer_interval"`   // Interval in milliseconds
}

// 🏭 Default returns a config with every default applied and no input path
func Default() *Config {
	return &Config{
		InputMask:      DefaultInputMask,
		XORValue:       DefaultXORValue,
		OutputPath:     defaultOutputPath(),
		ConflictPolicy: conflict.Overwrite,
		TimerInterval:  DefaultTimerInterval,
	}
}

func defaultOutputPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// 🎯 Load loads and validates the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	cfg.WarnInvalidKey(ctx)

	return cfg, nil
}

// 📖 Read parses a config file without validating it, so callers can apply
// overrides first.
func Read(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WarnInvalidKey logs a warning when XORValue cannot be parsed. A bad key is
// not a validation error: every file of a run is skipped instead.
func (cfg *Config) WarnInvalidKey(ctx context.Context) {
	if _, err := cfg.Key(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("xor_value is not a valid key, every file will be skipped")
	}
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	// Check required fields
	if cfg.InputPath == "" {
		return errors.Errorf("input_path is required")
	}

	// Set defaults
	if cfg.InputMask == "" {
		cfg.InputMask = DefaultInputMask
	}
	if cfg.XORValue == "" {
		cfg.XORValue = DefaultXORValue
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutputPath()
	}
	if cfg.TimerInterval == 0 {
		cfg.TimerInterval = DefaultTimerInterval
	}

	// Clean up paths
	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputPath = filepath.Clean(cfg.OutputPath)

	if cfg.ConflictPolicy != conflict.Overwrite && cfg.ConflictPolicy != conflict.Rename {
		return errors.Errorf("conflict_policy %d: %w", int(cfg.ConflictPolicy), conflict.ErrUnknownPolicy)
	}
	if cfg.TimerInterval < 0 {
		return errors.Errorf("timer_interval must be positive, got %d", cfg.TimerInterval)
	}
	if cfg.ConflictPolicy == conflict.Overwrite && samePath(cfg.InputPath, cfg.OutputPath) {
		return errors.Errorf("output_path must differ from input_path when conflict_policy is overwrite")
	}

	return nil
}

// Key parses XORValue.
func (cfg *Config) Key() (xor.Key, error) {
	return xor.ParseKey(cfg.XORValue)
}

// Interval returns the timer interval as a duration.
func (cfg *Config) Interval() time.Duration {
	return time.Duration(cfg.TimerInterval) * time.Millisecond
}

// Clone returns an independent copy.
func (cfg *Config) Clone() *Config {
	c := *cfg
	return &c
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s/%s -> %s (%s)", cfg.InputPath, cfg.InputMask, cfg.OutputPath, cfg.ConflictPolicy)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
