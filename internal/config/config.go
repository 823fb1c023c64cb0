// Package config loads and validates the Archon configuration.
//
// Configuration toggles only add or remove signal sources and optional
// gauntlet backends. They never alter ranking weights or the validation
// acceptance rule.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Config represents the complete Archon configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Detectors   DetectorsConfig   `json:"detectors" mapstructure:"detectors"`
	Indicators  IndicatorsConfig  `json:"indicators" mapstructure:"indicators"`
	Thresholds  ThresholdsConfig  `json:"thresholds" mapstructure:"thresholds"`
	Validate    ValidateConfig    `json:"validate" mapstructure:"validate"`
	Scan        ScanConfig        `json:"scan" mapstructure:"scan"`
	Lint        LintConfig        `json:"lint" mapstructure:"lint"`
	CatalogPath string            `json:"catalogPath" mapstructure:"catalogPath"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
}

// DetectorsConfig toggles individual detectors on or off.
// A detector absent from the map is enabled.
type DetectorsConfig struct {
	Disabled []string `json:"disabled" mapstructure:"disabled"`
}

// IndicatorsConfig toggles optional indicator sources
type IndicatorsConfig struct {
	RepeatedLiterals bool `json:"repeatedLiterals" mapstructure:"repeatedLiterals"`
	LongParamLists   bool `json:"longParamLists" mapstructure:"longParamLists"`
}

// ThresholdsConfig holds anti-pattern indicator thresholds
type ThresholdsConfig struct {
	HighLOC            int     `json:"highLoc" mapstructure:"highLoc"`
	LowLOC             int     `json:"lowLoc" mapstructure:"lowLoc"`
	HighDefs           int     `json:"highDefs" mapstructure:"highDefs"`
	LowDefs            int     `json:"lowDefs" mapstructure:"lowDefs"`
	HighCyclomatic     int     `json:"highCyclomatic" mapstructure:"highCyclomatic"`
	LowMaintainability float64 `json:"lowMaintainability" mapstructure:"lowMaintainability"`
	HighViolations     int     `json:"highViolations" mapstructure:"highViolations"`
	LongParams         int     `json:"longParams" mapstructure:"longParams"`
	RepeatedLiterals   int     `json:"repeatedLiterals" mapstructure:"repeatedLiterals"`
}

// ValidateConfig configures the validation gauntlet
type ValidateConfig struct {
	// DisabledBackends lists optional backends to skip. Required backends
	// (goast, goscanner, gofmt, gotypes) cannot be disabled.
	DisabledBackends []string `json:"disabledBackends" mapstructure:"disabledBackends"`
	// TimeoutMs bounds each backend invocation
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// Timeout converts the configured per-backend budget to a duration.
func (v ValidateConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutMs) * time.Millisecond
}

// ScanConfig configures multi-file scans
type ScanConfig struct {
	// MaxParallel bounds concurrent per-file pipelines
	MaxParallel int `json:"maxParallel" mapstructure:"maxParallel"`
	// MaxFiles caps how many files one request may expand to
	MaxFiles int `json:"maxFiles" mapstructure:"maxFiles"`
	// Ignore lists directory names excluded from directory walks
	Ignore []string `json:"ignore" mapstructure:"ignore"`
}

// LintConfig configures the optional external lint runner
type LintConfig struct {
	Enabled   bool     `json:"enabled" mapstructure:"enabled"`
	Command   string   `json:"command" mapstructure:"command"`
	Args      []string `json:"args" mapstructure:"args"`
	TimeoutMs int      `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Detectors: DetectorsConfig{
			Disabled: []string{},
		},
		Indicators: IndicatorsConfig{
			RepeatedLiterals: true,
			LongParamLists:   true,
		},
		Thresholds: ThresholdsConfig{
			HighLOC:            800,
			LowLOC:             300,
			HighDefs:           40,
			LowDefs:            15,
			HighCyclomatic:     10,
			LowMaintainability: 50,
			HighViolations:     25,
			LongParams:         5,
			RepeatedLiterals:   8,
		},
		Validate: ValidateConfig{
			DisabledBackends: []string{},
			TimeoutMs:        2000,
		},
		Scan: ScanConfig{
			MaxParallel: 8,
			MaxFiles:    500,
			Ignore:      []string{"vendor", "node_modules", "testdata", ".git"},
		},
		Lint: LintConfig{
			Enabled:   false,
			Command:   "go",
			Args:      []string{"vet", "-json"},
			TimeoutMs: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load reads archon.toml from dir (or the defaults when absent), applies
// ARCHON_* environment overrides, and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("archon")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("ARCHON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file is fine; defaults apply.
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.checkValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkValid checks invariants the rest of the pipeline relies on
func (c *Config) checkValid() error {
	if c.Thresholds.LowLOC >= c.Thresholds.HighLOC {
		return fmt.Errorf("thresholds: lowLoc (%d) must be below highLoc (%d)", c.Thresholds.LowLOC, c.Thresholds.HighLOC)
	}
	if c.Thresholds.LowDefs >= c.Thresholds.HighDefs {
		return fmt.Errorf("thresholds: lowDefs (%d) must be below highDefs (%d)", c.Thresholds.LowDefs, c.Thresholds.HighDefs)
	}
	if c.Validate.TimeoutMs <= 0 {
		return fmt.Errorf("validate: timeoutMs must be positive")
	}
	if c.Scan.MaxParallel <= 0 {
		return fmt.Errorf("scan: maxParallel must be positive")
	}
	for _, b := range c.Validate.DisabledBackends {
		switch b {
		case "treesitter", "treesitter-incr":
		default:
			return fmt.Errorf("validate: backend %q is required and cannot be disabled", b)
		}
	}
	return nil
}

// DetectorEnabled reports whether the named detector is enabled
func (c *Config) DetectorEnabled(name string) bool {
	for _, d := range c.Detectors.Disabled {
		if d == name {
			return false
		}
	}
	return true
}

// BackendEnabled reports whether the named gauntlet backend is enabled
func (c *Config) BackendEnabled(name string) bool {
	for _, b := range c.Validate.DisabledBackends {
		if b == name {
			return false
		}
	}
	return true
}

// WriteDefault writes the default configuration to dir/archon.toml.
// Refuses to overwrite an existing file.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, "archon.toml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists: %s", path)
	}

	data, err := gotoml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
