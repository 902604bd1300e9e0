// Package config implements the configuration surface enumerated in
// spec.md §6.2, unmarshalled via gopkg.in/yaml.v3 with programmatic
// defaults in the style of the teacher's core/types/validation_config.go
// DefaultValidationConfig.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// URLCacheConfig is `url.cache` (spec §6.2).
type URLCacheConfig struct {
	Enabled      bool              `yaml:"enabled"`
	TTLByPattern map[string]string `yaml:"ttlByPattern"`
}

// Duration accepts either a Go duration string ("30s") or a bare
// integer of nanoseconds in YAML, since yaml.v3 has no built-in
// time.Duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// URLConfig is the `url` block (spec §6.2).
type URLConfig struct {
	Enabled                bool           `yaml:"enabled"`
	AllowedProtocols       []string       `yaml:"allowedProtocols"`
	AllowedDomains         []string       `yaml:"allowedDomains"`
	BlockedDomains         []string       `yaml:"blockedDomains"`
	MaxResponseSize        int64          `yaml:"maxResponseSize"`
	Timeout                Duration       `yaml:"timeout"`
	WarnOnInsecureProtocol bool           `yaml:"warnOnInsecureProtocol"`
	Cache                  URLCacheConfig `yaml:"cache"`
}

// ErrorBehavior selects how the evaluator handles a failing directive
// (spec §6.2 `executor.errorBehavior`, §7 propagation policy).
type ErrorBehavior string

const (
	ErrorBehaviorContinue ErrorBehavior = "continue"
	ErrorBehaviorAbort    ErrorBehavior = "abort"
)

// ExecutorConfig is the `executor` block (spec §6.2).
type ExecutorConfig struct {
	DefaultTimeoutMs    int           `yaml:"defaultTimeoutMs"`
	MaxOutputLines      int           `yaml:"maxOutputLines"`
	ErrorBehavior       ErrorBehavior `yaml:"errorBehavior"`
	ShowProgress        bool          `yaml:"showProgress"`
	LargeParamThreshold int           `yaml:"largeParamThreshold"`
}

// FuzzyMatchConfig is `import.fuzzyMatch` when given as an object
// rather than a bare bool (spec §6.2).
type FuzzyMatchConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MaxCandidates int     `yaml:"maxCandidates"`
	Threshold     float64 `yaml:"threshold"`
}

// ImportConfig is the `import` block (spec §6.2). FuzzyMatch is
// `bool|{enabled, maxCandidates, threshold}` in the spec; Go models
// that as a struct with an explicit Enabled flag plus tuning fields,
// and UnmarshalYAML below accepts either a bare bool or the full form.
type ImportConfig struct {
	ApproveAll bool             `yaml:"approveAll"`
	FuzzyMatch FuzzyMatchConfig `yaml:"fuzzyMatch"`
}

func (f *FuzzyMatchConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var asBool bool
	if err := unmarshal(&asBool); err == nil {
		f.Enabled = asBool
		f.MaxCandidates = 3
		f.Threshold = 0.8
		return nil
	}
	type plain FuzzyMatchConfig
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*f = FuzzyMatchConfig(p)
	return nil
}

// EnvironmentConfig is the `environment` block (spec §6.2).
type EnvironmentConfig struct {
	BaseDir             string `yaml:"baseDir"`
	AllowAbsolutePaths  bool   `yaml:"allowAbsolutePaths"`
	NormalizeBlankLines bool   `yaml:"normalizeBlankLines"`
	DevMode             bool   `yaml:"devMode"`
}

// ReservedEnvConfig is `reservedEnvVars` (spec §6.2): names imported
// into `@input`.
type ReservedEnvConfig struct {
	AllowedEnvVars []string `yaml:"allowedEnvVars"`
}

// Config is the top-level configuration object.
type Config struct {
	URL             URLConfig         `yaml:"url"`
	Executor        ExecutorConfig    `yaml:"executor"`
	Import          ImportConfig      `yaml:"import"`
	Environment     EnvironmentConfig `yaml:"environment"`
	ReservedEnvVars ReservedEnvConfig `yaml:"reservedEnvVars"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		URL: URLConfig{
			Enabled:          true,
			AllowedProtocols: []string{"https"},
			MaxResponseSize:  5 * 1024 * 1024,
			Timeout:          Duration(30 * time.Second),
			Cache:            URLCacheConfig{Enabled: true},
		},
		Executor: ExecutorConfig{
			DefaultTimeoutMs:    30_000,
			MaxOutputLines:      1000,
			ErrorBehavior:       ErrorBehaviorAbort,
			LargeParamThreshold: 128 * 1024,
		},
		Import: ImportConfig{
			FuzzyMatch: FuzzyMatchConfig{Enabled: true, MaxCandidates: 3, Threshold: 0.8},
		},
		Environment: EnvironmentConfig{
			NormalizeBlankLines: true,
		},
	}
}

// Load parses YAML bytes over the defaults, so an incomplete config
// file only overrides what it specifies.
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
