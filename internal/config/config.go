// SPDX-License-Identifier: MIT

// Package config provides configuration loading for the searchlight CLI.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trossi/searchlight/internal/logging"
	"github.com/trossi/searchlight/rsa"
	"github.com/trossi/searchlight/searchlight"
)

// Config contains all searchlight run settings.
type Config struct {
	// Analysis contains the searchlight parameters.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Preprocess selects the steps applied before the analysis.
	Preprocess PreprocessConfig `yaml:"preprocess"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`

	// Upload configures where the result volume is copied after writing.
	Upload UploadConfig `yaml:"upload"`
}

// AnalysisConfig configures searchlight.Run.
type AnalysisConfig struct {
	// Radius is the searchlight radius in voxels.
	Radius int `yaml:"radius"`

	// Workers is the number of concurrent locations; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// Granularity is "sample" (default) or "condition".
	Granularity string `yaml:"granularity"`

	// Hypothesis is the model RDM: "categorical" (default) or "ordinal".
	Hypothesis string `yaml:"hypothesis"`

	// Levels orders the conditions for the ordinal hypothesis.
	Levels []string `yaml:"levels,omitempty"`

	// Policy is "flag" (default) or "fail".
	Policy string `yaml:"policy"`

	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// ApplyMask zeroes voxels outside the mask when loading the dataset.
	ApplyMask bool `yaml:"apply_mask"`
}

// PreprocessConfig toggles the preprocessing steps.
type PreprocessConfig struct {
	Detrend bool `yaml:"detrend"`
	ZScore  bool `yaml:"zscore"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	// Level is "debug", "info" (default), "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
}

// UploadConfig configures result upload.
type UploadConfig struct {
	// Kind is "" (disabled), "local" or "minio".
	Kind string `yaml:"kind"`

	// Dir is the root directory of a local store.
	Dir string `yaml:"dir,omitempty"`

	// Endpoint is the host:port of a MinIO / S3-compatible server.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Bucket and Prefix locate the uploaded objects.
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`

	// AccessKey and SecretKey support ${VAR} syntax for env vars.
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`

	Region string `yaml:"region,omitempty"`
	Secure bool   `yaml:"secure"`
}

// RedactedSecretKey returns the secret key with most characters masked.
func (u UploadConfig) RedactedSecretKey() string {
	if u.SecretKey == "" {
		return ""
	}
	if len(u.SecretKey) < 12 {
		return "(set)"
	}

	return u.SecretKey[:4] + "..." + u.SecretKey[len(u.SecretKey)-4:]
}

// String implements fmt.Stringer to keep the secret out of logs.
func (u UploadConfig) String() string {
	return fmt.Sprintf("UploadConfig{Kind:%s, Endpoint:%s, Bucket:%s, Prefix:%s, SecretKey:%s}",
		u.Kind, u.Endpoint, u.Bucket, u.Prefix, u.RedactedSecretKey())
}

// Model hypothesis names accepted in analysis.hypothesis.
const (
	HypothesisCategorical = "categorical"
	HypothesisOrdinal     = "ordinal"
)

// Default returns a Config with the defaults of the original analysis.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Radius:           searchlight.DefaultRadius,
			Workers:          1,
			Granularity:      rsa.PerSample.String(),
			Hypothesis:       HypothesisCategorical,
			Policy:           searchlight.PolicyFlag.String(),
			ProgressInterval: searchlight.DefaultProgressInterval,
		},
		Preprocess: PreprocessConfig{
			Detrend: true,
			ZScore:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults -> YAML file (if path is set) ->
// environment variables, then validates it.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Upload.AccessKey = expandEnvVars(config.Upload.AccessKey)
	config.Upload.SecretKey = expandEnvVars(config.Upload.SecretKey)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Analysis.Radius < 0 {
		return fmt.Errorf("radius must be non-negative, got %d", c.Analysis.Radius)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Analysis.Workers)
	}
	if c.Analysis.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be non-negative, got %v", c.Analysis.ProgressInterval)
	}
	if _, err := rsa.ParseGranularity(c.Analysis.Granularity); err != nil {
		return fmt.Errorf("invalid granularity: %w", err)
	}
	switch c.Analysis.Hypothesis {
	case HypothesisCategorical:
		// every pair of distinct conditions is 1, so per-condition rows leave
		// nothing to rank
		if c.Granularity() == rsa.PerCondition {
			return fmt.Errorf("granularity condition needs hypothesis %s", HypothesisOrdinal)
		}
	case HypothesisOrdinal:
		if err := validateLevels(c.Analysis.Levels); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid hypothesis: %s (valid: %s, %s)",
			c.Analysis.Hypothesis, HypothesisCategorical, HypothesisOrdinal)
	}
	if _, err := searchlight.ParsePolicy(c.Analysis.Policy); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "" && f != "text" && f != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", f)
	}

	switch c.Upload.Kind {
	case "":
	case "local":
		if c.Upload.Dir == "" {
			return fmt.Errorf("upload.dir is required for local upload")
		}
	case "minio":
		if c.Upload.Endpoint == "" || c.Upload.Bucket == "" {
			return fmt.Errorf("upload.endpoint and upload.bucket are required for minio upload")
		}
	default:
		return fmt.Errorf("invalid upload kind: %s (valid: local, minio, or empty)", c.Upload.Kind)
	}

	return nil
}

// Granularity returns the parsed analysis granularity.
func (c *Config) Granularity() rsa.Granularity {
	g, _ := rsa.ParseGranularity(c.Analysis.Granularity)
	return g
}

// Hypothesis returns the model hypothesis selected by analysis.hypothesis.
func (c *Config) Hypothesis() rsa.Hypothesis {
	if c.Analysis.Hypothesis == HypothesisOrdinal {
		return rsa.Ordinal(c.Analysis.Levels...)
	}

	return rsa.Categorical
}

// validateLevels requires at least two distinct, non-empty ordinal levels.
func validateLevels(levels []string) error {
	if len(levels) < 2 {
		return fmt.Errorf("hypothesis %s needs at least 2 levels, got %d", HypothesisOrdinal, len(levels))
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if l == "" {
			return fmt.Errorf("empty level in %v", levels)
		}
		if seen[l] {
			return fmt.Errorf("duplicate level %q", l)
		}
		seen[l] = true
	}

	return nil
}

// Policy returns the parsed degenerate policy.
func (c *Config) Policy() searchlight.DegeneratePolicy {
	p, _ := searchlight.ParsePolicy(c.Analysis.Policy)
	return p
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("SEARCHLIGHT_RADIUS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEARCHLIGHT_RADIUS: %w", err)
		}
		config.Analysis.Radius = n
	}
	if v := os.Getenv("SEARCHLIGHT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEARCHLIGHT_WORKERS: %w", err)
		}
		config.Analysis.Workers = n
	}
	if v := os.Getenv("SEARCHLIGHT_GRANULARITY"); v != "" {
		config.Analysis.Granularity = v
	}
	if v := os.Getenv("SEARCHLIGHT_HYPOTHESIS"); v != "" {
		config.Analysis.Hypothesis = v
	}
	if v := os.Getenv("SEARCHLIGHT_LEVELS"); v != "" {
		config.Analysis.Levels = splitList(v)
	}
	if v := os.Getenv("SEARCHLIGHT_POLICY"); v != "" {
		config.Analysis.Policy = v
	}
	if v := os.Getenv("SEARCHLIGHT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SEARCHLIGHT_UPLOAD_ENDPOINT"); v != "" {
		config.Upload.Endpoint = v
	}
	if v := os.Getenv("SEARCHLIGHT_UPLOAD_ACCESS_KEY"); v != "" {
		config.Upload.AccessKey = v
	}
	if v := os.Getenv("SEARCHLIGHT_UPLOAD_SECRET_KEY"); v != "" {
		config.Upload.SecretKey = v
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// splitList splits a comma-separated env value, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
