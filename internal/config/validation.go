package config

import (
	"fmt"
	"regexp"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.Model == "" {
		errs = append(errs, "model must not be empty")
	}

	// Sandbox validation
	if c.Sandbox.TimeoutSeconds < 1 {
		errs = append(errs, "sandbox.timeout_seconds must be >= 1")
	}
	if c.Sandbox.MaxOutputBytes < 1 {
		errs = append(errs, "sandbox.max_output_bytes must be >= 1")
	}
	if c.Sandbox.GracefulShutdownMs < 1 {
		errs = append(errs, "sandbox.graceful_shutdown_ms must be >= 1")
	}
	if c.Sandbox.BinaryDetectionSampleSize < 1 {
		errs = append(errs, "sandbox.binary_detection_sample_size must be >= 1")
	}

	// Policy validation: every pattern must compile
	for _, p := range c.Policy.DestructivePatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("policy.destructive_patterns: invalid pattern %q: %v", p, err))
		}
	}
	for _, p := range c.Policy.AmbiguousPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("policy.ambiguous_patterns: invalid pattern %q: %v", p, err))
		}
	}

	// History validation
	if c.History.MaxBytes < 1 {
		errs = append(errs, "history.max_bytes must be >= 1")
	}
	if c.History.MaxTurns < 1 {
		errs = append(errs, "history.max_turns must be >= 1")
	}

	// Search validation
	if c.Search.ResultLimit < 1 {
		errs = append(errs, "search.result_limit must be >= 1")
	}
	if c.Search.RelevanceThreshold < 0 || c.Search.RelevanceThreshold > 1 {
		errs = append(errs, "search.relevance_threshold must be in [0, 1]")
	}
	if c.Search.FetchPerSecond <= 0 {
		errs = append(errs, "search.fetch_per_second must be > 0")
	}
	if c.Search.FetchBurst < 1 {
		errs = append(errs, "search.fetch_burst must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
