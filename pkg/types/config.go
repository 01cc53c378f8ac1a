// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and record structures shared
// between the tarzip CLI and the conversion stages.
package types

// ConvertConfig holds settings for a batch conversion run.
type ConvertConfig struct {
	// Dir is the directory scanned for input archives and receiving the
	// zip outputs (default ".").
	Dir string `json:"dir" yaml:"dir"`

	// Overwrite replaces existing output archives and stale staging
	// directories instead of skipping or failing.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// Jobs is the number of archives converted concurrently (default 1,
	// i.e. sequential processing in scan order).
	Jobs int `json:"jobs" yaml:"jobs"`

	// KeepStaging leaves the staging directories in place after a
	// conversion, for debugging extraction problems.
	KeepStaging bool `json:"keep_staging" yaml:"keep_staging"`

	// ReportPath, when non-empty, is where the YAML run report is written.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// ManifestConfig holds settings for the conversion history manifest.
type ManifestConfig struct {
	// Disabled turns off manifest recording for the run.
	Disabled bool `json:"disabled" yaml:"disabled"`

	// MaxRuns is the default number of runs shown by history queries
	// (default 20).
	MaxRuns int `json:"max_runs" yaml:"max_runs"`
}
