// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// StagingSuffix is appended to an archive's base name to form its staging
// directory name.
const StagingSuffix = "_tmp"

// OutputExt is the extension of produced archives.
const OutputExt = ".zip"

// InputArchive is a candidate compressed-tar archive discovered by a scan
// or named explicitly on the command line.
type InputArchive struct {
	// Path is the location of the archive file.
	Path string `json:"path" yaml:"path"`

	// Base is the file name with the recognized suffix stripped. It names
	// both the staging directory and the output archive.
	Base string `json:"base" yaml:"base"`

	// Suffix is the recognized compressed-tar suffix, e.g. ".tar.gz".
	Suffix string `json:"suffix" yaml:"suffix"`
}

// StagingDir returns the path of the staging directory for this archive,
// a sibling of the input named Base + "_tmp".
func (a InputArchive) StagingDir() string {
	return filepath.Join(filepath.Dir(a.Path), a.Base+StagingSuffix)
}

// OutputPath returns the path of the zip archive produced from this input,
// a sibling of the input named Base + ".zip".
func (a InputArchive) OutputPath() string {
	return filepath.Join(filepath.Dir(a.Path), a.Base+OutputExt)
}

// ConversionStatus describes the outcome of converting one archive.
type ConversionStatus string

const (
	// StatusConverted means the zip archive was produced.
	StatusConverted ConversionStatus = "converted"
	// StatusSkipped means the output already existed and overwrite was
	// disabled.
	StatusSkipped ConversionStatus = "skipped"
	// StatusFailed means a pipeline stage failed; Stage names it.
	StatusFailed ConversionStatus = "failed"
)

// ConversionRecord is the per-archive outcome of a run. Records feed the
// YAML report and the manifest database.
type ConversionRecord struct {
	Input    string           `json:"input" yaml:"input"`
	Output   string           `json:"output,omitempty" yaml:"output,omitempty"`
	Status   ConversionStatus `json:"status" yaml:"status"`
	Stage    string           `json:"stage,omitempty" yaml:"stage,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
	Entries  int              `json:"entries" yaml:"entries"`
	BytesIn  int64            `json:"bytes_in" yaml:"bytes_in"`
	BytesOut int64            `json:"bytes_out" yaml:"bytes_out"`
	Duration time.Duration    `json:"duration" yaml:"duration"`

	// Warnings holds non-fatal problems, e.g. a staging directory that
	// could not be fully removed.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
