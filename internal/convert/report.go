// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tarzip/pkg/types"
)

// Report is the YAML document describing a batch run.
type Report struct {
	Directory  string    `yaml:"directory"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Converted  int       `yaml:"converted"`
	Skipped    int       `yaml:"skipped"`
	Failed     int       `yaml:"failed"`

	Conversions []types.ConversionRecord `yaml:"conversions"`
}

// WriteReport writes the run report for result to path as YAML.
func WriteReport(path, dir string, result BatchResult) error {
	report := Report{
		Directory:   dir,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Converted:   result.Converted,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		Conversions: result.Records,
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
