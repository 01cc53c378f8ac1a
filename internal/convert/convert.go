// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the archive conversion pipeline: extract a
// compressed tar into a staging directory, repackage it as a zip, remove
// the staging directory. Batches are collect-and-continue; one bad
// archive never aborts the run.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pdiddy/tarzip/pkg/types"
)

// Extractor unpacks a compressed tar archive into a directory tree.
type Extractor interface {
	// ExtractAll extracts archivePath into destDir and returns the number
	// of entries written.
	ExtractAll(archivePath, destDir string) (int, error)
}

// Compressor packs a directory tree into a zip archive.
type Compressor interface {
	// CompressAll archives the contents of sourceDir into zipPath and
	// returns the number of entries written.
	CompressAll(sourceDir, zipPath string) (int, error)
}

// Stage names the pipeline step an error belongs to.
type Stage string

const (
	StageStaging   Stage = "staging"
	StageExtract   Stage = "extract"
	StageCompress  Stage = "compress"
	StageCleanup   Stage = "cleanup"
	StageCollision Stage = "collision"
)

// StageError wraps a failure with the pipeline stage and input path it
// occurred on.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage recorded on err, or an empty Stage if err
// carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Pipeline converts archives using pluggable codec implementations.
type Pipeline struct {
	extractor  Extractor
	compressor Compressor
	cfg        types.ConvertConfig
}

// NewPipeline returns a Pipeline using the given codecs and configuration.
func NewPipeline(e Extractor, c Compressor, cfg types.ConvertConfig) *Pipeline {
	return &Pipeline{extractor: e, compressor: c, cfg: cfg}
}

// ConvertArchive runs the full pipeline for one input and returns its
// record. Per-file status is written to w. Cleanup problems are recorded
// as warnings on an otherwise successful record.
func (p *Pipeline) ConvertArchive(in types.InputArchive, w io.Writer) types.ConversionRecord {
	start := time.Now()
	rec := types.ConversionRecord{Input: in.Path}

	outPath := in.OutputPath()
	if _, err := os.Stat(outPath); err == nil && !p.cfg.Overwrite {
		rec.Status = types.StatusSkipped
		rec.Output = outPath
		rec.Duration = time.Since(start)
		fmt.Fprintf(w, "%s %s (output already exists)\n", skippedTag(), in.Base)
		return rec
	}

	staging := in.StagingDir()
	if err := p.createStaging(staging); err != nil {
		return p.fail(rec, in, err, start, w)
	}

	entries, err := p.extractor.ExtractAll(in.Path, staging)
	if err != nil {
		rec = p.fail(rec, in, &StageError{Stage: StageExtract, Path: in.Path, Err: err}, start, w)
		p.removeStaging(staging, &rec, w)
		return rec
	}
	rec.Entries = entries

	if _, err := p.compressor.CompressAll(staging, outPath); err != nil {
		rec = p.fail(rec, in, &StageError{Stage: StageCompress, Path: outPath, Err: err}, start, w)
		p.removeStaging(staging, &rec, w)
		return rec
	}

	p.removeStaging(staging, &rec, w)

	rec.Status = types.StatusConverted
	rec.Output = outPath
	if info, err := os.Stat(in.Path); err == nil {
		rec.BytesIn = info.Size()
	}
	if info, err := os.Stat(outPath); err == nil {
		rec.BytesOut = info.Size()
	}
	rec.Duration = time.Since(start)
	fmt.Fprintf(w, "%s %s (%d entries)\n", convertedTag(), in.Base, entries)
	return rec
}

// createStaging creates a fresh staging directory. A pre-existing entry
// under the staging name means a crashed or concurrent run; without
// overwrite that is a collision.
func (p *Pipeline) createStaging(staging string) error {
	if info, err := os.Lstat(staging); err == nil {
		if !p.cfg.Overwrite {
			return &StageError{Stage: StageCollision, Path: staging,
				Err: fmt.Errorf("staging directory already exists")}
		}
		if !info.IsDir() {
			return &StageError{Stage: StageStaging, Path: staging,
				Err: fmt.Errorf("existing entry is not a directory")}
		}
		if err := os.RemoveAll(staging); err != nil {
			return &StageError{Stage: StageStaging, Path: staging, Err: err}
		}
	}
	if err := os.Mkdir(staging, 0o755); err != nil {
		return &StageError{Stage: StageStaging, Path: staging, Err: err}
	}
	return nil
}

// removeStaging removes the staging directory. Failures are warnings: the
// output archive may already be complete and valid.
func (p *Pipeline) removeStaging(staging string, rec *types.ConversionRecord, w io.Writer) {
	if p.cfg.KeepStaging {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("staging kept at %s", staging))
		return
	}
	if err := os.RemoveAll(staging); err != nil {
		msg := (&StageError{Stage: StageCleanup, Path: staging, Err: err}).Error()
		rec.Warnings = append(rec.Warnings, msg)
		fmt.Fprintf(w, "%s %s\n", warningTag(), msg)
	}
}

func (p *Pipeline) fail(rec types.ConversionRecord, in types.InputArchive, err error, start time.Time, w io.Writer) types.ConversionRecord {
	rec.Status = types.StatusFailed
	rec.Stage = string(StageOf(err))
	rec.Error = err.Error()
	rec.Duration = time.Since(start)
	fmt.Fprintf(w, "%s %s (%v)\n", failedTag(), in.Base, err)
	return rec
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	Records    []types.ConversionRecord
	StartedAt  time.Time
	FinishedAt time.Time
}

// Total returns the total number of archives processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any archives failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertBatch processes inputs through the pipeline, printing per-file
// status to w and returning a summary. With Jobs > 1 archives convert
// concurrently on a bounded pool; each input still owns its staging
// directory, and records are kept in input order.
func (p *Pipeline) ConvertBatch(inputs []types.InputArchive, w io.Writer) BatchResult {
	result := BatchResult{
		Records:   make([]types.ConversionRecord, len(inputs)),
		StartedAt: time.Now().UTC(),
	}

	jobs := p.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	if jobs == 1 || len(inputs) < 2 {
		for i, in := range inputs {
			result.Records[i] = p.ConvertArchive(in, w)
		}
	} else {
		// Each worker writes its status lines to a private buffer that is
		// flushed whole, so output lines never interleave.
		sem := make(chan struct{}, jobs)
		var wg sync.WaitGroup
		var mu sync.Mutex
		for i, in := range inputs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, in types.InputArchive) {
				defer wg.Done()
				defer func() { <-sem }()
				var buf bytes.Buffer
				result.Records[i] = p.ConvertArchive(in, &buf)
				mu.Lock()
				w.Write(buf.Bytes())
				mu.Unlock()
			}(i, in)
		}
		wg.Wait()
	}

	for _, rec := range result.Records {
		switch rec.Status {
		case types.StatusConverted:
			result.Converted++
		case types.StatusSkipped:
			result.Skipped++
		case types.StatusFailed:
			result.Failed++
		}
	}
	result.FinishedAt = time.Now().UTC()

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
