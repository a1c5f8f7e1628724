// Package pick runs a filter-and-copy pass: list metadata records, match
// each against a filter, copy the matches into a dated output folder and
// report the counts.
package pick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/exifscope/pkg/filter"
	"github.com/sw33tLie/exifscope/pkg/metadata"
	"github.com/sw33tLie/exifscope/pkg/outdir"
)

const ModeCopy = "copy"

// Request is one filter-and-copy invocation. The filter fields are inlined
// in its JSON form.
type Request struct {
	BaseDir    string `json:"base_dir"`
	OutputRoot string `json:"output_root,omitempty"`
	Prompt     string `json:"prompt"`
	Mode       string `json:"mode,omitempty"`
	filter.Spec
}

// Picker wires a metadata source to the copy step.
type Picker struct {
	Source metadata.Source
	Copy   CopyFunc
	Log    logrus.FieldLogger
	Now    func() time.Time

	// DryRun evaluates and reports without creating or copying anything.
	DryRun bool
}

func New(src metadata.Source, log logrus.FieldLogger) *Picker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Picker{
		Source: src,
		Copy:   CopyFile,
		Log:    log,
		Now:    time.Now,
	}
}

// Validate checks req and returns the effective output root.
func (req *Request) Validate() (string, error) {
	if strings.TrimSpace(req.BaseDir) == "" {
		return "", &ValidationError{Field: "base_dir", Err: errors.New("required")}
	}
	info, err := os.Stat(req.BaseDir)
	if err != nil {
		return "", &ValidationError{Field: "base_dir", Err: err}
	}
	if !info.IsDir() {
		return "", &ValidationError{Field: "base_dir", Err: fmt.Errorf("%s is not a directory", req.BaseDir)}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &ValidationError{Field: "prompt", Err: errors.New("required")}
	}
	if req.Mode != "" && req.Mode != ModeCopy {
		return "", &ValidationError{Field: "mode", Err: fmt.Errorf("unsupported mode %q, only %q is available", req.Mode, ModeCopy)}
	}
	if err := req.Spec.Validate(); err != nil {
		return "", &ValidationError{Err: err}
	}

	root := req.OutputRoot
	if strings.TrimSpace(root) == "" {
		root = req.BaseDir
	}
	return root, nil
}

// Run executes one pass. Records are handled strictly in source order. Any
// copy failure aborts the pass and no report is returned.
func (p *Picker) Run(ctx context.Context, req Request) (*Report, error) {
	outputRoot, err := req.Validate()
	if err != nil {
		return nil, err
	}

	outputDir := filepath.Join(outputRoot, outdir.Name(p.now(), req.Prompt))
	log := p.logger().WithFields(logrus.Fields{"base_dir": req.BaseDir, "output_dir": outputDir})

	records, err := p.Source.ListRecords(ctx, req.BaseDir)
	if err != nil {
		var extErr *metadata.ExtractionError
		if !errors.As(err, &extErr) {
			err = &metadata.ExtractionError{Source: fmt.Sprintf("%T", p.Source), BaseDir: req.BaseDir, Err: err}
		}
		return nil, err
	}
	log.Debugf("Evaluating %d records", len(records))

	if !p.DryRun {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, &FilesystemError{Op: "mkdir", Path: outputDir, Err: err}
		}
	}

	var t tally
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Earlier output of the same day and prompt can sit inside the base dir.
		if within(outputDir, rec.SourcePath) {
			log.Debugf("Ignoring %s: already in the output folder", rec.SourcePath)
			continue
		}
		t.scanned++

		outcome := filter.Match(rec, req.Spec)
		if outcome.Skipped() {
			t.skipped++
			log.Debugf("Skipping %s: %s", rec.SourcePath, outcome.Reason)
			continue
		}
		if !outcome.Included() {
			log.Debugf("Excluded %s: %s", rec.SourcePath, outcome.Reason)
			continue
		}

		if _, err := os.Stat(rec.SourcePath); err != nil {
			log.Warnf("Matched file %s is not accessible, skipping: %v", rec.SourcePath, err)
			continue
		}

		dst := filepath.Join(outputDir, filepath.Base(rec.SourcePath))
		if !p.DryRun {
			n, err := p.copier()(rec.SourcePath, dst)
			if err != nil {
				return nil, &FilesystemError{Op: "copy", Path: rec.SourcePath, Err: err}
			}
			log.Debugf("Copied %s -> %s (%d bytes)", rec.SourcePath, dst, n)
		}
		t.files = append(t.files, dst)
	}

	report := t.report(outputDir)
	log.Infof("Scanned %d, matched %d, skipped %d without timestamp", report.Scanned, report.Matched, report.SkippedMissingMeta)
	return report, nil
}

// within reports whether path lies inside dir.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (p *Picker) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Picker) copier() CopyFunc {
	if p.Copy == nil {
		return CopyFile
	}
	return p.Copy
}

func (p *Picker) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}
