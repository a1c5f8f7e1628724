package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/sw33tLie/exifscope/internal/utils"
	"github.com/sw33tLie/exifscope/pkg/metadata"
	"github.com/sw33tLie/exifscope/pkg/outdir"
	"github.com/sw33tLie/exifscope/pkg/pick"
	"github.com/sw33tLie/exifscope/pkg/storage"
)

// runner executes requests and records each one in the run history.
type runner struct {
	source metadata.Source
	copy   pick.CopyFunc
	now    func() time.Time
	dryRun bool

	// db is nil when history is disabled.
	db     *storage.DB
	dbPath string
}

// newSource builds the metadata source selected by the extractor setting.
func newSource(extractor, exiftoolPath string) (metadata.Source, error) {
	switch strings.ToLower(extractor) {
	case "", "exiftool":
		return metadata.NewExifTool(exiftoolPath, utils.Log.WithField("source", "exiftool")), nil
	case "native":
		return metadata.NewNative(utils.Log.WithField("source", "native")), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q (available: exiftool, native)", extractor)
	}
}

// openHistory opens the history database configured under db.path.
func openHistory() (*storage.DB, string, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open run history %s: %w", dbPath, err)
	}
	return db, dbPath, nil
}

// withDefaults fills the output root the way the CLI documents it.
func withDefaults(req pick.Request) pick.Request {
	req.BaseDir = utils.ExpandPath(req.BaseDir)
	req.OutputRoot = utils.ExpandPath(req.OutputRoot)
	if strings.TrimSpace(req.OutputRoot) == "" && req.BaseDir != "" {
		if root := viper.GetString("output_root"); root != "" {
			req.OutputRoot = utils.ExpandPath(root)
		} else {
			req.OutputRoot = utils.DefaultOutputRoot(req.BaseDir)
		}
	}
	return req
}

func (r *runner) Run(ctx context.Context, req pick.Request) (*pick.Report, error) {
	id := uuid.NewString()
	started := r.clock()

	p := pick.New(r.source, utils.Log.WithField("run", shortID(id)))
	p.Now = func() time.Time { return started }
	p.DryRun = r.dryRun
	if r.copy != nil {
		p.Copy = r.copy
	}

	req = withDefaults(req)
	report, runErr := p.Run(ctx, req)

	if r.db != nil && !r.dryRun {
		run := newRunRecord(id, req, started, r.clock(), report, runErr)
		if err := r.record(ctx, run); err != nil {
			utils.Log.Warnf("Could not record run %s in history: %v", id, err)
		}
	}
	return report, runErr
}

func (r *runner) record(ctx context.Context, run storage.Run) error {
	lock, err := utils.NewDBLock(r.dbPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	// The pass may have been cancelled; the record is still wanted.
	return r.db.InsertRun(context.WithoutCancel(ctx), run)
}

func (r *runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// newRunRecord turns the outcome of one pass into a history row.
func newRunRecord(id string, req pick.Request, started, finished time.Time, report *pick.Report, runErr error) storage.Run {
	run := storage.Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: finished,
		Prompt:     req.Prompt,
		BaseDir:    req.BaseDir,
		FilterJSON: "{}",
		Status:     storage.StatusOK,
	}
	if data, err := json.Marshal(req.Spec); err == nil {
		run.FilterJSON = string(data)
	}

	if runErr != nil {
		run.Status = storage.StatusFailed
		run.Error = runErr.Error()
		if root, err := req.Validate(); err == nil {
			run.OutputDir = filepath.Join(root, outdir.Name(started, req.Prompt))
		}
		return run
	}

	run.OutputDir = report.OutputDir
	run.Scanned = report.Scanned
	run.Matched = report.Matched
	run.SkippedMissingMeta = report.SkippedMissingMeta
	run.Files = report.Files
	return run
}
