package jobs

import (
	"context"
	"os"
	"time"

	"github.com/quantumexchange8/bankofgold/internal/dedupe"
	"github.com/quantumexchange8/bankofgold/internal/ingest"
	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/services"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// ImportJob executes one claimed import run end to end: opens the spooled
// file, feeds it through the dedupe engine, and records the outcome on the
// import_run row. The worker owns claiming and retry scheduling; this type
// owns everything that happens between claim and terminal status.
type ImportJob struct {
	log         *logger.Logger
	engine      *dedupe.Engine
	runs        repos.ImportRunRepo
	notify      services.ImportNotifier
	maxAttempts int

	open func(path string, log *logger.Logger) (dedupe.RowSource, error)
}

func NewImportJob(baseLog *logger.Logger, engine *dedupe.Engine, runs repos.ImportRunRepo, notify services.ImportNotifier, maxAttempts int) *ImportJob {
	return &ImportJob{
		log:         baseLog.With("component", "ImportJob"),
		engine:      engine,
		runs:        runs,
		notify:      notify,
		maxAttempts: maxAttempts,
		open:        ingest.Open,
	}
}

func (j *ImportJob) Execute(ctx context.Context, run *types.ImportRun) error {
	log := j.log.With("import_id", run.ID, "attempt", run.Attempts)
	log.Info("Import started", "file", run.FileName, "format", run.FileFormat)

	src, err := j.open(run.FilePath, j.log)
	if err != nil {
		return j.fail(ctx, run, "open", err)
	}
	defer src.Close()

	progress := func(stage string, pct int, msg string) {
		fields := map[string]interface{}{
			"stage":    stage,
			"progress": pct,
		}
		if uerr := j.runs.UpdateFields(ctx, nil, run.ID, fields); uerr != nil {
			log.Warn("Progress update failed", "stage", stage, "error", uerr)
		}
		j.notify.ImportProgress(run.UserID, run, stage, pct, msg)
	}

	res, err := j.engine.Run(ctx, run.ID, run.UserID, src, progress)
	if err != nil {
		return j.fail(ctx, run, "run", err)
	}

	fields := map[string]interface{}{
		"status":          types.ImportStatusCompleted,
		"stage":           "done",
		"progress":        100,
		"total_rows":      res.TotalRows,
		"duplicate_count": res.DuplicateCount,
		"error":           "",
	}
	if err := j.runs.UpdateFields(ctx, nil, run.ID, fields); err != nil {
		return j.fail(ctx, run, "finalize", err)
	}

	run.Status = types.ImportStatusCompleted
	run.Stage = "done"
	run.Progress = 100
	run.TotalRows = res.TotalRows
	run.DuplicateCount = res.DuplicateCount

	j.removeArtifact(run, log)
	j.notify.ImportCompleted(run.UserID, run)
	log.Info("Import completed", "total_rows", res.TotalRows, "duplicate_count", res.DuplicateCount)
	return nil
}

// fail rolls the partially imported data back and marks the run failed.
// The run stays retryable until attempts reach the cap; only then is the
// spooled artifact removed, since a retry needs the file to re-read.
func (j *ImportJob) fail(ctx context.Context, run *types.ImportRun, stage string, cause error) error {
	log := j.log.With("import_id", run.ID, "attempt", run.Attempts)
	log.Error("Import failed", "stage", stage, "error", cause)

	if cerr := j.engine.Cleanup(ctx, run.ID); cerr != nil {
		log.Error("Rollback after failure did not complete", "error", cerr)
	}

	fields := map[string]interface{}{
		"status":        types.ImportStatusFailed,
		"stage":         stage,
		"error":         cause.Error(),
		"last_error_at": time.Now().UTC(),
	}
	if uerr := j.runs.UpdateFields(ctx, nil, run.ID, fields); uerr != nil {
		log.Error("Failure-status update failed", "error", uerr)
	}

	if run.Attempts >= j.maxAttempts {
		j.removeArtifact(run, log)
	}
	j.notify.ImportFailed(run.UserID, run, stage, cause.Error())
	return cause
}

func (j *ImportJob) removeArtifact(run *types.ImportRun, log *logger.Logger) {
	if run.FilePath == "" {
		return
	}
	if err := os.Remove(run.FilePath); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not remove spooled import file", "path", run.FilePath, "error", err)
	}
}
