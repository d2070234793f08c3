package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
	"github.com/quantumexchange8/bankofgold/internal/utils"
)

const (
	DefaultMaxAttempts = 5

	heartbeatInterval = 30 * time.Second
)

// Worker polls the import_run table for runnable work. Claims go through
// FOR UPDATE SKIP LOCKED, so multiple workers (or multiple processes) can
// share one database without double-processing a run.
type Worker struct {
	db           *gorm.DB
	log          *logger.Logger
	runs         repos.ImportRunRepo
	job          *ImportJob
	maxAttempts  int
	retryDelay   time.Duration
	staleRunning time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, runs repos.ImportRunRepo, job *ImportJob) *Worker {
	log := baseLog.With("component", "ImportWorker")
	return &Worker{
		db:           db,
		log:          log,
		runs:         runs,
		job:          job,
		maxAttempts:  utils.GetEnvAsInt("IMPORT_MAX_ATTEMPTS", DefaultMaxAttempts, log),
		retryDelay:   time.Duration(utils.GetEnvAsInt("IMPORT_RETRY_DELAY_SECONDS", 30, log)) * time.Second,
		staleRunning: time.Duration(utils.GetEnvAsInt("IMPORT_STALE_MINUTES", 10, log)) * time.Minute,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("IMPORT_WORKER_CONCURRENCY", 2, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting import worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.runLoop(ctx, i+1)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			run, err := w.runs.ClaimNextRunnable(ctx, w.db, w.maxAttempts, w.retryDelay, w.staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if run == nil {
				continue
			}
			w.process(ctx, workerID, run)
		}
	}
}

func (w *Worker) process(ctx context.Context, workerID int, run *types.ImportRun) {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx, run.ID)

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Import handler panic",
				"worker_id", workerID,
				"import_id", run.ID,
				"panic", r,
			)
			_ = w.job.fail(ctx, run, "panic", fmt.Errorf("panic: %v", r))
		}
	}()

	// Execute reports failures on the run row itself; the returned error is
	// only logged here so the claim loop can move on to the next run.
	if err := w.job.Execute(ctx, run); err != nil {
		w.log.Warn("Import attempt did not complete",
			"worker_id", workerID,
			"import_id", run.ID,
			"attempt", run.Attempts,
			"error", err,
		)
	}
}

func (w *Worker) heartbeatLoop(ctx context.Context, runID uuid.UUID) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.runs.Heartbeat(ctx, nil, runID); err != nil {
				w.log.Warn("Heartbeat update failed", "import_id", runID, "error", err)
			}
		}
	}
}
