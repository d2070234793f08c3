package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/ingest"
	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type ImportService interface {
	// CreateFromUpload spools the uploaded file and enqueues an ImportRun for
	// the worker to claim. The run starts in status queued.
	CreateFromUpload(ctx context.Context, userID uuid.UUID, originalName string, file io.Reader) (*types.ImportRun, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*types.ImportRun, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.ImportRun, int64, error)
}

type importService struct {
	db       *gorm.DB
	log      *logger.Logger
	runs     repos.ImportRunRepo
	notify   ImportNotifier
	spoolDir string
}

func NewImportService(db *gorm.DB, baseLog *logger.Logger, runs repos.ImportRunRepo, notify ImportNotifier, spoolDir string) ImportService {
	return &importService{
		db:       db,
		log:      baseLog.With("service", "ImportService"),
		runs:     runs,
		notify:   notify,
		spoolDir: spoolDir,
	}
}

func (s *importService) CreateFromUpload(ctx context.Context, userID uuid.UUID, originalName string, file io.Reader) (*types.ImportRun, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	name := filepath.Base(strings.TrimSpace(originalName))
	if name == "" || name == "." {
		return nil, fmt.Errorf("missing file name")
	}

	if err := os.MkdirAll(s.spoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	runID := uuid.New()
	spoolPath := filepath.Join(s.spoolDir, runID.String()+filepath.Ext(name))
	dst, err := os.Create(spoolPath)
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		_ = os.Remove(spoolPath)
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(spoolPath)
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	run := &types.ImportRun{
		ID:         runID,
		UserID:     userID,
		FileName:   name,
		FilePath:   spoolPath,
		FileFormat: ingest.DetectFormat(name),
		Status:     types.ImportStatusQueued,
		Stage:      "queued",
	}
	created, err := s.runs.Create(ctx, nil, run)
	if err != nil {
		_ = os.Remove(spoolPath)
		return nil, fmt.Errorf("create import run: %w", err)
	}

	s.log.Info("Import queued", "import_id", created.ID, "user_id", userID, "file", name)
	if s.notify != nil {
		s.notify.ImportQueued(userID, created)
	}
	return created, nil
}

func (s *importService) GetForUser(ctx context.Context, id, userID uuid.UUID) (*types.ImportRun, error) {
	return s.runs.GetByIDForUser(ctx, nil, id, userID)
}

func (s *importService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.ImportRun, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.runs.ListByUser(ctx, nil, userID, limit, offset)
}
