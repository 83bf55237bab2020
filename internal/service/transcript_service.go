package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/repository"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
	"github.com/fci-zu/faculty-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

const transcriptJobKind = "transcript"

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// TranscriptServiceConfig governs queue recovery and cleanup.
type TranscriptServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// TranscriptDownload aggregates resolved download data.
type TranscriptDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// TranscriptService manages the transcript export job lifecycle.
type TranscriptService struct {
	repo     exportJobStore
	students activityStudentReader
	queue    jobDispatcher
	exporter exportGenerator
	logger   *zap.Logger
	cfg      TranscriptServiceConfig
}

// NewTranscriptService constructs a TranscriptService.
func NewTranscriptService(repo exportJobStore, students activityStudentReader, queue jobDispatcher, exporter exportGenerator, logger *zap.Logger, cfg TranscriptServiceConfig) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &TranscriptService{
		repo:     repo,
		students: students,
		queue:    queue,
		exporter: exporter,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob queues a transcript export for the student.
func (s *TranscriptService) CreateJob(ctx context.Context, studentID string, format models.ExportFormat) (*models.ExportJob, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	ok, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	job := &models.ExportJob{
		StudentID: studentID,
		Format:    format,
		Status:    models.ExportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: transcriptJobKind}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:      &failed,
			Error:       &msg,
			CompletedAt: &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetStatus exposes job metadata to clients.
func (s *TranscriptService) GetStatus(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ResolveDownload validates the token and opens the stored transcript file.
func (s *TranscriptService) ResolveDownload(ctx context.Context, token string) (*TranscriptDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.DownloadToken == nil || *job.DownloadToken != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "transcript not ready")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &TranscriptDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *TranscriptService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: transcriptJobKind}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *TranscriptService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *TranscriptService) cleanupExpired(ctx context.Context) {
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, time.Now().UTC(), 100)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return
		}
		if len(expired) == 0 {
			break
		}
		for _, job := range expired {
			if job.FilePath != nil {
				if err := s.exporter.Delete(*job.FilePath); err != nil {
					s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
				}
			}
			cleared := ""
			if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{FilePath: &cleared, DownloadToken: &cleared}); err != nil {
				s.logger.Warn("export cleanup update failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

// TranscriptWorker processes export jobs from the queue.
type TranscriptWorker struct {
	repo       exportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewTranscriptWorker constructs a worker.
func NewTranscriptWorker(repo exportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *TranscriptWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &TranscriptWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job.
func (w *TranscriptWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	attempts := record.Attempts + 1
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Attempts: &attempts,
	}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:      &failed,
				Error:       &msg,
				CompletedAt: &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		} else {
			queued := models.ExportStatusQueued
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status: &queued,
				Error:  &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}

	completed := models.ExportStatusCompleted
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:        &completed,
		FilePath:      &result.RelativePath,
		DownloadToken: &result.Token,
		CompletedAt:   &now,
		ExpiresAt:     &result.ExpiresAt,
	}); err != nil {
		w.logger.Warn("failed to finalize export job", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}
