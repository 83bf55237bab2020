package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fci-zu/faculty-api/internal/models"
)

// ExportRepository persists transcript export jobs.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

const exportColumns = `id, student_id, format, status, file_path, download_token, error, attempts, created_at, completed_at, expires_at`

// Create inserts a queued export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	job.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO export_jobs (id, student_id, format, status, attempts, created_at)
        VALUES (:id, :student_id, :format, :status, :attempts, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns an export job by id.
func (r *ExportRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE id = $1`, exportColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportJobParams carries the fields the worker mutates.
type UpdateExportJobParams struct {
	Status        *models.ExportStatus
	FilePath      *string
	DownloadToken *string
	Error         *string
	Attempts      *int
	CompletedAt   *time.Time
	ExpiresAt     *time.Time
}

// Update applies the provided fields to an export job.
func (r *ExportRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.FilePath != nil {
		add("file_path", *params.FilePath)
	}
	if params.DownloadToken != nil {
		add("download_token", *params.DownloadToken)
	}
	if params.Error != nil {
		add("error", *params.Error)
	}
	if params.Attempts != nil {
		add("attempts", *params.Attempts)
	}
	if params.CompletedAt != nil {
		add("completed_at", *params.CompletedAt)
	}
	if params.ExpiresAt != nil {
		add("expires_at", *params.ExpiresAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE export_jobs SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListQueued returns jobs awaiting processing, oldest first.
func (r *ExportRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE status IN ($1, $2) ORDER BY created_at ASC LIMIT $3`, exportColumns)
	jobs := []models.ExportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusQueued, models.ExportStatusProcessing, limit); err != nil {
		return nil, fmt.Errorf("list queued export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns completed or failed jobs whose results expired before cutoff.
func (r *ExportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM export_jobs
        WHERE status IN ($1, $2) AND expires_at IS NOT NULL AND expires_at < $3
        ORDER BY expires_at ASC LIMIT $4`, exportColumns)
	jobs := []models.ExportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusCompleted, models.ExportStatusFailed, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished export jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes an export job record.
func (r *ExportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM export_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete export job: %w", err)
	}
	return nil
}
