package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fci-zu/faculty-api/internal/models"
)

func newExportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ExportJob{StudentID: "stu-1", Format: models.ExportFormatCSV}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.ExportStatusQueued, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryUpdateBuildsPartialSet(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	status := models.ExportStatusProcessing
	attempts := 2
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, attempts = $2 WHERE id = $3")).
		WithArgs(status, attempts, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{Status: &status, Attempts: &attempts})
	require.NoError(t, err)

	// No fields set means no statement is issued.
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateExportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryUpdateMissingJob(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	status := models.ExportStatusFailed
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1 WHERE id = $2")).
		WithArgs(status, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "ghost", UpdateExportJobParams{Status: &status})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "format", "status", "file_path", "download_token", "error", "attempts", "created_at", "completed_at", "expires_at"}).
		AddRow("job-1", "stu-1", models.ExportFormatCSV, models.ExportStatusQueued, nil, nil, nil, 0, now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ($1, $2) ORDER BY created_at ASC")).
		WithArgs(models.ExportStatusQueued, models.ExportStatusProcessing, 50).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "job-1", jobs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
