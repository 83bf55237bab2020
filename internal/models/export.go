package models

import "time"

// ExportFormat enumerates supported transcript export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ExportStatus enumerates the lifecycle states of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob tracks a transcript export through the worker queue.
type ExportJob struct {
	ID            string       `db:"id" json:"id"`
	StudentID     string       `db:"student_id" json:"student_id"`
	Format        ExportFormat `db:"format" json:"format"`
	Status        ExportStatus `db:"status" json:"status"`
	FilePath      *string      `db:"file_path" json:"-"`
	DownloadToken *string      `db:"download_token" json:"download_token,omitempty"`
	Error         *string      `db:"error" json:"error,omitempty"`
	Attempts      int          `db:"attempts" json:"attempts"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	ExpiresAt     *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
}
