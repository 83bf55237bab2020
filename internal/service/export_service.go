package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/pkg/export"
	"github.com/fci-zu/faculty-api/pkg/storage"
)

type transcriptSource interface {
	Transcript(ctx context.Context, studentID string) (*models.Student, []models.CompletionDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders transcript files and persists them to storage.
type ExportService struct {
	transcripts transcriptSource
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(transcripts transcriptSource, files fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		transcripts: transcripts,
		storage:     files,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
	}
}

// Generate renders the transcript for the job's student and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	student, records, err := s.transcripts.Transcript(ctx, job.StudentID)
	if err != nil {
		return nil, err
	}
	dataset := buildTranscriptDataset(student, records)
	title := fmt.Sprintf("Transcript: %s (%d)", student.FullName, student.StudentNumber)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("transcript_%s_%s.%s", student.ID, job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns the stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes stored files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func buildTranscriptDataset(student *models.Student, records []models.CompletionDetail) export.Dataset {
	headers := []string{"Code", "Course", "Credit Hours", "Grade", "Completed"}
	rows := make([]map[string]string, 0, len(records))
	var earned int
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Code":         rec.CourseCode,
			"Course":       rec.CourseName,
			"Credit Hours": strconv.Itoa(rec.CreditHours),
			"Grade":        string(rec.Grade),
			"Completed":    rec.CompletedDate.Format("2006-01-02"),
		})
		if rec.Grade.Passing() {
			earned += rec.CreditHours
		}
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Summary: []string{
			fmt.Sprintf("Credits earned: %d", earned),
			fmt.Sprintf("Total credits completed: %d", student.TotalCreditsCompleted),
			fmt.Sprintf("Remaining credits: %d", student.ReminderCredits),
		},
	}
}
