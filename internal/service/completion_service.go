package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/repository"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type completionRepository interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, completion *models.Completion, creditHours int) error
	List(ctx context.Context, filter models.CompletionFilter) ([]models.CompletionDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error)
}

type completionStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CompleteCourseRequest describes a completion payload.
type CompleteCourseRequest struct {
	StudentID string       `json:"student" validate:"required"`
	CourseID  string       `json:"course" validate:"required"`
	Grade     models.Grade `json:"grade" validate:"required"`
}

// CompletionService orchestrates course completion: the record itself, the
// credit ledger update, and the registration cleanup, applied as one unit.
type CompletionService struct {
	repo      completionRepository
	students  completionStudentReader
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompletionService constructs CompletionService.
func NewCompletionService(repo completionRepository, students completionStudentReader, courses courseReader, validate *validator.Validate, logger *zap.Logger) *CompletionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{repo: repo, students: students, courses: courses, validator: validate, logger: logger}
}

// List returns completion records with pagination metadata.
func (s *CompletionService) List(ctx context.Context, filter models.CompletionFilter) ([]models.CompletionDetail, *models.Pagination, error) {
	completions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return completions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Complete records that a student finished a course with a grade. The course
// must sit in an active registration, the (student, course) pair must not
// already be completed, and passing grades move the credit counters by the
// course's credit hours.
func (s *CompletionService) Complete(ctx context.Context, req CompleteCourseRequest) (*models.Completion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student, course and grade are required")
	}
	if !req.Grade.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be one of A, B, C, D, F")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	done, err := s.repo.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate completion")
	}
	if done {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already completed")
	}

	completion := &models.Completion{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Grade:     req.Grade,
	}
	if err := s.repo.Create(ctx, completion, course.CreditHours); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCompletion):
			// Concurrent completion lost the race; the unique index is the
			// authoritative guard.
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already completed")
		case errors.Is(err, repository.ErrCourseNotRegistered):
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not registered for this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
	}

	s.logger.Info("course completed",
		zap.String("student_id", completion.StudentID),
		zap.String("course_id", completion.CourseID),
		zap.String("grade", string(completion.Grade)))
	return completion, nil
}

// Transcript returns a student's completion records joined with course data.
func (s *CompletionService) Transcript(ctx context.Context, studentID string) (*models.Student, []models.CompletionDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	completions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completions")
	}
	return student, completions, nil
}
