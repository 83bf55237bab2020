package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	RegisteredCourseIDs(ctx context.Context, studentID string, courseIDs []string) ([]string, error)
	Create(ctx context.Context, registration *models.Registration) error
	Delete(ctx context.Context, id string) error
}

type studentExistsReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type completionExistsReader interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
}

// RegisterCoursesRequest describes a registration creation payload.
type RegisterCoursesRequest struct {
	StudentID string   `json:"student" validate:"required"`
	CourseIDs []string `json:"courses" validate:"required,min=1,dive,required"`
}

// RegistrationService orchestrates course registration workflows.
type RegistrationService struct {
	repo        registrationRepository
	students    studentExistsReader
	courses     courseReader
	completions completionExistsReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(repo registrationRepository, students studentExistsReader, courses courseReader, completions completionExistsReader, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, students: students, courses: courses, completions: completions, validator: validate, logger: logger}
}

// List returns registrations with pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	registrations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return registrations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one registration by id.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// Register creates one registration bundling all requested courses. The call
// is all-or-nothing: any already-registered or already-completed course
// rejects the whole request.
func (s *RegistrationService) Register(ctx context.Context, req RegisterCoursesRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student and a non-empty courses list are required")
	}

	seen := make(map[string]struct{}, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		if _, dup := seen[courseID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("course %s is listed more than once", courseID))
		}
		seen[courseID] = struct{}{}
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	for _, courseID := range req.CourseIDs {
		if _, err := s.courses.FindByID(ctx, courseID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}

	registered, err := s.repo.RegisteredCourseIDs(ctx, req.StudentID, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate registration")
	}
	if len(registered) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("courses already registered for this student: %s", strings.Join(registered, ", ")))
	}

	var completed []string
	for _, courseID := range req.CourseIDs {
		done, err := s.completions.Exists(ctx, req.StudentID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate completions")
		}
		if done {
			completed = append(completed, courseID)
		}
	}
	if len(completed) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot register courses that are already completed: %s", strings.Join(completed, ", ")))
	}

	registration := &models.Registration{StudentID: req.StudentID, CourseIDs: req.CourseIDs}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	return registration, nil
}

// Delete removes a registration outright.
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	return nil
}
