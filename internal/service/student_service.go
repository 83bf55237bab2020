package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest describes a student admission payload.
type CreateStudentRequest struct {
	StudentNumber int64   `json:"student_number" validate:"required"`
	FullName      string  `json:"full_name" validate:"required,min=3,max=50"`
	Email         string  `json:"email" validate:"required,email"`
	Level         int     `json:"level" validate:"required,min=1,max=4"`
	Gender        string  `json:"gender" validate:"required,oneof=Male Female"`
	Phone         string  `json:"phone" validate:"required"`
	DepartmentID  *string `json:"department_id"`
}

// UpdateStudentRequest describes the mutable student profile fields.
type UpdateStudentRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=3,max=50"`
	Email        string  `json:"email" validate:"required,email"`
	Level        int     `json:"level" validate:"required,min=1,max=4"`
	Gender       string  `json:"gender" validate:"required,oneof=Male Female"`
	Phone        string  `json:"phone" validate:"required"`
	DepartmentID *string `json:"department_id"`
	Active       bool    `json:"active"`
}

// StudentService orchestrates student record workflows. Credit counters are
// owned by the completion flow and never mutated here.
type StudentService struct {
	repo        studentRepository
	departments departmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, departments departmentReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) resolveDepartment(ctx context.Context, departmentID *string) error {
	if departmentID == nil || *departmentID == "" {
		return nil
	}
	if _, err := s.departments.FindByID(ctx, *departmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return nil
}

// Create admits a student with a full remaining-credit counter.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.resolveDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	student := &models.Student{
		StudentNumber: req.StudentNumber,
		FullName:      req.FullName,
		Email:         req.Email,
		Level:         req.Level,
		Gender:        req.Gender,
		Phone:         req.Phone,
		DepartmentID:  req.DepartmentID,
		Active:        true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update rewrites a student's profile.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.resolveDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	student.FullName = req.FullName
	student.Email = req.Email
	student.Level = req.Level
	student.Gender = req.Gender
	student.Phone = req.Phone
	student.DepartmentID = req.DepartmentID
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
