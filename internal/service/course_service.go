package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByName(ctx context.Context, name string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	ListPrerequisiteIDs(ctx context.Context, courseID string) ([]string, error)
	ListDepartmentIDs(ctx context.Context, courseID string) ([]string, error)
	HasDepartment(ctx context.Context, courseID, departmentID string) (bool, error)
	AssignDepartment(ctx context.Context, courseID, departmentID string) error
}

type departmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// CreateCourseRequest describes a catalog course payload.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	CreditHours int    `json:"credit_hours" validate:"required,min=1"`
	Term        int    `json:"term" validate:"required,min=1"`
}

// AssignDepartmentRequest links a course to a department.
type AssignDepartmentRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// CourseService orchestrates catalog course workflows.
type CourseService struct {
	repo        courseRepository
	departments departmentReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, departments departmentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, departments: departments, cache: cache, validator: validate, logger: logger}
}

// List returns catalog courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a course by id with its associations loaded.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.attachAssociations(ctx, course)
}

// GetByName returns a course by its unique name.
func (s *CourseService) GetByName(ctx context.Context, name string) (*models.Course, error) {
	course, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.attachAssociations(ctx, course)
}

func (s *CourseService) attachAssociations(ctx context.Context, course *models.Course) (*models.Course, error) {
	departments, err := s.repo.ListDepartmentIDs(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course departments")
	}
	prerequisites, err := s.repo.ListPrerequisiteIDs(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course prerequisites")
	}
	course.DepartmentIDs = departments
	course.PrerequisiteIDs = prerequisites
	return course, nil
}

// Create adds a catalog course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{Name: req.Name, Code: req.Code, CreditHours: req.CreditHours, Term: req.Term}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCatalogCache(ctx)
	return course, nil
}

// Update rewrites a catalog course.
func (s *CourseService) Update(ctx context.Context, id string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.Name = req.Name
	course.Code = req.Code
	course.CreditHours = req.CreditHours
	course.Term = req.Term
	if err := s.repo.Update(ctx, course); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCatalogCache(ctx)
	return course, nil
}

// Delete removes a catalog course. References held elsewhere are not
// cascade-cleaned; dangling completion entries are skipped at read time.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateCatalogCache(ctx)
	return nil
}

// AssignToDepartment links a course to a department on both sides of the
// association. Re-assigning an existing pair is a no-op.
func (s *CourseService) AssignToDepartment(ctx context.Context, req AssignDepartmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course_id and department_id are required")
	}
	if _, err := s.repo.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	assigned, err := s.repo.HasDepartment(ctx, req.CourseID, req.DepartmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if assigned {
		return nil
	}

	if err := s.repo.AssignDepartment(ctx, req.CourseID, req.DepartmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign course to department")
	}
	s.invalidateCatalogCache(ctx)
	return nil
}

func (s *CourseService) invalidateCatalogCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "catalog:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
