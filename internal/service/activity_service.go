package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type activityStudentReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CreateActivityRequest describes an extracurricular record payload.
type CreateActivityRequest struct {
	StudentID   string `json:"student" validate:"required"`
	Type        string `json:"type" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"required,min=3"`
}

// ActivityService manages extracurricular records.
type ActivityService struct {
	repo      activityRepository
	students  activityStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs ActivityService.
func NewActivityService(repo activityRepository, students activityStudentReader, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns activities with pagination metadata.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return activities, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an activity by id.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create records an activity for an existing student.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	ok, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	activity := &models.Activity{
		StudentID:   req.StudentID,
		Type:        req.Type,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// Delete removes an activity record.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}
