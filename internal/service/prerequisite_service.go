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

type prerequisiteRepository interface {
	Exists(ctx context.Context, courseID, prerequisiteID string) (bool, error)
	Create(ctx context.Context, edge *models.PrerequisiteEdge) error
	ListAll(ctx context.Context) ([]models.PrerequisiteEdgeDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.PrerequisiteEdgeDetail, error)
	Delete(ctx context.Context, id string) error
}

type prerequisiteGraphReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListPrerequisiteIDs(ctx context.Context, courseID string) ([]string, error)
}

// AddPrerequisiteRequest describes a prerequisite edge payload.
type AddPrerequisiteRequest struct {
	CourseID       string `json:"course" validate:"required"`
	PrerequisiteID string `json:"prerequisite" validate:"required"`
}

// PrerequisiteService maintains the prerequisite graph. Edges are validated
// for acyclicity at write time: a cycle would make its courses permanently
// unrecommendable, so it is rejected rather than stored.
type PrerequisiteService struct {
	repo      prerequisiteRepository
	courses   prerequisiteGraphReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPrerequisiteService constructs PrerequisiteService.
func NewPrerequisiteService(repo prerequisiteRepository, courses prerequisiteGraphReader, validate *validator.Validate, logger *zap.Logger) *PrerequisiteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrerequisiteService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Add records a prerequisite edge after resolving both courses and checking
// the edge would not close a cycle.
func (s *PrerequisiteService) Add(ctx context.Context, req AddPrerequisiteRequest) (*models.PrerequisiteEdge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "both course and prerequisite are required")
	}
	if req.CourseID == req.PrerequisiteID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a course cannot be its own prerequisite")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.courses.FindByID(ctx, req.PrerequisiteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prerequisite course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite course")
	}

	exists, err := s.repo.Exists(ctx, req.CourseID, req.PrerequisiteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate edge")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this prerequisite already exists for the course")
	}

	cyclic, err := s.reaches(ctx, req.PrerequisiteID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to walk prerequisite graph")
	}
	if cyclic {
		return nil, appErrors.Clone(appErrors.ErrConflict, "prerequisite would create a cycle")
	}

	edge := &models.PrerequisiteEdge{CourseID: req.CourseID, PrerequisiteID: req.PrerequisiteID}
	if err := s.repo.Create(ctx, edge); err != nil {
		if errors.Is(err, repository.ErrDuplicateEdge) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "this prerequisite already exists for the course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prerequisite")
	}
	return edge, nil
}

// reaches walks the prerequisite graph from start looking for target.
func (s *PrerequisiteService) reaches(ctx context.Context, start, target string) (bool, error) {
	visited := map[string]struct{}{start: {}}
	frontier := []string{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		prerequisites, err := s.courses.ListPrerequisiteIDs(ctx, current)
		if err != nil {
			return false, err
		}
		for _, id := range prerequisites {
			if id == target {
				return true, nil
			}
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			frontier = append(frontier, id)
		}
	}
	return false, nil
}

// ListAll returns every prerequisite edge with course naming.
func (s *PrerequisiteService) ListAll(ctx context.Context) ([]models.PrerequisiteEdgeDetail, error) {
	edges, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prerequisites")
	}
	return edges, nil
}

// ListByCourse returns a course's prerequisite edges.
func (s *PrerequisiteService) ListByCourse(ctx context.Context, courseID string) ([]models.PrerequisiteEdgeDetail, error) {
	edges, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course prerequisites")
	}
	return edges, nil
}

// Delete removes a legacy edge record.
func (s *PrerequisiteService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prerequisite")
	}
	return nil
}
