package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type recommendationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	CompletedCourseIDs(ctx context.Context, studentID string) ([]string, error)
	SaveRecommendations(ctx context.Context, studentID string, courseIDs []string) error
}

type catalogTermReader interface {
	ListByDepartmentAndTerm(ctx context.Context, departmentID string, term int) ([]models.Course, error)
}

// RecommendationService computes the set of courses a student is eligible
// to take next term, based on the prerequisite graph and the completed set.
type RecommendationService struct {
	students recommendationStudentReader
	catalog  catalogTermReader
	logger   *zap.Logger
}

// NewRecommendationService constructs RecommendationService.
func NewRecommendationService(students recommendationStudentReader, catalog catalogTermReader, logger *zap.Logger) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{students: students, catalog: catalog, logger: logger}
}

// eligible applies the prerequisite check: a course with no prerequisites is
// always eligible, otherwise every direct prerequisite must be in the
// completed set. The check is one level deep; chains are trusted to be
// encoded in the direct list, and cycles simply never unlock.
func eligible(prerequisiteIDs []string, completed map[string]struct{}) bool {
	for _, id := range prerequisiteIDs {
		if _, ok := completed[id]; !ok {
			return false
		}
	}
	return true
}

// Recommend returns the department's offering for the term filtered down to
// courses whose prerequisites the student has completed. The result is also
// persisted onto the student record as an advisory cache; that write is
// best-effort and never fails the call.
func (s *RecommendationService) Recommend(ctx context.Context, studentID string, term int) ([]models.CourseSummary, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if term < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "current term is required")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.DepartmentID == nil || *student.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "student has no assigned department")
	}

	completedIDs, err := s.students.CompletedCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed courses")
	}
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	offering, err := s.catalog.ListByDepartmentAndTerm(ctx, *student.DepartmentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term courses")
	}

	recommended := make([]models.CourseSummary, 0, len(offering))
	recommendedIDs := make([]string, 0, len(offering))
	for _, course := range offering {
		if !eligible(course.PrerequisiteIDs, completed) {
			continue
		}
		recommended = append(recommended, course.Summary())
		recommendedIDs = append(recommendedIDs, course.ID)
	}

	if err := s.students.SaveRecommendations(ctx, studentID, recommendedIDs); err != nil {
		s.logger.Warn("failed to persist recommendations",
			zap.String("student_id", studentID),
			zap.Int("term", term),
			zap.Error(err))
	}

	return recommended, nil
}
