package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockRecommendationStudents struct {
	students  map[string]*models.Student
	completed map[string][]string
	saved     map[string][]string
	saveErr   error
}

func (m *mockRecommendationStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRecommendationStudents) CompletedCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	return m.completed[studentID], nil
}

func (m *mockRecommendationStudents) SaveRecommendations(ctx context.Context, studentID string, courseIDs []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]string)
	}
	m.saved[studentID] = courseIDs
	return nil
}

type mockCatalog struct {
	offering map[int][]models.Course
}

func (m *mockCatalog) ListByDepartmentAndTerm(ctx context.Context, departmentID string, term int) ([]models.Course, error) {
	return m.offering[term], nil
}

func strPtr(s string) *string { return &s }

func courseWithPrereqs(id string, prereqs ...string) models.Course {
	return models.Course{ID: id, Name: "Course " + id, Code: "C-" + id, CreditHours: 3, Term: 2, PrerequisiteIDs: prereqs}
}

func TestRecommendEligibility(t *testing.T) {
	students := &mockRecommendationStudents{
		students:  map[string]*models.Student{"s1": {ID: "s1", DepartmentID: strPtr("d1")}},
		completed: map[string][]string{"s1": {"intro", "algebra"}},
	}
	catalog := &mockCatalog{offering: map[int][]models.Course{2: {
		courseWithPrereqs("open"),                      // no prerequisites
		courseWithPrereqs("ds", "intro"),               // satisfied
		courseWithPrereqs("calc2", "algebra", "intro"), // satisfied, multiple
		courseWithPrereqs("ai", "ds"),                  // not completed
		courseWithPrereqs("db", "intro", "networks"),   // partially satisfied
	}}}
	svc := NewRecommendationService(students, catalog, zap.NewNop())

	result, err := svc.Recommend(context.Background(), "s1", 2)
	require.NoError(t, err)

	ids := make([]string, 0, len(result))
	for _, c := range result {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"open", "ds", "calc2"}, ids)
	assert.Equal(t, []string{"open", "ds", "calc2"}, students.saved["s1"])
}

func TestRecommendNoCompletionsOnlyPrereqFreeCourses(t *testing.T) {
	students := &mockRecommendationStudents{
		students: map[string]*models.Student{"s1": {ID: "s1", DepartmentID: strPtr("d1")}},
	}
	catalog := &mockCatalog{offering: map[int][]models.Course{1: {
		courseWithPrereqs("intro"),
		courseWithPrereqs("writing"),
		courseWithPrereqs("ds", "intro"),
	}}}
	svc := NewRecommendationService(students, catalog, zap.NewNop())

	result, err := svc.Recommend(context.Background(), "s1", 1)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "intro", result[0].ID)
	assert.Equal(t, "writing", result[1].ID)
}

func TestRecommendEmptyOffering(t *testing.T) {
	students := &mockRecommendationStudents{
		students: map[string]*models.Student{"s1": {ID: "s1", DepartmentID: strPtr("d1")}},
	}
	svc := NewRecommendationService(students, &mockCatalog{}, zap.NewNop())

	result, err := svc.Recommend(context.Background(), "s1", 3)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRecommendStudentWithoutDepartment(t *testing.T) {
	students := &mockRecommendationStudents{
		students: map[string]*models.Student{"s1": {ID: "s1"}},
	}
	svc := NewRecommendationService(students, &mockCatalog{}, zap.NewNop())

	_, err := svc.Recommend(context.Background(), "s1", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestRecommendStudentNotFound(t *testing.T) {
	svc := NewRecommendationService(&mockRecommendationStudents{}, &mockCatalog{}, zap.NewNop())

	_, err := svc.Recommend(context.Background(), "ghost", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecommendRejectsBadInput(t *testing.T) {
	svc := NewRecommendationService(&mockRecommendationStudents{}, &mockCatalog{}, zap.NewNop())

	_, err := svc.Recommend(context.Background(), "", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Recommend(context.Background(), "s1", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecommendSaveFailureIsBestEffort(t *testing.T) {
	students := &mockRecommendationStudents{
		students: map[string]*models.Student{"s1": {ID: "s1", DepartmentID: strPtr("d1")}},
		saveErr:  errors.New("write failed"),
	}
	catalog := &mockCatalog{offering: map[int][]models.Course{1: {courseWithPrereqs("intro")}}}
	svc := NewRecommendationService(students, catalog, zap.NewNop())

	result, err := svc.Recommend(context.Background(), "s1", 1)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestEligible(t *testing.T) {
	completed := map[string]struct{}{"a": {}, "b": {}}

	assert.True(t, eligible(nil, completed))
	assert.True(t, eligible(nil, map[string]struct{}{}))
	assert.True(t, eligible([]string{"a"}, completed))
	assert.True(t, eligible([]string{"a", "b"}, completed))
	assert.False(t, eligible([]string{"a", "c"}, completed))
	assert.False(t, eligible([]string{"c"}, map[string]struct{}{}))
}
