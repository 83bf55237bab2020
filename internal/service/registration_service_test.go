package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations map[string]models.Registration
	registered    map[string][]string
	created       *models.Registration
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	return nil, 0, nil
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) RegisteredCourseIDs(ctx context.Context, studentID string, courseIDs []string) ([]string, error) {
	taken := make(map[string]struct{})
	for _, id := range m.registered[studentID] {
		taken[id] = struct{}{}
	}
	var clash []string
	for _, id := range courseIDs {
		if _, ok := taken[id]; ok {
			clash = append(clash, id)
		}
	}
	return clash, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	registration.ID = "reg-1"
	m.created = registration
	return nil
}

func (m *mockRegistrationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.registrations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.registrations, id)
	return nil
}

type mockStudentExists struct {
	existing map[string]bool
}

func (m *mockStudentExists) Exists(ctx context.Context, id string) (bool, error) {
	return m.existing[id], nil
}

type mockCompletionExists struct {
	completed map[string]bool
}

func (m *mockCompletionExists) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.completed[completionKey(studentID, courseID)], nil
}

func newRegistrationFixture() (*mockRegistrationRepo, *mockCompletionExists, *RegistrationService) {
	repo := &mockRegistrationRepo{registered: map[string][]string{}}
	students := &mockStudentExists{existing: map[string]bool{"s1": true}}
	courses := &mockCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", CreditHours: 3},
		"c2": {ID: "c2", CreditHours: 4},
	}}
	completions := &mockCompletionExists{completed: map[string]bool{}}
	svc := NewRegistrationService(repo, students, courses, completions, validator.New(), zap.NewNop())
	return repo, completions, svc
}

func TestRegisterCreatesBundle(t *testing.T) {
	repo, _, svc := newRegistrationFixture()

	registration, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1", CourseIDs: []string{"c1", "c2"}})
	require.NoError(t, err)
	assert.Equal(t, "reg-1", registration.ID)
	assert.Equal(t, []string{"c1", "c2"}, repo.created.CourseIDs)
}

func TestRegisterRepeatedCourseRejected(t *testing.T) {
	repo, _, svc := newRegistrationFixture()

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1", CourseIDs: []string{"c1", "c1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "c1")
	assert.Nil(t, repo.created)
}

func TestRegisterUnknownStudent(t *testing.T) {
	_, _, svc := newRegistrationFixture()

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "ghost", CourseIDs: []string{"c1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegisterUnknownCourseRejectsWholeRequest(t *testing.T) {
	repo, _, svc := newRegistrationFixture()

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1", CourseIDs: []string{"c1", "ghost"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "ghost")
	assert.Nil(t, repo.created)
}

func TestRegisterAlreadyRegisteredConflict(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registered["s1"] = []string{"c2"}

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1", CourseIDs: []string{"c1", "c2"}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "c2")
	assert.Nil(t, repo.created)
}

func TestRegisterCompletedCourseConflict(t *testing.T) {
	repo, completions, svc := newRegistrationFixture()
	completions.completed[completionKey("s1", "c1")] = true

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1", CourseIDs: []string{"c1"}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already completed")
	assert.Nil(t, repo.created)
}

func TestRegisterEmptyCoursesRejected(t *testing.T) {
	_, _, svc := newRegistrationFixture()

	_, err := svc.Register(context.Background(), RegisterCoursesRequest{StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationDelete(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registrations = map[string]models.Registration{"reg-1": {ID: "reg-1", StudentID: "s1"}}

	require.NoError(t, svc.Delete(context.Background(), "reg-1"))

	err := svc.Delete(context.Background(), "reg-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
