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
	"github.com/fci-zu/faculty-api/internal/repository"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockCompletionRepo struct {
	existing   map[string]bool
	createErr  error
	created    *models.Completion
	creditArgs int
	transcript []models.CompletionDetail
}

func completionKey(studentID, courseID string) string { return studentID + "/" + courseID }

func (m *mockCompletionRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.existing[completionKey(studentID, courseID)], nil
}

func (m *mockCompletionRepo) Create(ctx context.Context, completion *models.Completion, creditHours int) error {
	if m.createErr != nil {
		return m.createErr
	}
	completion.ID = "comp-1"
	m.created = completion
	m.creditArgs = creditHours
	return nil
}

func (m *mockCompletionRepo) List(ctx context.Context, filter models.CompletionFilter) ([]models.CompletionDetail, int, error) {
	return m.transcript, len(m.transcript), nil
}

func (m *mockCompletionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error) {
	return m.transcript, nil
}

type mockStudentsByID struct {
	students map[string]*models.Student
}

func (m *mockStudentsByID) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourses struct {
	courses map[string]*models.Course
}

func (m *mockCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newCompletionFixture() (*mockCompletionRepo, *CompletionService) {
	repo := &mockCompletionRepo{existing: map[string]bool{}}
	students := &mockStudentsByID{students: map[string]*models.Student{"s1": {ID: "s1"}}}
	courses := &mockCourses{courses: map[string]*models.Course{"c1": {ID: "c1", CreditHours: 4}}}
	svc := NewCompletionService(repo, students, courses, validator.New(), zap.NewNop())
	return repo, svc
}

func TestCompleteRecordsCompletion(t *testing.T) {
	repo, svc := newCompletionFixture()

	completion, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "c1", Grade: models.GradeB})
	require.NoError(t, err)
	assert.Equal(t, "s1", completion.StudentID)
	assert.Equal(t, models.GradeB, completion.Grade)
	assert.Equal(t, 4, repo.creditArgs)
}

func TestCompleteDuplicateRejected(t *testing.T) {
	repo, svc := newCompletionFixture()
	repo.existing[completionKey("s1", "c1")] = true

	_, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "c1", Grade: models.GradeA})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCompleteDuplicateRaceSurfacesConflict(t *testing.T) {
	repo, svc := newCompletionFixture()
	repo.createErr = repository.ErrDuplicateCompletion

	_, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "c1", Grade: models.GradeA})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCompleteUnregisteredCourseRejected(t *testing.T) {
	repo, svc := newCompletionFixture()
	repo.createErr = repository.ErrCourseNotRegistered

	_, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "c1", Grade: models.GradeC})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCompleteUnknownGradeRejected(t *testing.T) {
	_, svc := newCompletionFixture()

	_, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "c1", Grade: "E"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCompleteMissingEntities(t *testing.T) {
	_, svc := newCompletionFixture()

	_, err := svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "ghost", CourseID: "c1", Grade: models.GradeA})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Complete(context.Background(), CompleteCourseRequest{StudentID: "s1", CourseID: "ghost", Grade: models.GradeA})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTranscript(t *testing.T) {
	repo, svc := newCompletionFixture()
	repo.transcript = []models.CompletionDetail{
		{Completion: models.Completion{ID: "comp-1", StudentID: "s1", CourseID: "c1", Grade: models.GradeA}, CourseName: "Data Structures", CourseCode: "CS201", CreditHours: 4},
	}

	student, records, err := svc.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "CS201", records[0].CourseCode)

	_, _, err = svc.Transcript(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
