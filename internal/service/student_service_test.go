package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]*models.Student
	created  *models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = "stu-1"
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

func newStudentFixture() (*mockStudentRepo, *StudentService) {
	repo := &mockStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", StudentNumber: 20250001, FullName: "Sara Ahmed", Email: "sara@faculty.edu", Level: 2, Gender: "Female", Active: true},
	}}
	departments := &mockDepartmentReader{departments: map[string]*models.Department{"d1": {ID: "d1", Name: "Computer Science"}}}
	return repo, NewStudentService(repo, departments, nil, nil)
}

func TestStudentCreate(t *testing.T) {
	repo, svc := newStudentFixture()

	dept := "d1"
	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: 20250002,
		FullName:      "Omar Khaled",
		Email:         "omar@faculty.edu",
		Level:         1,
		Gender:        "Male",
		Phone:         "0100000000",
		DepartmentID:  &dept,
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)
	assert.True(t, student.Active)
	assert.Zero(t, student.TotalCreditsCompleted)
	require.NotNil(t, repo.created)
}

func TestStudentCreateUnknownDepartment(t *testing.T) {
	_, svc := newStudentFixture()

	ghost := "ghost"
	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: 20250003,
		FullName:      "Lina Adel",
		Email:         "lina@faculty.edu",
		Level:         1,
		Gender:        "Female",
		Phone:         "0100000001",
		DepartmentID:  &ghost,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateRejectsBadPayload(t *testing.T) {
	_, svc := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: 20250004,
		FullName:      "Al",
		Email:         "not-an-email",
		Level:         9,
		Gender:        "Other",
		Phone:         "",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdate(t *testing.T) {
	repo, svc := newStudentFixture()

	student, err := svc.Update(context.Background(), "stu-1", UpdateStudentRequest{
		FullName: "Sara A. Mostafa",
		Email:    "sara@faculty.edu",
		Level:    3,
		Gender:   "Female",
		Phone:    "0100000002",
		Active:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, student.Level)
	assert.Equal(t, "Sara A. Mostafa", repo.students["stu-1"].FullName)
}

func TestStudentGetAndDeleteMissing(t *testing.T) {
	_, svc := newStudentFixture()

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "stu-1"))
	err = svc.Delete(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
