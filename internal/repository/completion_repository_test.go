package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/fci-zu/faculty-api/internal/models"
)

func newCompletionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCompletionRepositoryExists(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM completed_courses WHERE student_id = $1 AND course_id = $2")).
		WithArgs("stu-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "crs-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM completed_courses")).
		WithArgs("stu-1", "crs-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), "stu-1", "crs-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreatePassingGrade(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF reg").
		WithArgs("stu-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_count"}).AddRow("reg-1", 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completed_courses")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "crs-1", models.GradeB, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET")).
		WithArgs("stu-1", 4, models.MaxCreditHours, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registration_courses WHERE registration_id = $1 AND course_id = $2")).
		WithArgs("reg-1", "crs-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	completion := &models.Completion{StudentID: "stu-1", CourseID: "crs-1", Grade: models.GradeB}
	require.NoError(t, repo.Create(context.Background(), completion, 4))
	require.NotEmpty(t, completion.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreateFailingGradeSkipsCredits(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF reg").
		WithArgs("stu-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_count"}).AddRow("reg-1", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completed_courses")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "crs-1", models.GradeF, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// One-course registration gets deleted outright.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE id = $1")).
		WithArgs("reg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	completion := &models.Completion{StudentID: "stu-1", CourseID: "crs-1", Grade: models.GradeF}
	require.NoError(t, repo.Create(context.Background(), completion, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreateUnregistered(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF reg").
		WithArgs("stu-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_count"}))
	mock.ExpectRollback()

	completion := &models.Completion{StudentID: "stu-1", CourseID: "crs-1", Grade: models.GradeA}
	err := repo.Create(context.Background(), completion, 3)
	require.ErrorIs(t, err, ErrCourseNotRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF reg").
		WithArgs("stu-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_count"}).AddRow("reg-1", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completed_courses")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	completion := &models.Completion{StudentID: "stu-1", CourseID: "crs-1", Grade: models.GradeA}
	err := repo.Create(context.Background(), completion, 3)
	require.ErrorIs(t, err, ErrDuplicateCompletion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	completed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "grade", "completed_date", "created_at", "course_name", "course_code", "credit_hours"}).
		AddRow("cmp-1", "stu-1", "crs-1", models.GradeA, completed, completed, "Calculus I", "MATH101", 3)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE cc.student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	transcript, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	require.Equal(t, "MATH101", transcript[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
