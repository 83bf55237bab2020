package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fci-zu/faculty-api/internal/models"
)

// RegistrationRepository handles persistence of active course registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns registrations filtered by the provided criteria.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	base := `FROM registrations reg`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("reg.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT reg.id, reg.student_id, reg.created_at
        %s ORDER BY reg.created_at %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	for i := range registrations {
		courses, err := r.courseIDs(ctx, registrations[i].ID)
		if err != nil {
			return nil, 0, err
		}
		registrations[i].CourseIDs = courses
	}
	return registrations, total, nil
}

// FindByID returns a registration with its bundled course ids.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, student_id, created_at FROM registrations WHERE id = $1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	courses, err := r.courseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	registration.CourseIDs = courses
	return &registration, nil
}

func (r *RegistrationRepository) courseIDs(ctx context.Context, registrationID string) ([]string, error) {
	var ids []string
	const query = `SELECT course_id FROM registration_courses WHERE registration_id = $1 ORDER BY course_id`
	if err := r.db.SelectContext(ctx, &ids, query, registrationID); err != nil {
		return nil, fmt.Errorf("list registration courses: %w", err)
	}
	return ids, nil
}

// RegisteredCourseIDs returns which of the given courses already sit in an
// active registration for the student.
func (r *RegistrationRepository) RegisteredCourseIDs(ctx context.Context, studentID string, courseIDs []string) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT rc.course_id
        FROM registration_courses rc
        JOIN registrations reg ON reg.id = rc.registration_id
        WHERE reg.student_id = $1 AND rc.course_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("check registered courses: %w", err)
	}
	return ids, nil
}

// Create persists a registration bundling the given courses atomically.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) (err error) {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO registrations (id, student_id, created_at) VALUES ($1, $2, $3)`
	if _, err = tx.ExecContext(ctx, insert, registration.ID, registration.StudentID, registration.CreatedAt); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	const insertCourse = `INSERT INTO registration_courses (registration_id, course_id) VALUES ($1, $2)`
	for _, courseID := range registration.CourseIDs {
		if _, err = tx.ExecContext(ctx, insertCourse, registration.ID, courseID); err != nil {
			return fmt.Errorf("attach registration course: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// Delete removes a registration and its course rows.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
