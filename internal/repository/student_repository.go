package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fci-zu/faculty-api/internal/models"
)

// StudentRepository handles persistence of students and their derived
// recommendation cache.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_number, full_name, email, level, gender, phone, department_id,
        total_credits_completed, reminder_credits, gpa, active, enrollment_date, created_at, updated_at`

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := `FROM students s`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Level != nil {
		conditions = append(conditions, fmt.Sprintf("s.level = $%d", len(args)+1))
		args = append(args, *filter.Level)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.full_name ILIKE $%d OR s.email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":      "s.full_name",
		"student_number": "s.student_number",
		"level":          "s.level",
		"created_at":     "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT s.id, s.student_number, s.full_name, s.email, s.level, s.gender, s.phone,
        s.department_id, s.total_credits_completed, s.reminder_credits, s.gpa, s.active, s.enrollment_date,
        s.created_at, s.updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Exists reports whether a student row exists without loading it.
func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM students WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return true, nil
}

// Create persists a new student with full remaining credits.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = now
	}
	if student.ReminderCredits == 0 && student.TotalCreditsCompleted == 0 {
		student.ReminderCredits = models.MaxCreditHours
	}
	const query = `INSERT INTO students (id, student_number, full_name, email, level, gender, phone,
        department_id, total_credits_completed, reminder_credits, gpa, active, enrollment_date, created_at, updated_at)
        VALUES (:id, :student_number, :full_name, :email, :level, :gender, :phone,
        :department_id, :total_credits_completed, :reminder_credits, :gpa, :active, :enrollment_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites the mutable student profile fields. Credit counters are
// owned by the completion flow and are not touched here.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, email = :email, level = :level,
        gender = :gender, phone = :phone, department_id = :department_id, active = :active,
        updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CompletedCourseIDs projects the student's completed set as course ids.
// Entries whose course row no longer resolves are skipped.
func (r *StudentRepository) CompletedCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT cc.course_id
        FROM completed_courses cc
        JOIN courses c ON c.id = cc.course_id
        WHERE cc.student_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list completed course ids: %w", err)
	}
	return ids, nil
}

// SaveRecommendations replaces the student's advisory recommendation cache.
func (r *StudentRepository) SaveRecommendations(ctx context.Context, studentID string, courseIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recommendations transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM recommended_courses WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}
	const insert = `INSERT INTO recommended_courses (student_id, course_id, position) VALUES ($1, $2, $3)`
	for i, courseID := range courseIDs {
		if _, err = tx.ExecContext(ctx, insert, studentID, courseID, i+1); err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit recommendations: %w", err)
	}
	return nil
}
