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

// CompletionRepository handles persistence of completion records and the
// ledger bookkeeping that accompanies them.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Exists reports whether a completion already exists for the pair.
func (r *CompletionRepository) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM completed_courses WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check completion: %w", err)
	}
	return true, nil
}

// Create records a completion as one atomic unit: the uniquely-constrained
// completion insert, the clamped credit counter update (skipped on failing
// grades), and the registration cleanup. Registrations left with no courses
// are deleted outright; others just lose the completed course.
func (r *CompletionRepository) Create(ctx context.Context, completion *models.Completion, creditHours int) (err error) {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if completion.CompletedDate.IsZero() {
		completion.CompletedDate = now
	}
	completion.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type registrationRow struct {
		ID          string `db:"id"`
		CourseCount int    `db:"course_count"`
	}
	var containing []registrationRow
	const lockQuery = `SELECT reg.id,
        (SELECT COUNT(*) FROM registration_courses rc2 WHERE rc2.registration_id = reg.id) AS course_count
        FROM registrations reg
        JOIN registration_courses rc ON rc.registration_id = reg.id
        WHERE reg.student_id = $1 AND rc.course_id = $2
        FOR UPDATE OF reg`
	if err = tx.SelectContext(ctx, &containing, lockQuery, completion.StudentID, completion.CourseID); err != nil {
		return fmt.Errorf("lock registrations: %w", err)
	}
	if len(containing) == 0 {
		err = ErrCourseNotRegistered
		return err
	}

	const insert = `INSERT INTO completed_courses (id, student_id, course_id, grade, completed_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insert, completion.ID, completion.StudentID, completion.CourseID,
		completion.Grade, completion.CompletedDate, completion.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateCompletion
			return err
		}
		return fmt.Errorf("create completion: %w", err)
	}

	if completion.Grade.Passing() {
		const creditUpdate = `UPDATE students SET
            total_credits_completed = LEAST(total_credits_completed + $2, $3),
            reminder_credits = GREATEST(reminder_credits - $2, 0),
            updated_at = $4
            WHERE id = $1`
		if _, err = tx.ExecContext(ctx, creditUpdate, completion.StudentID, creditHours, models.MaxCreditHours, now); err != nil {
			return fmt.Errorf("update credit counters: %w", err)
		}
	}

	for _, reg := range containing {
		if reg.CourseCount <= 1 {
			if _, err = tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, reg.ID); err != nil {
				return fmt.Errorf("delete emptied registration: %w", err)
			}
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM registration_courses WHERE registration_id = $1 AND course_id = $2`,
			reg.ID, completion.CourseID); err != nil {
			return fmt.Errorf("shrink registration: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

// List returns completion records filtered by the provided criteria.
func (r *CompletionRepository) List(ctx context.Context, filter models.CompletionFilter) ([]models.CompletionDetail, int, error) {
	base := `FROM completed_courses cc
LEFT JOIN courses c ON c.id = cc.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("cc.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cc.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("cc.grade = $%d", len(args)+1))
		args = append(args, *filter.Grade)
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

	query := fmt.Sprintf(`SELECT cc.id, cc.student_id, cc.course_id, cc.grade, cc.completed_date, cc.created_at,
        COALESCE(c.name, '') AS course_name, COALESCE(c.code, '') AS course_code, COALESCE(c.credit_hours, 0) AS credit_hours
        %s ORDER BY cc.completed_date %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var completions []models.CompletionDetail
	if err := r.db.SelectContext(ctx, &completions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list completions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count completions: %w", err)
	}
	return completions, total, nil
}

// ListByStudent returns the student's transcript rows where the course
// reference still resolves, oldest first.
func (r *CompletionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error) {
	const query = `SELECT cc.id, cc.student_id, cc.course_id, cc.grade, cc.completed_date, cc.created_at,
        c.name AS course_name, c.code AS course_code, c.credit_hours
        FROM completed_courses cc
        JOIN courses c ON c.id = cc.course_id
        WHERE cc.student_id = $1
        ORDER BY cc.completed_date ASC`
	var completions []models.CompletionDetail
	if err := r.db.SelectContext(ctx, &completions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student completions: %w", err)
	}
	return completions, nil
}
