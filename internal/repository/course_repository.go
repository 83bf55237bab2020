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

// CourseRepository handles persistence of catalog courses, their department
// assignments and the prerequisite graph.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses c`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM course_departments cd WHERE cd.course_id = c.id AND cd.department_id = $%d)", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Term != nil {
		conditions = append(conditions, fmt.Sprintf("c.term = $%d", len(args)+1))
		args = append(args, *filter.Term)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":         "c.name",
		"code":         "c.code",
		"term":         "c.term",
		"credit_hours": "c.credit_hours",
		"created_at":   "c.created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
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

	query := fmt.Sprintf(`SELECT c.id, c.name, c.code, c.credit_hours, c.term, c.created_at, c.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, code, credit_hours, term, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByName returns a course by its unique name, matched case-insensitively.
func (r *CourseRepository) FindByName(ctx context.Context, name string) (*models.Course, error) {
	const query = `SELECT id, name, code, credit_hours, term, created_at, updated_at FROM courses WHERE LOWER(name) = LOWER($1)`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, name); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course. Names dedupe case-insensitively and codes
// are stored uppercase; uniqueness violations surface as pq errors.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.Code = strings.ToUpper(course.Code)
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, code, credit_hours, term, created_at, updated_at)
        VALUES (:id, :name, :code, :credit_hours, :term, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.Code = strings.ToUpper(course.Code)
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, code = :code, credit_hours = :credit_hours,
        term = :term, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course. References elsewhere are not cascade-cleaned.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByDepartmentAndTerm returns the department's offering for a term with
// each course's prerequisite list attached, in the catalog's natural order.
func (r *CourseRepository) ListByDepartmentAndTerm(ctx context.Context, departmentID string, term int) ([]models.Course, error) {
	const query = `SELECT c.id, c.name, c.code, c.credit_hours, c.term, c.created_at, c.updated_at
        FROM courses c
        JOIN course_departments cd ON cd.course_id = c.id
        WHERE cd.department_id = $1 AND c.term = $2`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentID, term); err != nil {
		return nil, fmt.Errorf("list department term courses: %w", err)
	}
	if len(courses) == 0 {
		return courses, nil
	}

	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	rows, err := r.db.QueryxContext(ctx,
		`SELECT course_id, prerequisite_id FROM course_prerequisites WHERE course_id = ANY($1) ORDER BY position`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load prerequisites: %w", err)
	}
	defer rows.Close()

	prereqs := make(map[string][]string, len(courses))
	for rows.Next() {
		var courseID, prereqID string
		if err := rows.Scan(&courseID, &prereqID); err != nil {
			return nil, fmt.Errorf("scan prerequisite: %w", err)
		}
		prereqs[courseID] = append(prereqs[courseID], prereqID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prerequisites: %w", err)
	}
	for i := range courses {
		courses[i].PrerequisiteIDs = prereqs[courses[i].ID]
	}
	return courses, nil
}

// ListPrerequisiteIDs returns the direct prerequisite ids of a course in order.
func (r *CourseRepository) ListPrerequisiteIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	const query = `SELECT prerequisite_id FROM course_prerequisites WHERE course_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("list course prerequisites: %w", err)
	}
	return ids, nil
}

// AddPrerequisite records a prerequisite edge on the authoritative graph.
// Re-adding an existing edge is a no-op.
func (r *CourseRepository) AddPrerequisite(ctx context.Context, courseID, prerequisiteID string) error {
	const query = `INSERT INTO course_prerequisites (course_id, prerequisite_id, position)
        VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM course_prerequisites WHERE course_id = $1))
        ON CONFLICT (course_id, prerequisite_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, courseID, prerequisiteID); err != nil {
		return fmt.Errorf("add prerequisite: %w", err)
	}
	return nil
}

// HasDepartment reports whether the course is already assigned to the department.
func (r *CourseRepository) HasDepartment(ctx context.Context, courseID, departmentID string) (bool, error) {
	const query = `SELECT 1 FROM course_departments WHERE course_id = $1 AND department_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, departmentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course department: %w", err)
	}
	return true, nil
}

// AssignDepartment writes the course-department association. The join table
// is the single record of the bidirectional reference, so the write updates
// both sides or neither; duplicates are a no-op.
func (r *CourseRepository) AssignDepartment(ctx context.Context, courseID, departmentID string) error {
	const query = `INSERT INTO course_departments (course_id, department_id)
        VALUES ($1, $2) ON CONFLICT (course_id, department_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, courseID, departmentID); err != nil {
		return fmt.Errorf("assign course department: %w", err)
	}
	return nil
}

// ListDepartmentIDs returns the departments a course is assigned to.
func (r *CourseRepository) ListDepartmentIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	const query = `SELECT department_id FROM course_departments WHERE course_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("list course departments: %w", err)
	}
	return ids, nil
}
