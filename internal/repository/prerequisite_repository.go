package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fci-zu/faculty-api/internal/models"
)

// PrerequisiteRepository handles the legacy standalone prerequisite edge
// collection. Writes are mirrored into course_prerequisites so the
// eligibility check and this API never drift.
type PrerequisiteRepository struct {
	db *sqlx.DB
}

// NewPrerequisiteRepository constructs the repository.
func NewPrerequisiteRepository(db *sqlx.DB) *PrerequisiteRepository {
	return &PrerequisiteRepository{db: db}
}

// Exists reports whether the edge is already recorded.
func (r *PrerequisiteRepository) Exists(ctx context.Context, courseID, prerequisiteID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM prerequisites WHERE course_id = $1 AND prerequisite_id = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, courseID, prerequisiteID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check prerequisite edge: %w", err)
	}
	return true, nil
}

// Create records the edge and mirrors it onto the authoritative graph.
func (r *PrerequisiteRepository) Create(ctx context.Context, edge *models.PrerequisiteEdge) (err error) {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	edge.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prerequisite transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO prerequisites (id, course_id, prerequisite_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, insert, edge.ID, edge.CourseID, edge.PrerequisiteID, edge.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateEdge
			return err
		}
		return fmt.Errorf("create prerequisite edge: %w", err)
	}

	const mirror = `INSERT INTO course_prerequisites (course_id, prerequisite_id, position)
        VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM course_prerequisites WHERE course_id = $1))
        ON CONFLICT (course_id, prerequisite_id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, mirror, edge.CourseID, edge.PrerequisiteID); err != nil {
		return fmt.Errorf("mirror prerequisite edge: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit prerequisite edge: %w", err)
	}
	return nil
}

// ListAll returns every edge with course naming attached.
func (r *PrerequisiteRepository) ListAll(ctx context.Context) ([]models.PrerequisiteEdgeDetail, error) {
	const query = `SELECT p.id, p.course_id, p.prerequisite_id, p.created_at,
        c.name AS course_name, c.code AS course_code,
        pc.name AS prerequisite_name, pc.code AS prerequisite_code
        FROM prerequisites p
        JOIN courses c ON c.id = p.course_id
        JOIN courses pc ON pc.id = p.prerequisite_id
        ORDER BY c.code, pc.code`
	var edges []models.PrerequisiteEdgeDetail
	if err := r.db.SelectContext(ctx, &edges, query); err != nil {
		return nil, fmt.Errorf("list prerequisite edges: %w", err)
	}
	return edges, nil
}

// ListByCourse returns the edges whose course matches.
func (r *PrerequisiteRepository) ListByCourse(ctx context.Context, courseID string) ([]models.PrerequisiteEdgeDetail, error) {
	const query = `SELECT p.id, p.course_id, p.prerequisite_id, p.created_at,
        c.name AS course_name, c.code AS course_code,
        pc.name AS prerequisite_name, pc.code AS prerequisite_code
        FROM prerequisites p
        JOIN courses c ON c.id = p.course_id
        JOIN courses pc ON pc.id = p.prerequisite_id
        WHERE p.course_id = $1
        ORDER BY pc.code`
	var edges []models.PrerequisiteEdgeDetail
	if err := r.db.SelectContext(ctx, &edges, query, courseID); err != nil {
		return nil, fmt.Errorf("list course prerequisite edges: %w", err)
	}
	return edges, nil
}

// Delete removes an edge record. The mirrored graph entry is left in place:
// the legacy collection is advisory and deleting from it has never unlocked
// courses in the original system.
func (r *PrerequisiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prerequisites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prerequisite edge: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
