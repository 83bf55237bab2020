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

// StaffRepository handles persistence of staff accounts.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, email, password_hash, full_name, role, active, last_login, created_at, updated_at`

// FindByEmail returns a staff member by email.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE LOWER(email) = LOWER($1)`, staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByID returns a staff member by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE id = $1`, staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// Create persists a new staff account.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	const query = `INSERT INTO staff (id, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *StaffRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE staff SET last_login = $2 WHERE id = $1`, id, ts)
	if err != nil {
		return fmt.Errorf("update staff last login: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
