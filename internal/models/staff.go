package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffRole represents the available roles for the RBAC system.
type StaffRole string

const (
	RoleControl        StaffRole = "CONTROL"
	RoleStudentAffairs StaffRole = "STUDENT_AFFAIRS"
	RoleActivityStaff  StaffRole = "ACTIVITY_STAFF"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r StaffRole) Valid() bool {
	switch r {
	case RoleControl, RoleStudentAffairs, RoleActivityStaff:
		return true
	}
	return false
}

// Staff represents a faculty staff member stored in the staff table.
type Staff struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         StaffRole  `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Staff       StaffInfo `json:"staff"`
}

// StaffInfo is the public projection of a staff member.
type StaffInfo struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     StaffRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	StaffID  string    `json:"staff_id"`
	Role     StaffRole `json:"role"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}
