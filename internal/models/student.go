package models

import "time"

// MaxCreditHours is the credit ceiling for a degree; counters are clamped to it.
const MaxCreditHours = 144

// Student represents a learner enrolled in the faculty.
type Student struct {
	ID                    string    `db:"id" json:"id"`
	StudentNumber         int64     `db:"student_number" json:"student_number"`
	FullName              string    `db:"full_name" json:"full_name"`
	Email                 string    `db:"email" json:"email"`
	Level                 int       `db:"level" json:"level"`
	Gender                string    `db:"gender" json:"gender"`
	Phone                 string    `db:"phone" json:"phone"`
	DepartmentID          *string   `db:"department_id" json:"department_id,omitempty"`
	TotalCreditsCompleted int       `db:"total_credits_completed" json:"total_credits_completed"`
	ReminderCredits       int       `db:"reminder_credits" json:"reminder_credits"`
	GPA                   float64   `db:"gpa" json:"gpa"`
	Active                bool      `db:"active" json:"active"`
	EnrollmentDate        time.Time `db:"enrollment_date" json:"enrollment_date"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures the allowed search parameters for listing students.
type StudentFilter struct {
	DepartmentID string
	Level        *int
	Active       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
