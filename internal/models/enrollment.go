package models

import "time"

// Registration bundles the courses a student registered together.
// A course may appear in at most one active registration per student.
type Registration struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	CourseIDs []string `db:"-" json:"course_ids"`
}

// Completion records that a student finished a course with a grade.
// The (student, course) pair is unique; records are immutable once written.
type Completion struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Grade         Grade     `db:"grade" json:"grade"`
	CompletedDate time.Time `db:"completed_date" json:"completed_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CompletionDetail joins a completion with its course context for transcripts.
type CompletionDetail struct {
	Completion
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
}

// RegistrationFilter captures filtering criteria for listing registrations.
type RegistrationFilter struct {
	StudentID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CompletionFilter captures filtering criteria for listing completions.
type CompletionFilter struct {
	StudentID string
	CourseID  string
	Grade     *Grade
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
