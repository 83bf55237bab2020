package models

import "time"

// Course is a catalog entry offered by one or more departments.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	Term        int       `db:"term" json:"term"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// DepartmentIDs and PrerequisiteIDs are loaded from the join tables.
	DepartmentIDs   []string `db:"-" json:"department_ids,omitempty"`
	PrerequisiteIDs []string `db:"-" json:"prerequisite_ids,omitempty"`
}

// CourseSummary is the reduced course shape returned by the recommender.
type CourseSummary struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Code        string `db:"code" json:"code"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
}

// Summary reduces a course to its recommendation payload shape.
func (c Course) Summary() CourseSummary {
	return CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code, CreditHours: c.CreditHours}
}

// CourseFilter captures the allowed search parameters for listing courses.
type CourseFilter struct {
	DepartmentID string
	Term         *int
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
