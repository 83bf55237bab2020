package models

import "time"

// Department groups courses and students under one academic unit.
type Department struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	HeadOfDepartment string    `db:"head_of_department" json:"head_of_department"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentDetail carries the department with its assigned courses.
type DepartmentDetail struct {
	Department
	Courses []CourseSummary `json:"courses"`
}

// DepartmentFilter captures filtering criteria for listing departments.
type DepartmentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
