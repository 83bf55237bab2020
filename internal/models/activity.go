package models

import "time"

// Activity is an extracurricular record attached to a student.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter captures filtering criteria for listing activities.
type ActivityFilter struct {
	StudentID string
	Type      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
