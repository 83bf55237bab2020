package models

import "time"

// PrerequisiteEdge is the standalone (course, prerequisite) edge record.
// The course_prerequisites join table is the authoritative graph read by
// the eligibility check; this collection mirrors it for the legacy API.
type PrerequisiteEdge struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	PrerequisiteID string    `db:"prerequisite_id" json:"prerequisite_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PrerequisiteEdgeDetail joins the edge with course naming for listings.
type PrerequisiteEdgeDetail struct {
	PrerequisiteEdge
	CourseName       string `db:"course_name" json:"course_name"`
	CourseCode       string `db:"course_code" json:"course_code"`
	PrerequisiteName string `db:"prerequisite_name" json:"prerequisite_name"`
	PrerequisiteCode string `db:"prerequisite_code" json:"prerequisite_code"`
}
