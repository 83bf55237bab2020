package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Write failures surfaced to the service layer for taxonomy mapping.
var (
	// ErrDuplicateCompletion maps the unique (student, course) index violation.
	ErrDuplicateCompletion = errors.New("completion already recorded for student and course")
	// ErrCourseNotRegistered signals the strict precondition: a course may
	// only be completed while it sits in an active registration.
	ErrCourseNotRegistered = errors.New("course is not registered for student")
	// ErrDuplicateEdge maps the unique (course, prerequisite) index violation.
	ErrDuplicateEdge = errors.New("prerequisite edge already exists")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode
}
