package models

// Grade is the closed set of letter grades a completion may carry.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Valid reports whether the grade belongs to the closed enumeration.
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD, GradeF:
		return true
	}
	return false
}

// Passing reports whether the grade earns credit hours.
func (g Grade) Passing() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD:
		return true
	case GradeF:
		return false
	}
	return false
}
