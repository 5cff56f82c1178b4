package skills

import "strconv"

// YearLevelFromStudentID derives the study year from the two-digit intake
// prefix of a student id (Buddhist era, e.g. "66..." entered in 2566),
// relative to academicYearBE and clamped to 1..4.
func YearLevelFromStudentID(studentID string, academicYearBE int) int {
	if len(studentID) < 2 {
		return 1
	}
	intake, err := strconv.Atoi(studentID[:2])
	if err != nil || intake < 0 {
		return 1
	}
	level := academicYearBE - (2500 + intake) + 1
	switch {
	case level < 1:
		return 1
	case level > 4:
		return 4
	}
	return level
}
