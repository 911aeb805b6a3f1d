package attendance

import "errors"

// Attendance domain errors
var (
	// Punch errors
	ErrNoPunchIn = errors.New("no punch-in found for today")

	// Store errors
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrDuplicateAttendance = errors.New("attendance record already exists for this day")
)
