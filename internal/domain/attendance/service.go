package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// PunchIn starts, or restarts, today's attendance for the user
	PunchIn(ctx context.Context, req PunchRequest) (AttendanceResponse, error)

	// PunchOut closes today's attendance and computes total hours
	PunchOut(ctx context.Context, req PunchRequest) (AttendanceResponse, error)

	// GetByDate returns the user's record for a YYYY-MM-DD day, nil when absent
	GetByDate(ctx context.Context, userID string, date string) (*AttendanceResponse, error)

	// GetToday returns the user's record for the current day, nil when absent
	GetToday(ctx context.Context, userID string) (*AttendanceResponse, error)

	// ListRecords lists records with filters and pagination
	ListRecords(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
}
