package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UpdateFields is a partial update of an attendance record. Nil timestamps are
// left untouched; when a timestamp is set its location column is written with
// the paired location, nil included.
type UpdateFields struct {
	PunchIn          *time.Time
	PunchInLocation  *Location
	PunchOut         *time.Time
	PunchOutLocation *Location
	TotalHours       *decimal.Decimal
}

// IsEmpty reports whether the update changes nothing.
func (f UpdateFields) IsEmpty() bool {
	return f.PunchIn == nil && f.PunchOut == nil && f.TotalHours == nil
}

// ListQuery selects records for listings. Zero values mean no constraint.
type ListQuery struct {
	UserID *string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// AttendanceRepository defines data access methods for attendance records.
// Persistence failures are reported wrapped with database.ErrStorageUnavailable.
type AttendanceRepository interface {
	// FindByUserAndDayWindow returns the record whose date falls within
	// [dayStart, dayEnd], or nil when there is none
	FindByUserAndDayWindow(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*Attendance, error)

	// Create inserts a record, assigning ID and timestamps. A second record for
	// the same user and day fails with ErrDuplicateAttendance
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// Update applies fields to the record with id and returns the stored result
	Update(ctx context.Context, id string, fields UpdateFields) (Attendance, error)

	// CountByStatusInWindow counts records with status whose date falls in [start, end]
	CountByStatusInWindow(ctx context.Context, status Status, start, end time.Time) (int64, error)

	// List returns records newest date first, with the total matching count
	List(ctx context.Context, query ListQuery) ([]Attendance, int64, error)
}
