package stats

import (
	"context"
	"math"
)

// StatsService defines the interface for attendance statistics
type StatsService interface {
	// GetAttendanceStats returns today's headcount figures, plus a per-day
	// breakdown when the filter carries a date range
	GetAttendanceStats(ctx context.Context, filter AttendanceStatsFilter) (*AttendanceStatsResponse, error)
}

// AttendanceRate returns present/total as a whole percentage, rounded half away
// from zero. It is 0 when total is 0.
func AttendanceRate(present, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}
