package stats

import (
	"time"

	"github.com/leadcrm/crm-backend-go/internal/pkg/validator"
)

// MaxRangeDays bounds the per-day breakdown of a stats request.
const MaxRangeDays = 366

type AttendanceStatsFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// HasRange reports whether both range bounds were supplied.
func (f *AttendanceStatsFilter) HasRange() bool {
	return f.StartDate != nil && *f.StartDate != "" && f.EndDate != nil && *f.EndDate != ""
}

func (f *AttendanceStatsFilter) Validate() error {
	var errs validator.ValidationErrors

	var start, end time.Time
	var startOK, endOK bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		} else if int(end.Sub(start).Hours()/24)+1 > MaxRangeDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "date range must not exceed 366 days",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceStatsResponse struct {
	TotalEmployees int64       `json:"total_employees"`
	PresentToday   int64       `json:"present_today"`
	AttendanceRate int         `json:"attendance_rate"`
	Range          *RangeStats `json:"range,omitempty"`
}

// RangeStats is the per-day breakdown returned when a date range is requested
type RangeStats struct {
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Days        []DayStats `json:"days"`
	AverageRate int        `json:"average_rate"`
}

type DayStats struct {
	Date           string `json:"date"`
	Present        int64  `json:"present"`
	AttendanceRate int    `json:"attendance_rate"`
}
