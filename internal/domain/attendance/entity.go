package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
)

// IsValid reports whether s is a known attendance status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// Location is the position reported by the client at punch time.
type Location struct {
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Address *string  `json:"address,omitempty" validate:"omitempty,max=255"`
}

type Attendance struct {
	ID     string
	UserID string
	// Date is the first instant of the calendar day the record belongs to.
	Date             time.Time
	PunchIn          *time.Time
	PunchOut         *time.Time
	PunchInLocation  *Location
	PunchOutLocation *Location
	TotalHours       *decimal.Decimal
	Status           Status
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined from users on listings
	UserEmail     *string
	UserFirstName *string
	UserLastName  *string
}

// HasPunchedIn reports whether the record carries a punch-in time.
func (a *Attendance) HasPunchedIn() bool {
	return a.PunchIn != nil
}

// HoursBetween returns the elapsed hours from in to out rounded to two decimal
// places. A negative span yields zero.
func HoursBetween(in, out time.Time) decimal.Decimal {
	elapsed := out.Sub(in)
	if elapsed < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(elapsed)).
		Div(decimal.NewFromInt(int64(time.Hour))).
		Round(2)
}
