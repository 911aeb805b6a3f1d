package clock

import "time"

// Clock supplies the current instant. Services take a Clock instead of calling
// time.Now directly so tests can pin the time of a punch.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock that always returns the same instant. Set moves it.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time {
	return f.T
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.T = t
}

// DayWindow returns the first and last instant of the calendar day containing ref
// in loc. The end is inclusive at microsecond precision, the finest resolution
// stored by PostgreSQL timestamps.
func DayWindow(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Microsecond)
	return start, end
}

// DaysBetween lists the start of every calendar day from start to end inclusive.
func DaysBetween(start, end time.Time, loc *time.Location) []time.Time {
	first, _ := DayWindow(start, loc)
	last, _ := DayWindow(end, loc)

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
