package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/clock"
	"github.com/leadcrm/crm-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	recorder activity.ActivityRecorder
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger
}

// NewAttendanceService wires the attendance engine. Calendar days are computed
// in location; a nil location means the server's local zone.
func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	recorder activity.ActivityRecorder,
	clk clock.Clock,
	location *time.Location,
	logger *slog.Logger,
) attendance.AttendanceService {
	if clk == nil {
		clk = clock.System()
	}
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		recorder:             recorder,
		clock:                clk,
		location:             location,
		logger:               logger,
	}
}

// PunchIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.clock.Now()
	dayStart, dayEnd := clock.DayWindow(now, a.location)

	existing, err := a.AttendanceRepository.FindByUserAndDayWindow(ctx, req.UserID, dayStart, dayEnd)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	if existing == nil {
		created, err := a.AttendanceRepository.Create(ctx, attendance.Attendance{
			UserID:          req.UserID,
			Date:            dayStart,
			PunchIn:         &now,
			PunchInLocation: req.Location,
			Status:          attendance.StatusPresent,
		})
		switch {
		case err == nil:
			a.record(ctx, punchInEntry(created, req.Location))
			return a.toResponse(created), nil
		case !errors.Is(err, attendance.ErrDuplicateAttendance):
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
		}

		// A concurrent punch-in created today's record first; update it instead.
		existing, err = a.AttendanceRepository.FindByUserAndDayWindow(ctx, req.UserID, dayStart, dayEnd)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
		}
		if existing == nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to punch in: %w", attendance.ErrDuplicateAttendance)
		}
	}

	// Re-punching in replaces the earlier punch-in.
	updated, err := a.AttendanceRepository.Update(ctx, existing.ID, attendance.UpdateFields{
		PunchIn:         &now,
		PunchInLocation: req.Location,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.record(ctx, punchInEntry(updated, req.Location))
	return a.toResponse(updated), nil
}

// PunchOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.clock.Now()
	dayStart, dayEnd := clock.DayWindow(now, a.location)

	existing, err := a.AttendanceRepository.FindByUserAndDayWindow(ctx, req.UserID, dayStart, dayEnd)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if existing == nil || !existing.HasPunchedIn() {
		return attendance.AttendanceResponse{}, attendance.ErrNoPunchIn
	}

	hours := attendance.HoursBetween(*existing.PunchIn, now)
	updated, err := a.AttendanceRepository.Update(ctx, existing.ID, attendance.UpdateFields{
		PunchOut:         &now,
		PunchOutLocation: req.Location,
		TotalHours:       &hours,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.record(ctx, activity.Entry{
		UserID:     updated.UserID,
		Action:     activity.ActionPunchedOut,
		EntityType: activity.EntityTypeAttendance,
		EntityID:   &updated.ID,
		Details: map[string]interface{}{
			"location":    req.Location,
			"total_hours": hours,
		},
	})
	return a.toResponse(updated), nil
}

// GetByDate implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetByDate(ctx context.Context, userID string, date string) (*attendance.AttendanceResponse, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(userID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	day, err := time.ParseInLocation("2006-01-02", date, a.location)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return a.getForDay(ctx, userID, day)
}

// GetToday implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context, userID string) (*attendance.AttendanceResponse, error) {
	if validator.IsEmpty(userID) {
		return nil, validator.ValidationErrors{{Field: "user_id", Message: "user_id is required"}}
	}
	return a.getForDay(ctx, userID, a.clock.Now())
}

func (a *AttendanceServiceImpl) getForDay(ctx context.Context, userID string, day time.Time) (*attendance.AttendanceResponse, error) {
	dayStart, dayEnd := clock.DayWindow(day, a.location)

	found, err := a.AttendanceRepository.FindByUserAndDayWindow(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance by date: %w", err)
	}
	if found == nil {
		return nil, nil
	}

	resp := a.toResponse(*found)
	return &resp, nil
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	query := attendance.ListQuery{
		UserID: filter.UserID,
		Limit:  filter.Limit,
		Offset: (filter.Page - 1) * filter.Limit,
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		day, _ := time.ParseInLocation("2006-01-02", *filter.StartDate, a.location)
		from, _ := clock.DayWindow(day, a.location)
		query.From = &from
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		day, _ := time.ParseInLocation("2006-01-02", *filter.EndDate, a.location)
		_, to := clock.DayWindow(day, a.location)
		query.To = &to
	}

	records, total, err := a.AttendanceRepository.List(ctx, query)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	// Map to response
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, a.toResponse(record))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// record sends an audit entry. Failures are logged and never fail the punch.
func (a *AttendanceServiceImpl) record(ctx context.Context, entry activity.Entry) {
	if a.recorder == nil {
		return
	}
	if _, err := a.recorder.LogActivity(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "failed to record attendance activity",
			slog.String("user_id", entry.UserID),
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}

func punchInEntry(record attendance.Attendance, location *attendance.Location) activity.Entry {
	return activity.Entry{
		UserID:     record.UserID,
		Action:     activity.ActionPunchedIn,
		EntityType: activity.EntityTypeAttendance,
		EntityID:   &record.ID,
		Details: map[string]interface{}{
			"location": location,
		},
	}
}

// toResponse converts an Attendance entity to AttendanceResponse
func (a *AttendanceServiceImpl) toResponse(att attendance.Attendance) attendance.AttendanceResponse {
	var userName *string
	if name := user.JoinName(att.UserFirstName, att.UserLastName); name != "" {
		userName = &name
	}

	return attendance.AttendanceResponse{
		ID:               att.ID,
		UserID:           att.UserID,
		UserName:         userName,
		UserEmail:        att.UserEmail,
		Date:             att.Date.In(a.location).Format("2006-01-02"),
		PunchIn:          att.PunchIn,
		PunchOut:         att.PunchOut,
		PunchInLocation:  att.PunchInLocation,
		PunchOutLocation: att.PunchOutLocation,
		TotalHours:       att.TotalHours,
		Status:           att.Status,
		Notes:            att.Notes,
		CreatedAt:        att.CreatedAt,
	}
}
