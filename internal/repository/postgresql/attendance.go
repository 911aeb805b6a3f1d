package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

const attendanceColumns = `
	a.id, a.user_id, a.date, a.punch_in, a.punch_out,
	a.punch_in_location, a.punch_out_location, a.total_hours::text,
	a.status, a.notes, a.created_at, a.updated_at`

const attendanceReturning = `
	id, user_id, date, punch_in, punch_out,
	punch_in_location, punch_out_location, total_hours::text,
	status, notes, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// scanAttendance reads attendanceColumns, optionally followed by the joined user columns.
func scanAttendance(row pgx.Row, withUser bool) (attendance.Attendance, error) {
	var att attendance.Attendance
	var totalHours *string

	dest := []interface{}{
		&att.ID, &att.UserID, &att.Date, &att.PunchIn, &att.PunchOut,
		&att.PunchInLocation, &att.PunchOutLocation, &totalHours,
		&att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
	}
	if withUser {
		dest = append(dest, &att.UserEmail, &att.UserFirstName, &att.UserLastName)
	}

	if err := row.Scan(dest...); err != nil {
		return attendance.Attendance{}, err
	}

	if totalHours != nil {
		hours, err := decimal.NewFromString(*totalHours)
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to parse total hours %q: %w", *totalHours, err)
		}
		att.TotalHours = &hours
	}

	return att, nil
}

// hoursParam renders total hours at the column scale. Strings are sent in text
// format, which NUMERIC parses without float rounding.
func hoursParam(hours *decimal.Decimal) interface{} {
	if hours == nil {
		return nil
	}
	return hours.StringFixed(2)
}

// FindByUserAndDayWindow implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByUserAndDayWindow(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1
		  AND a.date >= $2
		  AND a.date <= $3
		ORDER BY a.date DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, dayStart, dayEnd), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No attendance for that day
		}
		return nil, database.Unavailable("get attendance by user and day", err)
	}

	return &att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	if newAttendance.Status == "" {
		newAttendance.Status = attendance.StatusPresent
	}

	query := `
		INSERT INTO attendances (
			id, user_id, date, punch_in, punch_out,
			punch_in_location, punch_out_location, total_hours, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING ` + attendanceReturning

	created, err := scanAttendance(q.QueryRow(ctx, query,
		id.String(),
		newAttendance.UserID,
		newAttendance.Date,
		newAttendance.PunchIn,
		newAttendance.PunchOut,
		newAttendance.PunchInLocation,
		newAttendance.PunchOutLocation,
		hoursParam(newAttendance.TotalHours),
		newAttendance.Status,
		newAttendance.Notes,
	), false)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicateAttendance
		}
		return attendance.Attendance{}, database.Unavailable("create attendance", err)
	}

	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, id string, fields attendance.UpdateFields) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	updates := []string{"updated_at = NOW()"}
	args := make([]interface{}, 0)
	argIdx := 1

	if fields.PunchIn != nil {
		updates = append(updates, fmt.Sprintf("punch_in = $%d, punch_in_location = $%d", argIdx, argIdx+1))
		args = append(args, *fields.PunchIn, fields.PunchInLocation)
		argIdx += 2
	}
	if fields.PunchOut != nil {
		updates = append(updates, fmt.Sprintf("punch_out = $%d, punch_out_location = $%d", argIdx, argIdx+1))
		args = append(args, *fields.PunchOut, fields.PunchOutLocation)
		argIdx += 2
	}
	if fields.TotalHours != nil {
		updates = append(updates, fmt.Sprintf("total_hours = $%d", argIdx))
		args = append(args, hoursParam(fields.TotalHours))
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE attendances
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(updates, ", "), argIdx, attendanceReturning)
	args = append(args, id)

	updated, err := scanAttendance(q.QueryRow(ctx, query, args...), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, database.Unavailable("update attendance", err)
	}

	return updated, nil
}

// CountByStatusInWindow implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountByStatusInWindow(ctx context.Context, status attendance.Status, start, end time.Time) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT COUNT(*)
		FROM attendances
		WHERE status = $1
		  AND date >= $2
		  AND date <= $3
	`

	var count int64
	if err := q.QueryRow(ctx, query, status, start, end).Scan(&count); err != nil {
		return 0, database.Unavailable("count attendances", err)
	}
	return count, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, query attendance.ListQuery) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	conditions := []string{"TRUE"}
	args := make([]interface{}, 0)
	argIdx := 1

	if query.UserID != nil && *query.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", argIdx))
		args = append(args, *query.UserID)
		argIdx++
	}
	if query.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", argIdx))
		args = append(args, *query.From)
		argIdx++
	}
	if query.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", argIdx))
		args = append(args, *query.To)
		argIdx++
	}
	baseWhere := strings.Join(conditions, " AND ")

	// Count total
	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendances a WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, database.Unavailable("count attendances", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s,
			u.email, u.first_name, u.last_name
		FROM attendances a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE %s
		ORDER BY a.date DESC, a.created_at DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, limit, query.Offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, database.Unavailable("query attendances", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows, true)
		if err != nil {
			return nil, 0, database.Unavailable("scan attendance", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Unavailable("iterate attendances", err)
	}

	return attendances, total, nil
}
