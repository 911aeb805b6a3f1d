package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

const attendanceColumns = `
	a.id, a.user_id, a.date, a.punch_in, a.punch_out,
	a.punch_in_location, a.punch_out_location, a.total_hours,
	a.status, a.notes, a.created_at, a.updated_at`

type attendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner, withUser bool) (attendance.Attendance, error) {
	var (
		att                            attendance.Attendance
		date, createdAt, updatedAt     string
		punchIn, punchOut              sql.NullString
		inLocation, outLocation        sql.NullString
		totalHours, notes              sql.NullString
		userEmail, userFirst, userLast sql.NullString
	)

	dest := []any{
		&att.ID, &att.UserID, &date, &punchIn, &punchOut,
		&inLocation, &outLocation, &totalHours,
		&att.Status, &notes, &createdAt, &updatedAt,
	}
	if withUser {
		dest = append(dest, &userEmail, &userFirst, &userLast)
	}
	if err := row.Scan(dest...); err != nil {
		return attendance.Attendance{}, err
	}

	var err error
	if att.Date, err = parseTime(date); err != nil {
		return attendance.Attendance{}, err
	}
	if att.CreatedAt, err = parseTime(createdAt); err != nil {
		return attendance.Attendance{}, err
	}
	if att.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return attendance.Attendance{}, err
	}
	if att.PunchIn, err = parseTimePtr(punchIn); err != nil {
		return attendance.Attendance{}, err
	}
	if att.PunchOut, err = parseTimePtr(punchOut); err != nil {
		return attendance.Attendance{}, err
	}
	if att.PunchInLocation, err = decodeJSON[attendance.Location](inLocation); err != nil {
		return attendance.Attendance{}, err
	}
	if att.PunchOutLocation, err = decodeJSON[attendance.Location](outLocation); err != nil {
		return attendance.Attendance{}, err
	}
	if totalHours.Valid {
		hours, err := decimal.NewFromString(totalHours.String)
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to parse total hours %q: %w", totalHours.String, err)
		}
		att.TotalHours = &hours
	}
	att.Notes = stringPtr(notes)
	att.UserEmail, att.UserFirstName, att.UserLastName = stringPtr(userEmail), stringPtr(userFirst), stringPtr(userLast)

	return att, nil
}

func hoursParam(hours *decimal.Decimal) interface{} {
	if hours == nil {
		return nil
	}
	return hours.StringFixed(2)
}

func (r *attendanceRepository) FindByUserAndDayWindow(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = ?
		  AND a.date >= ?
		  AND a.date <= ?
		ORDER BY a.date DESC
		LIMIT 1
	`

	att, err := scanAttendance(r.db.QueryRowContext(ctx, query, userID, formatTime(dayStart), formatTime(dayEnd)), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Unavailable("get attendance by user and day", err)
	}
	return &att, nil
}

func (r *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	if newAttendance.Status == "" {
		newAttendance.Status = attendance.StatusPresent
	}

	inLocation, err := jsonParam(newAttendance.PunchInLocation)
	if err != nil {
		return attendance.Attendance{}, err
	}
	outLocation, err := jsonParam(newAttendance.PunchOutLocation)
	if err != nil {
		return attendance.Attendance{}, err
	}
	now := formatTime(time.Now())

	query := `
		INSERT INTO attendances (
			id, user_id, date, punch_in, punch_out,
			punch_in_location, punch_out_location, total_hours, status, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id.String(),
		newAttendance.UserID,
		formatTime(newAttendance.Date),
		formatTimePtr(newAttendance.PunchIn),
		formatTimePtr(newAttendance.PunchOut),
		inLocation,
		outLocation,
		hoursParam(newAttendance.TotalHours),
		string(newAttendance.Status),
		newAttendance.Notes,
		now,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicateAttendance
		}
		return attendance.Attendance{}, database.Unavailable("create attendance", err)
	}

	return r.getByID(ctx, id.String())
}

func (r *attendanceRepository) getByID(ctx context.Context, id string) (attendance.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.id = ?`

	att, err := scanAttendance(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, database.Unavailable("get attendance by ID", err)
	}
	return att, nil
}

func (r *attendanceRepository) Update(ctx context.Context, id string, fields attendance.UpdateFields) (attendance.Attendance, error) {
	updates := []string{"updated_at = ?"}
	args := []interface{}{formatTime(time.Now())}

	if fields.PunchIn != nil {
		location, err := jsonParam(fields.PunchInLocation)
		if err != nil {
			return attendance.Attendance{}, err
		}
		updates = append(updates, "punch_in = ?", "punch_in_location = ?")
		args = append(args, formatTime(*fields.PunchIn), location)
	}
	if fields.PunchOut != nil {
		location, err := jsonParam(fields.PunchOutLocation)
		if err != nil {
			return attendance.Attendance{}, err
		}
		updates = append(updates, "punch_out = ?", "punch_out_location = ?")
		args = append(args, formatTime(*fields.PunchOut), location)
	}
	if fields.TotalHours != nil {
		updates = append(updates, "total_hours = ?")
		args = append(args, hoursParam(fields.TotalHours))
	}
	args = append(args, id)

	query := "UPDATE attendances SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return attendance.Attendance{}, database.Unavailable("update attendance", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return attendance.Attendance{}, database.Unavailable("update attendance", err)
	}
	if affected == 0 {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	return r.getByID(ctx, id)
}

func (r *attendanceRepository) CountByStatusInWindow(ctx context.Context, status attendance.Status, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM attendances
		WHERE status = ?
		  AND date >= ?
		  AND date <= ?
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, string(status), formatTime(start), formatTime(end)).Scan(&count); err != nil {
		return 0, database.Unavailable("count attendances", err)
	}
	return count, nil
}

func (r *attendanceRepository) List(ctx context.Context, query attendance.ListQuery) ([]attendance.Attendance, int64, error) {
	conditions := []string{"1 = 1"}
	args := make([]interface{}, 0)

	if query.UserID != nil && *query.UserID != "" {
		conditions = append(conditions, "a.user_id = ?")
		args = append(args, *query.UserID)
	}
	if query.From != nil {
		conditions = append(conditions, "a.date >= ?")
		args = append(args, formatTime(*query.From))
	}
	if query.To != nil {
		conditions = append(conditions, "a.date <= ?")
		args = append(args, formatTime(*query.To))
	}
	baseWhere := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendances a WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, database.Unavailable("count attendances", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	selectQuery := `
		SELECT ` + attendanceColumns + `,
			u.email, u.first_name, u.last_name
		FROM attendances a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE ` + baseWhere + `
		ORDER BY a.date DESC, a.created_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, query.Offset)

	rows, err := r.db.QueryContext(ctx, selectQuery, args...)
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
