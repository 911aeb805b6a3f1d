package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/stats"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/clock"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/leadcrm/crm-backend-go/internal/pkg/validator"
	"github.com/leadcrm/crm-backend-go/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db          *sql.DB
	users       user.UserRepository
	attendances attendance.AttendanceRepository
	svc         stats.StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(context.Background(), db))

	f := &fixture{
		db:          db,
		users:       sqlite.NewUserRepository(db),
		attendances: sqlite.NewAttendanceRepository(db),
	}
	f.svc = NewStatsService(f.attendances, f.users, &clock.Fixed{T: today}, time.UTC)
	return f
}

func (f *fixture) seedEmployees(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("emp-%02d", i)
		_, err := f.users.Upsert(context.Background(), user.User{ID: id, Role: user.RoleEmployee})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) markPresent(t *testing.T, day time.Time, userIDs ...string) {
	t.Helper()
	dayStart, _ := clock.DayWindow(day, time.UTC)
	for _, id := range userIDs {
		punchIn := dayStart.Add(9 * time.Hour)
		_, err := f.attendances.Create(context.Background(), attendance.Attendance{
			UserID:  id,
			Date:    dayStart,
			PunchIn: &punchIn,
			Status:  attendance.StatusPresent,
		})
		require.NoError(t, err)
	}
}

func TestGetAttendanceStats_Today(t *testing.T) {
	f := newFixture(t)
	ids := f.seedEmployees(t, 10)
	_, err := f.users.Upsert(context.Background(), user.User{ID: "admin-1", Role: user.RoleAdmin})
	require.NoError(t, err)

	f.markPresent(t, today, ids[:7]...)
	// Yesterday's records do not count toward today.
	f.markPresent(t, today.AddDate(0, 0, -1), ids[7:]...)

	resp, err := f.svc.GetAttendanceStats(context.Background(), stats.AttendanceStatsFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(10), resp.TotalEmployees)
	assert.Equal(t, int64(7), resp.PresentToday)
	assert.Equal(t, 70, resp.AttendanceRate)
	assert.Nil(t, resp.Range)
}

func TestGetAttendanceStats_NoEmployees(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.GetAttendanceStats(context.Background(), stats.AttendanceStatsFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.TotalEmployees)
	assert.Equal(t, int64(0), resp.PresentToday)
	assert.Equal(t, 0, resp.AttendanceRate)
}

func TestGetAttendanceStats_Range(t *testing.T) {
	f := newFixture(t)
	ids := f.seedEmployees(t, 4)

	f.markPresent(t, today.AddDate(0, 0, -2), ids[:1]...)
	f.markPresent(t, today.AddDate(0, 0, -1), ids[:3]...)
	f.markPresent(t, today, ids...)

	start, end := "2024-03-13", "2024-03-15"
	resp, err := f.svc.GetAttendanceStats(context.Background(), stats.AttendanceStatsFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Range)

	assert.Equal(t, 100, resp.AttendanceRate)
	assert.Equal(t, start, resp.Range.StartDate)
	assert.Equal(t, end, resp.Range.EndDate)
	assert.Equal(t, []stats.DayStats{
		{Date: "2024-03-13", Present: 1, AttendanceRate: 25},
		{Date: "2024-03-14", Present: 3, AttendanceRate: 75},
		{Date: "2024-03-15", Present: 4, AttendanceRate: 100},
	}, resp.Range.Days)
	assert.Equal(t, 67, resp.Range.AverageRate)
}

func TestGetAttendanceStats_InvalidRange(t *testing.T) {
	f := newFixture(t)

	start, end := "2024-03-15", "2024-03-01"
	_, err := f.svc.GetAttendanceStats(context.Background(), stats.AttendanceStatsFilter{
		StartDate: &start,
		EndDate:   &end,
	})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "end_date must not be before start_date", verrs.ToMap()["end_date"])
}

func TestGetAttendanceStats_StorageUnavailable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Close())

	_, err := f.svc.GetAttendanceStats(context.Background(), stats.AttendanceStatsFilter{})
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}
