package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/clock"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/leadcrm/crm-backend-go/internal/pkg/validator"
	"github.com/leadcrm/crm-backend-go/internal/repository/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderStub struct {
	entries []activity.Entry
	err     error
}

func (r *recorderStub) LogActivity(_ context.Context, entry activity.Entry) (activity.ActivityResponse, error) {
	r.entries = append(r.entries, entry)
	if r.err != nil {
		return activity.ActivityResponse{}, r.err
	}
	return activity.ActivityResponse{UserID: entry.UserID, Action: entry.Action}, nil
}

func (r *recorderStub) actions() []string {
	actions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// repoSpy wraps a repository to count calls, inject failures and simulate a
// concurrent insert that a lookup did not see yet.
type repoSpy struct {
	attendance.AttendanceRepository
	calls      int
	findErr    error
	staleFinds int
}

func (r *repoSpy) FindByUserAndDayWindow(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*attendance.Attendance, error) {
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.staleFinds > 0 {
		r.staleFinds--
		return nil, nil
	}
	return r.AttendanceRepository.FindByUserAndDayWindow(ctx, userID, dayStart, dayEnd)
}

func (r *repoSpy) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	r.calls++
	return r.AttendanceRepository.Create(ctx, att)
}

func (r *repoSpy) Update(ctx context.Context, id string, fields attendance.UpdateFields) (attendance.Attendance, error) {
	r.calls++
	return r.AttendanceRepository.Update(ctx, id, fields)
}

type engine struct {
	svc      attendance.AttendanceService
	clock    *clock.Fixed
	recorder *recorderStub
	repo     *repoSpy
}

func newEngine(t *testing.T, start time.Time, loc *time.Location, userIDs ...string) *engine {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(context.Background(), db))

	users := sqlite.NewUserRepository(db)
	for _, id := range userIDs {
		_, err := users.Upsert(context.Background(), user.User{ID: id, Role: user.RoleEmployee})
		require.NoError(t, err)
	}

	e := &engine{
		clock:    &clock.Fixed{T: start},
		recorder: &recorderStub{},
		repo:     &repoSpy{AttendanceRepository: sqlite.NewAttendanceRepository(db)},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.svc = NewAttendanceService(e.repo, e.recorder, e.clock, loc, logger)
	return e
}

func (e *engine) countRecords(t *testing.T, userID string) int64 {
	t.Helper()
	_, total, err := e.repo.AttendanceRepository.List(context.Background(), attendance.ListQuery{UserID: &userID, Limit: 100})
	require.NoError(t, err)
	return total
}

func point(lat, lng float64) *attendance.Location {
	return &attendance.Location{Lat: &lat, Lng: &lng}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
}

func TestPunchIn_CreatesTodayRecord(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")

	resp, err := e.svc.PunchIn(context.Background(), attendance.PunchRequest{UserID: "u1", Location: point(1, 1)})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "2024-03-15", resp.Date)
	assert.True(t, at(9, 0).Equal(*resp.PunchIn))
	assert.Nil(t, resp.PunchOut)
	assert.Nil(t, resp.TotalHours)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	require.NotNil(t, resp.PunchInLocation)
	assert.Equal(t, 1.0, *resp.PunchInLocation.Lat)

	require.Len(t, e.recorder.entries, 1)
	entry := e.recorder.entries[0]
	assert.Equal(t, activity.ActionPunchedIn, entry.Action)
	assert.Equal(t, activity.EntityTypeAttendance, entry.EntityType)
	assert.Equal(t, resp.ID, *entry.EntityID)
	assert.Equal(t, point(1, 1), entry.Details["location"])
}

func TestPunchIn_RepeatedCallsKeepOneRecordAndLatestWins(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	first, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1", Location: point(1, 1)})
	require.NoError(t, err)

	for _, ts := range []time.Time{at(9, 15), at(10, 0), at(11, 45)} {
		e.clock.Set(ts)
		_, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1", Location: point(2, 2)})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), e.countRecords(t, "u1"))

	today, err := e.svc.GetToday(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, first.ID, today.ID)
	assert.True(t, at(11, 45).Equal(*today.PunchIn))
	assert.Equal(t, 2.0, *today.PunchInLocation.Lat)
	assert.Equal(t, []string{"punched_in", "punched_in", "punched_in", "punched_in"}, e.recorder.actions())
}

func TestPunchIn_RetriesAsUpdateWhenRaceCreatedRecord(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	first, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	// The next lookup misses the record, so the insert hits the unique index.
	e.repo.staleFinds = 1
	e.clock.Set(at(9, 5))
	second, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, at(9, 5).Equal(*second.PunchIn))
	assert.Equal(t, int64(1), e.countRecords(t, "u1"))
	assert.Len(t, e.recorder.entries, 2)
}

func TestPunchOut_WithoutPunchInFails(t *testing.T) {
	e := newEngine(t, at(17, 30), time.UTC, "u2")

	_, err := e.svc.PunchOut(context.Background(), attendance.PunchRequest{UserID: "u2"})
	assert.ErrorIs(t, err, attendance.ErrNoPunchIn)

	assert.Empty(t, e.recorder.entries)
	assert.Equal(t, int64(0), e.countRecords(t, "u2"))
}

func TestPunchOut_ComputesTotalHours(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	_, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	e.clock.Set(at(11, 30))
	resp, err := e.svc.PunchOut(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	require.NotNil(t, resp.TotalHours)
	assert.True(t, decimal.RequireFromString("2.5").Equal(*resp.TotalHours), "got %s", resp.TotalHours)
	assert.True(t, at(11, 30).Equal(*resp.PunchOut))
}

func TestPunchInThenOut_FullDay(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	in, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1", Location: point(1, 1)})
	require.NoError(t, err)

	e.clock.Set(at(17, 30))
	out, err := e.svc.PunchOut(ctx, attendance.PunchRequest{UserID: "u1", Location: point(1.5, 1.5)})
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, at(9, 0).Equal(*out.PunchIn))
	assert.True(t, at(17, 30).Equal(*out.PunchOut))
	assert.True(t, decimal.RequireFromString("8.5").Equal(*out.TotalHours))
	assert.Equal(t, attendance.StatusPresent, out.Status)
	assert.Equal(t, 1.5, *out.PunchOutLocation.Lat)

	assert.Equal(t, []string{activity.ActionPunchedIn, activity.ActionPunchedOut}, e.recorder.actions())
	outEntry := e.recorder.entries[1]
	assert.Equal(t, out.ID, *outEntry.EntityID)
	hours, ok := outEntry.Details["total_hours"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("8.5").Equal(hours))
}

func TestPunch_DayBoundaryFollowsLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 16:00 UTC is 23:00 in Jakarta on the 15th; 17:30 UTC is already the 16th.
	e := newEngine(t, at(16, 0), jakarta, "u1")
	ctx := context.Background()

	in, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", in.Date)

	e.clock.Set(at(17, 30))
	_, err = e.svc.PunchOut(ctx, attendance.PunchRequest{UserID: "u1"})
	assert.ErrorIs(t, err, attendance.ErrNoPunchIn)

	next, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-16", next.Date)
	assert.NotEqual(t, in.ID, next.ID)
}

func TestPunch_ValidationHappensBeforeStoreAccess(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	cases := []attendance.PunchRequest{
		{UserID: ""},
		{UserID: "u1", Location: point(91, 0)},
		{UserID: "u1", Location: point(0, 200)},
	}
	for _, req := range cases {
		_, err := e.svc.PunchIn(ctx, req)
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)

		_, err = e.svc.PunchOut(ctx, req)
		assert.ErrorAs(t, err, &verrs)
	}

	assert.Zero(t, e.repo.calls)
	assert.Empty(t, e.recorder.entries)
}

func TestPunch_StorageUnavailableSurfaces(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	e.repo.findErr = database.Unavailable("get attendance by user and day", errors.New("connection refused"))
	ctx := context.Background()

	_, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)

	_, err = e.svc.PunchOut(ctx, attendance.PunchRequest{UserID: "u1"})
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)

	_, err = e.svc.GetToday(ctx, "u1")
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)

	assert.Empty(t, e.recorder.entries)
}

func TestPunch_AuditFailureDoesNotFailPunch(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	e.recorder.err = errors.New("activity log down")
	ctx := context.Background()

	_, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	e.clock.Set(at(10, 0))
	resp, err := e.svc.PunchOut(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(*resp.TotalHours))
	assert.Len(t, e.recorder.entries, 2)
}

func TestGetByDate(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1")
	ctx := context.Background()

	none, err := e.svc.GetByDate(ctx, "u1", "2024-03-15")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: "u1"})
	require.NoError(t, err)

	found, err := e.svc.GetByDate(ctx, "u1", "2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "2024-03-15", found.Date)

	other, err := e.svc.GetByDate(ctx, "u1", "2024-03-14")
	require.NoError(t, err)
	assert.Nil(t, other)

	_, err = e.svc.GetByDate(ctx, "u1", "15/03/2024")
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date")
}

func TestListRecords(t *testing.T) {
	e := newEngine(t, at(9, 0), time.UTC, "u1", "u2")
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		e.clock.Set(at(9, 0).AddDate(0, 0, day))
		for _, uid := range []string{"u1", "u2"} {
			_, err := e.svc.PunchIn(ctx, attendance.PunchRequest{UserID: uid})
			require.NoError(t, err)
		}
	}

	t.Run("all users paged", func(t *testing.T) {
		resp, err := e.svc.ListRecords(ctx, attendance.AttendanceFilter{Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, int64(6), resp.TotalCount)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Equal(t, "1-4 of 6", resp.Showing)
		require.Len(t, resp.Attendances, 4)
		assert.Equal(t, "2024-03-17", resp.Attendances[0].Date)
	})

	t.Run("second page", func(t *testing.T) {
		resp, err := e.svc.ListRecords(ctx, attendance.AttendanceFilter{Page: 2, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, "5-6 of 6", resp.Showing)
		assert.Len(t, resp.Attendances, 2)
	})

	t.Run("one user in range", func(t *testing.T) {
		uid, start, end := "u1", "2024-03-16", "2024-03-17"
		resp, err := e.svc.ListRecords(ctx, attendance.AttendanceFilter{UserID: &uid, StartDate: &start, EndDate: &end})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.TotalCount)
		for _, rec := range resp.Attendances {
			assert.Equal(t, "u1", rec.UserID)
		}
	})

	t.Run("empty", func(t *testing.T) {
		uid := "nobody"
		resp, err := e.svc.ListRecords(ctx, attendance.AttendanceFilter{UserID: &uid})
		require.NoError(t, err)
		assert.Equal(t, "0 of 0", resp.Showing)
		assert.Empty(t, resp.Attendances)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := e.svc.ListRecords(ctx, attendance.AttendanceFilter{Limit: 500})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})
}
