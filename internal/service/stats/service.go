package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/stats"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/clock"
	"golang.org/x/sync/errgroup"
)

// rangeWorkers bounds concurrent per-day counts for range requests.
const rangeWorkers = 8

type StatsServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	clock    clock.Clock
	location *time.Location
}

func NewStatsService(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	clk clock.Clock,
	location *time.Location,
) stats.StatsService {
	if clk == nil {
		clk = clock.System()
	}
	if location == nil {
		location = time.Local
	}
	return &StatsServiceImpl{
		AttendanceRepository: attendanceRepo,
		UserRepository:       userRepo,
		clock:                clk,
		location:             location,
	}
}

// GetAttendanceStats implements stats.StatsService.
func (s *StatsServiceImpl) GetAttendanceStats(ctx context.Context, filter stats.AttendanceStatsFilter) (*stats.AttendanceStatsResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	todayStart, todayEnd := clock.DayWindow(s.clock.Now(), s.location)

	var totalEmployees, presentToday int64
	g, gCtx := errgroup.WithContext(ctx)

	// 1. Employee headcount
	g.Go(func() error {
		count, err := s.UserRepository.CountByRole(gCtx, user.RoleEmployee)
		if err != nil {
			return fmt.Errorf("failed to count employees: %w", err)
		}
		totalEmployees = count
		return nil
	})

	// 2. Present today
	g.Go(func() error {
		count, err := s.AttendanceRepository.CountByStatusInWindow(gCtx, attendance.StatusPresent, todayStart, todayEnd)
		if err != nil {
			return fmt.Errorf("failed to count present attendances: %w", err)
		}
		presentToday = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &stats.AttendanceStatsResponse{
		TotalEmployees: totalEmployees,
		PresentToday:   presentToday,
		AttendanceRate: stats.AttendanceRate(presentToday, totalEmployees),
	}

	if filter.HasRange() {
		rangeStats, err := s.rangeStats(ctx, *filter.StartDate, *filter.EndDate, totalEmployees)
		if err != nil {
			return nil, err
		}
		resp.Range = rangeStats
	}

	return resp, nil
}

// rangeStats counts present records for every day from start to end inclusive.
// Rates are measured against the current employee headcount.
func (s *StatsServiceImpl) rangeStats(ctx context.Context, startDate, endDate string, totalEmployees int64) (*stats.RangeStats, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start_date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end_date: %w", err)
	}

	days := clock.DaysBetween(start, end, s.location)
	results := make([]stats.DayStats, len(days))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(rangeWorkers)
	for i, day := range days {
		g.Go(func() error {
			dayStart, dayEnd := clock.DayWindow(day, s.location)
			present, err := s.AttendanceRepository.CountByStatusInWindow(gCtx, attendance.StatusPresent, dayStart, dayEnd)
			if err != nil {
				return fmt.Errorf("failed to count attendances for %s: %w", day.Format("2006-01-02"), err)
			}
			results[i] = stats.DayStats{
				Date:           day.Format("2006-01-02"),
				Present:        present,
				AttendanceRate: stats.AttendanceRate(present, totalEmployees),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rateSum int
	for _, d := range results {
		rateSum += d.AttendanceRate
	}
	average := 0
	if len(results) > 0 {
		average = int(math.Round(float64(rateSum) / float64(len(results))))
	}

	return &stats.RangeStats{
		StartDate:   startDate,
		EndDate:     endDate,
		Days:        results,
		AverageRate: average,
	}, nil
}
