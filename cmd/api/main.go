package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/config"
	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	appHTTP "github.com/leadcrm/crm-backend-go/internal/handler/http"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/middleware"
	"github.com/leadcrm/crm-backend-go/internal/pkg/clock"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/leadcrm/crm-backend-go/internal/pkg/jwt"
	"github.com/leadcrm/crm-backend-go/internal/pkg/logger"
	"github.com/leadcrm/crm-backend-go/internal/pkg/sse"
	"github.com/leadcrm/crm-backend-go/internal/repository/postgresql"
	"github.com/leadcrm/crm-backend-go/internal/repository/sqlite"
	activityService "github.com/leadcrm/crm-backend-go/internal/service/activity"
	attendanceService "github.com/leadcrm/crm-backend-go/internal/service/attendance"
	statsService "github.com/leadcrm/crm-backend-go/internal/service/stats"
)

type repositories struct {
	users      user.UserRepository
	attendance attendance.AttendanceRepository
	activity   activity.ActivityRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Options{
		App:     cfg.App.Name,
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Error("failed to open database", slog.String("driver", cfg.Database.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer repos.close()

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	systemClock := clock.System()

	activitySvc := activityService.NewActivityService(repos.activity, hub, log)
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, activitySvc, systemClock, cfg.Attendance.Location, log)
	statsSvc := statsService.NewStatsService(repos.attendance, repos.users, systemClock, cfg.Attendance.Location)

	router := appHTTP.NewRouter(
		log,
		cfg.App.AllowedOrigins,
		JWTService,
		middleware.NewUserSyncMiddleware(repos.users, log),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewStatsHandler(statsSvc),
		appHTTP.NewActivityHandler(activitySvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Event streams never go idle; end them so Shutdown can drain.
	server.RegisterOnShutdown(hub.Close)

	go func() {
		log.Info("server started",
			slog.String("addr", server.Addr),
			slog.String("db_driver", cfg.Database.Driver),
			slog.String("timezone", cfg.Attendance.Timezone),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	log.Info("server exited")
}

// openRepositories connects to the configured store, applies migrations and
// builds the repositories backed by it.
func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &repositories{
			users:      sqlite.NewUserRepository(db),
			attendance: sqlite.NewAttendanceRepository(db),
			activity:   sqlite.NewActivityRepository(db),
			close:      func() { db.Close() },
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &repositories{
			users:      postgresql.NewUserRepository(db),
			attendance: postgresql.NewAttendanceRepository(db),
			activity:   postgresql.NewActivityRepository(db),
			close:      db.Close,
		}, nil
	}
}
