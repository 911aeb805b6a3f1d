package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/middleware"
	"github.com/leadcrm/crm-backend-go/internal/pkg/jwt"
)

func NewRouter(
	logger *slog.Logger,
	allowedOrigins []string,
	JWTService jwt.Service,
	userSync *middleware.UserSyncMiddleware,
	attendanceHandler AttendanceHandler,
	statsHandler StatsHandler,
	activityHandler ActivityHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(userSync.SyncUser)

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/punch-in", attendanceHandler.PunchIn)
				r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/punch-out", attendanceHandler.PunchOut)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/", attendanceHandler.List)
					r.Get("/today", attendanceHandler.GetToday)
					r.Get("/by-date", attendanceHandler.GetByDate)
				})
			})

			r.Route("/stats", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionStatsView))
				r.Get("/attendance", statsHandler.GetAttendanceStats)
			})

			r.Route("/activity-logs", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionActivityViewOwn))
				r.Get("/me", activityHandler.ListMine)
				r.Get("/stream", activityHandler.Stream)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/", activityHandler.List)
				})
			})
		})
	})

	return r
}
