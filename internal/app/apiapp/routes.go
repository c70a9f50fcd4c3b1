package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GratiaManullang03/hris-attandance/internal/config"
	"github.com/GratiaManullang03/hris-attandance/internal/jobs/cleanup"
	attsvc "github.com/GratiaManullang03/hris-attandance/internal/services/attendance"
	authsvc "github.com/GratiaManullang03/hris-attandance/internal/services/auth"
	"github.com/GratiaManullang03/hris-attandance/internal/transport/http/handlers"
)

type Dependencies struct {
	AttendanceService *attsvc.Service
	AuthTokens        *authsvc.JWTManager
	CleanupJob        *cleanup.Job
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	displayHandler := handlers.NewDisplayHandler(deps.AttendanceService)
	attendanceHandler := handlers.NewAttendanceHandler(deps.AttendanceService)
	sitesHandler := handlers.NewSitesHandler(deps.AttendanceService)
	adminHandler := handlers.NewAdminHandler(deps.AttendanceService)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.CleanupJob)

	authMW := AuthMiddleware(deps.AuthTokens, deps.Logger)
	adminRoleMW := RequireRole("ADMIN", "HR")
	displayMW := DisplayKeyMiddleware(deps.Config.QR.DisplayKey, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/attendance", func(r chi.Router) {
			r.With(displayMW).Get("/sites/{siteID}/rolling-token", displayHandler.RollingToken)
			r.With(authMW).Post("/scan", attendanceHandler.Scan)
			r.With(authMW).Get("/sessions/me/today", attendanceHandler.SessionToday)
			r.With(authMW).Get("/events/me", attendanceHandler.MyEvents)
			r.With(authMW, adminRoleMW).Get("/sessions", adminHandler.Sessions)
		})

		r.With(authMW).Get("/sites", sitesHandler.List)
		r.With(authMW).Get("/sites/{siteID}", sitesHandler.Get)

		r.With(authMW, adminRoleMW).Post("/maintenance/cleanup-tokens", maintenanceHandler.CleanupTokens)
	})
}
