package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GratiaManullang03/hris-attandance/internal/config"
	"github.com/GratiaManullang03/hris-attandance/internal/jobs/cleanup"
	pgrepo "github.com/GratiaManullang03/hris-attandance/internal/repo/postgres"
	redrepo "github.com/GratiaManullang03/hris-attandance/internal/repo/redis"
	attsvc "github.com/GratiaManullang03/hris-attandance/internal/services/attendance"
	authsvc "github.com/GratiaManullang03/hris-attandance/internal/services/auth"
	ratesvc "github.com/GratiaManullang03/hris-attandance/internal/services/rate"
	tokensvc "github.com/GratiaManullang03/hris-attandance/internal/services/token"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	cleanupJob *cleanup.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)

	siteRepo := pgrepo.NewSiteRepo(pool)
	sessionRepo := pgrepo.NewSessionRepo(pool)
	eventRepo := pgrepo.NewEventRepo(pool)
	replayRepo := pgrepo.NewReplayRepo(pool)

	tokenManager, err := tokensvc.NewManager(cfg.QR.Secret, cfg.QR.Algorithm, cfg.QR.Rotation, cfg.QR.Grace)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("rolling token manager: %w", err)
	}

	authTokens := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Scan.RatePerMinute)

	attendanceService, err := attsvc.NewService(attsvc.Dependencies{
		Sites:    siteRepo,
		Sessions: sessionRepo,
		Events:   eventRepo,
		Replays:  replayRepo,
		Tokens:   tokenManager,
		Limiter:  rateLimiter,
		RunInTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		Logger: log,
	}, attsvc.Config{
		GeofenceEnforced: cfg.Geofence.Enforced,
		DefaultRadiusM:   cfg.Geofence.DefaultRadiusM,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("attendance service: %w", err)
	}

	cleanupJob := cleanup.New(replayRepo, cfg.Maintenance.ReplayRetention, log)
	cleanupJob.AttachAutoCheckout(sessionRepo, cfg.Maintenance.AutoCheckoutAfter)

	RegisterRoutes(r, Dependencies{
		AttendanceService: attendanceService,
		AuthTokens:        authTokens,
		CleanupJob:        cleanupJob,
		Logger:            log,
		Config:            cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		cleanupJob: cleanupJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunCleanupLoop blocks until the context is cancelled, running the
// maintenance pass on the configured interval.
func (a *App) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.cleanupJob.Run(ctx); err != nil {
				a.logger.Error("cleanup pass failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
