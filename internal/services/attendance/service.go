package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
	"github.com/GratiaManullang03/hris-attandance/internal/repo/postgres"
	"github.com/GratiaManullang03/hris-attandance/internal/services/geofence"
	"github.com/GratiaManullang03/hris-attandance/internal/services/token"
)

type SiteStore interface {
	GetByID(ctx context.Context, siteID string) (model.Site, error)
	Exists(ctx context.Context, siteID string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.Site, error)
}

type SessionStore interface {
	OpenSessionToday(ctx context.Context, userID int64, day time.Time) (model.AttendanceSession, error)
	SessionToday(ctx context.Context, userID int64, day time.Time) (model.AttendanceSession, error)
	Start(ctx context.Context, tx pgx.Tx, userID int64, siteID string, at time.Time) (model.AttendanceSession, error)
	Close(ctx context.Context, tx pgx.Tx, sessionID int64, at time.Time) (model.AttendanceSession, error)
	ListWithFilters(ctx context.Context, filter postgres.SessionFilter, limit, offset int, sortAsc bool) ([]model.AttendanceSession, error)
	CountWithFilters(ctx context.Context, filter postgres.SessionFilter) (int64, error)
}

type EventStore interface {
	Create(ctx context.Context, tx pgx.Tx, event model.AttendanceEvent) (model.AttendanceEvent, error)
	ListByUserAndDay(ctx context.Context, userID int64, day time.Time, limit, offset int) ([]model.AttendanceEvent, error)
}

type ReplayStore interface {
	Consume(ctx context.Context, userID int64, jti string, at time.Time) (bool, error)
}

type TokenCodec interface {
	Issue(siteID string) (token.RollingToken, string, error)
	Verify(raw string) (token.RollingToken, error)
	ExpiresIn() time.Duration
}

type RateLimiter interface {
	AllowScan(ctx context.Context, userID int64) (int64, bool, error)
}

// TxFunc runs fn inside one database transaction.
type TxFunc func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error

type Dependencies struct {
	Sites    SiteStore
	Sessions SessionStore
	Events   EventStore
	Replays  ReplayStore
	Tokens   TokenCodec
	Limiter  RateLimiter
	RunInTx  TxFunc
	Logger   *zap.Logger
}

type Config struct {
	GeofenceEnforced bool
	DefaultRadiusM   float64
}

// Service runs the scan pipeline: rate limit, token verification, geofence,
// replay consume, then the session transition and its audit event in one
// transaction. The geofence check runs before the replay consume so a scan
// rejected on location does not burn the displayed token for that user.
type Service struct {
	cfg      Config
	sites    SiteStore
	sessions SessionStore
	events   EventStore
	replays  ReplayStore
	tokens   TokenCodec
	limiter  RateLimiter
	runInTx  TxFunc
	log      *zap.Logger
	now      func() time.Time
}

func NewService(deps Dependencies, cfg Config) (*Service, error) {
	if deps.Sites == nil || deps.Sessions == nil || deps.Events == nil || deps.Replays == nil {
		return nil, fmt.Errorf("attendance service requires site, session, event and replay stores")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("attendance service requires a token codec")
	}
	if deps.RunInTx == nil {
		return nil, fmt.Errorf("attendance service requires a transaction runner")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		cfg:      cfg,
		sites:    deps.Sites,
		sessions: deps.Sessions,
		events:   deps.Events,
		replays:  deps.Replays,
		tokens:   deps.Tokens,
		limiter:  deps.Limiter,
		runInTx:  deps.RunInTx,
		log:      deps.Logger,
		now:      time.Now,
	}, nil
}

type ScanInput struct {
	UserID   int64
	Token    string
	Lat      *float64
	Lon      *float64
	DeviceID *string
}

type ScanResult struct {
	Session model.AttendanceSession
	Event   model.AttendanceEvent
	Message string
}

// DisplayToken is what a kiosk renders as the QR payload.
type DisplayToken struct {
	Token     string
	SiteID    string
	Slot      int64
	Mode      string
	ExpiresIn time.Duration
}

// GenerateDisplayToken signs a fresh rolling token for an existing site. The
// kiosk path only needs existence, not the fence payload.
func (s *Service) GenerateDisplayToken(ctx context.Context, siteID string) (DisplayToken, error) {
	exists, err := s.sites.Exists(ctx, siteID)
	if err != nil {
		return DisplayToken{}, fmt.Errorf("check site: %w", err)
	}
	if !exists {
		return DisplayToken{}, ErrSiteNotFound
	}

	rt, signed, err := s.tokens.Issue(siteID)
	if err != nil {
		return DisplayToken{}, fmt.Errorf("issue rolling token: %w", err)
	}

	return DisplayToken{
		Token:     signed,
		SiteID:    rt.SiteID,
		Slot:      rt.Slot,
		Mode:      rt.Mode,
		ExpiresIn: s.tokens.ExpiresIn(),
	}, nil
}

// ProcessScan handles one QR scan submission end to end.
func (s *Service) ProcessScan(ctx context.Context, input ScanInput) (ScanResult, error) {
	if input.UserID <= 0 {
		return ScanResult{}, fmt.Errorf("invalid user id")
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowScan(ctx, input.UserID)
		if err != nil {
			return ScanResult{}, fmt.Errorf("scan rate limit: %w", err)
		}
		if !allowed {
			return ScanResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	rt, err := s.tokens.Verify(input.Token)
	if err != nil {
		return ScanResult{}, err
	}

	site, err := s.sites.GetByID(ctx, rt.SiteID)
	if err != nil {
		if errors.Is(err, postgres.ErrSiteNotFound) {
			return ScanResult{}, ErrSiteNotFound
		}
		return ScanResult{}, fmt.Errorf("load site %s: %w", rt.SiteID, err)
	}

	if err := s.checkGeofence(site, input); err != nil {
		return ScanResult{}, err
	}

	now := s.now().UTC()

	first, err := s.replays.Consume(ctx, input.UserID, rt.JTI, now)
	if err != nil {
		return ScanResult{}, fmt.Errorf("consume token: %w", err)
	}
	if !first {
		s.log.Warn("replayed rolling token rejected",
			zap.Int64("user_id", input.UserID),
			zap.String("site_id", rt.SiteID),
		)
		return ScanResult{}, ErrReplayDetected
	}

	open, err := s.sessions.OpenSessionToday(ctx, input.UserID, now)
	checkingIn := false
	switch {
	case err == nil:
		// fall through to check-out
	case errors.Is(err, postgres.ErrSessionNotFound):
		checkingIn = true
	default:
		return ScanResult{}, fmt.Errorf("find open session: %w", err)
	}

	var (
		session model.AttendanceSession
		event   model.AttendanceEvent
	)
	err = s.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var txErr error
		if checkingIn {
			session, txErr = s.sessions.Start(ctx, tx, input.UserID, rt.SiteID, now)
		} else {
			session, txErr = s.sessions.Close(ctx, tx, open.ID, now)
		}
		if txErr != nil {
			return txErr
		}

		eventType := model.EventTypeCheckout
		if checkingIn {
			eventType = model.EventTypeCheckin
		}
		event, txErr = s.events.Create(ctx, tx, model.AttendanceEvent{
			SessionID:  session.ID,
			UserID:     input.UserID,
			SiteID:     rt.SiteID,
			EventType:  eventType,
			OccurredAt: now,
			TokenJTI:   rt.JTI,
			Lat:        input.Lat,
			Lon:        input.Lon,
			DeviceID:   input.DeviceID,
		})
		return txErr
	})
	if err != nil {
		if errors.Is(err, postgres.ErrSessionStateConflict) {
			return ScanResult{}, ErrSessionConflict
		}
		return ScanResult{}, fmt.Errorf("record attendance: %w", err)
	}

	message := "Pulang ✔ " + now.Format("15:04")
	if checkingIn {
		message = "Hadir ✔ " + now.Format("15:04")
	}

	s.log.Info("attendance recorded",
		zap.Int64("user_id", input.UserID),
		zap.String("site_id", rt.SiteID),
		zap.String("event_type", event.EventType),
		zap.Int64("session_id", session.ID),
	)

	return ScanResult{Session: session, Event: event, Message: message}, nil
}

func (s *Service) checkGeofence(site model.Site, input ScanInput) error {
	if !s.cfg.GeofenceEnforced {
		return nil
	}
	if input.Lat == nil || input.Lon == nil {
		return ErrLocationRequired
	}
	if site.Geofence == nil {
		return ErrGeofenceMisconfigured
	}

	fence := *site.Geofence
	if fence.RadiusM <= 0 {
		fence.RadiusM = s.cfg.DefaultRadiusM
	}

	result, err := geofence.Evaluate(fence, *input.Lat, *input.Lon)
	if err != nil {
		if errors.Is(err, geofence.ErrUnsupportedShape) || errors.Is(err, geofence.ErrValidation) {
			return fmt.Errorf("%w: %v", ErrGeofenceMisconfigured, err)
		}
		return err
	}
	if !result.Within {
		return &OutOfGeofenceError{DistanceM: result.DistanceM, RadiusM: result.RadiusM}
	}

	return nil
}

// SessionToday returns the user's most recent session for the current UTC day.
func (s *Service) SessionToday(ctx context.Context, userID int64) (model.AttendanceSession, error) {
	session, err := s.sessions.SessionToday(ctx, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, postgres.ErrSessionNotFound) {
			return model.AttendanceSession{}, ErrSessionNotFound
		}
		return model.AttendanceSession{}, fmt.Errorf("load session today: %w", err)
	}
	return session, nil
}

// UserEvents returns the user's audit trail for one UTC day, newest first.
// A zero day means today.
func (s *Service) UserEvents(ctx context.Context, userID int64, day time.Time, limit, offset int) ([]model.AttendanceEvent, error) {
	if day.IsZero() {
		day = s.now().UTC()
	}

	events, err := s.events.ListByUserAndDay(ctx, userID, day, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return events, nil
}

type SessionPage struct {
	Sessions []model.AttendanceSession
	Total    int64
}

// AdminSessions lists sessions across users for back-office review.
func (s *Service) AdminSessions(ctx context.Context, filter postgres.SessionFilter, limit, offset int, sortAsc bool) (SessionPage, error) {
	sessions, err := s.sessions.ListWithFilters(ctx, filter, limit, offset, sortAsc)
	if err != nil {
		return SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}

	total, err := s.sessions.CountWithFilters(ctx, filter)
	if err != nil {
		return SessionPage{}, fmt.Errorf("count sessions: %w", err)
	}

	return SessionPage{Sessions: sessions, Total: total}, nil
}

// Sites lists scan locations for client site pickers.
func (s *Service) Sites(ctx context.Context, limit, offset int) ([]model.Site, error) {
	sites, err := s.sites.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// Site returns one site by id.
func (s *Service) Site(ctx context.Context, siteID string) (model.Site, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, postgres.ErrSiteNotFound) {
			return model.Site{}, ErrSiteNotFound
		}
		return model.Site{}, fmt.Errorf("load site: %w", err)
	}
	return site, nil
}
