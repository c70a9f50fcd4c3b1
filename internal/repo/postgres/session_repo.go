package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionStateConflict surfaces the double-scan race: the session was
	// already closed (or another open session already exists) by the time this
	// statement ran. Benign from the user's point of view.
	ErrSessionStateConflict = errors.New("session state conflict")
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// SessionFilter narrows the admin listing. Zero values mean "no filter".
type SessionFilter struct {
	UserID   int64
	SiteID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string
}

const sessionColumns = `as_id, as_user_id, as_site_id, as_checkin_at, as_checkout_at, as_status, as_created_at, as_updated_at`

// OpenSessionToday returns the user's open session whose check-in falls on
// the given UTC calendar day, if any.
func (r *SessionRepo) OpenSessionToday(ctx context.Context, userID int64, day time.Time) (model.AttendanceSession, error) {
	if userID <= 0 {
		return model.AttendanceSession{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.AttendanceSession{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+sessionColumns+`
FROM attendance_sessions
WHERE as_user_id = $1
  AND DATE(as_checkin_at AT TIME ZONE 'UTC') = $2
  AND as_status = 'open'
ORDER BY as_checkin_at DESC
LIMIT 1
`, userID, day.UTC().Format("2006-01-02"))

	return scanSession(row)
}

// SessionToday returns the user's most recent session (open or closed) for
// the given UTC calendar day.
func (r *SessionRepo) SessionToday(ctx context.Context, userID int64, day time.Time) (model.AttendanceSession, error) {
	if userID <= 0 {
		return model.AttendanceSession{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.AttendanceSession{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+sessionColumns+`
FROM attendance_sessions
WHERE as_user_id = $1
  AND DATE(as_checkin_at AT TIME ZONE 'UTC') = $2
ORDER BY as_checkin_at DESC
LIMIT 1
`, userID, day.UTC().Format("2006-01-02"))

	return scanSession(row)
}

// Start opens a new session. The NOT EXISTS guard catches the sequential
// double check-in cheaply, but under READ COMMITTED two concurrent inserts
// can both pass it. The partial unique index
//
//	ux_attendance_sessions_open_day
//	ON attendance_sessions (as_user_id, (DATE(as_checkin_at AT TIME ZONE 'UTC')))
//	WHERE as_status = 'open'
//
// is the real arbiter: the losing insert raises 23505, which collapses to
// ErrSessionStateConflict just like the guard path.
func (r *SessionRepo) Start(ctx context.Context, tx pgx.Tx, userID int64, siteID string, at time.Time) (model.AttendanceSession, error) {
	if userID <= 0 || strings.TrimSpace(siteID) == "" {
		return model.AttendanceSession{}, fmt.Errorf("invalid session payload")
	}
	if tx == nil {
		return model.AttendanceSession{}, fmt.Errorf("transaction is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, `
INSERT INTO attendance_sessions (as_user_id, as_site_id, as_checkin_at, as_status, as_created_at)
SELECT $1, $2, $3, 'open', $3
WHERE NOT EXISTS (
	SELECT 1 FROM attendance_sessions
	WHERE as_user_id = $1
	  AND DATE(as_checkin_at AT TIME ZONE 'UTC') = $4
	  AND as_status = 'open'
)
RETURNING `+sessionColumns+`
`, userID, siteID, at.UTC(), at.UTC().Format("2006-01-02"))

	session, err := scanSession(row)
	if err != nil {
		return model.AttendanceSession{}, mapStartError(err)
	}

	return session, nil
}

func mapStartError(err error) error {
	if errors.Is(err, ErrSessionNotFound) || isUniqueViolation(err) {
		return ErrSessionStateConflict
	}
	return fmt.Errorf("start session: %w", err)
}

// Close sets checkout time and status. Conditional on the row still being
// open so a racing double-close loses cleanly.
func (r *SessionRepo) Close(ctx context.Context, tx pgx.Tx, sessionID int64, at time.Time) (model.AttendanceSession, error) {
	if sessionID <= 0 {
		return model.AttendanceSession{}, fmt.Errorf("invalid session id")
	}
	if tx == nil {
		return model.AttendanceSession{}, fmt.Errorf("transaction is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, `
UPDATE attendance_sessions
SET as_checkout_at = $2, as_status = 'closed', as_updated_at = $2
WHERE as_id = $1 AND as_status = 'open'
RETURNING `+sessionColumns+`
`, sessionID, at.UTC())

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return model.AttendanceSession{}, ErrSessionStateConflict
		}
		return model.AttendanceSession{}, fmt.Errorf("close session: %w", err)
	}

	return session, nil
}

func (r *SessionRepo) ListWithFilters(ctx context.Context, filter SessionFilter, limit, offset int, sortAsc bool) ([]model.AttendanceSession, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where, args := buildSessionFilter(filter)
	order := "DESC"
	if sortAsc {
		order = "ASC"
	}

	query := `
SELECT ` + sessionColumns + `
FROM attendance_sessions
` + where + `
ORDER BY as_checkin_at ` + order + `
LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.AttendanceSession, 0, limit)
	for rows.Next() {
		var s model.AttendanceSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.SiteID, &s.CheckinAt, &s.CheckoutAt, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepo) CountWithFilters(ctx context.Context, filter SessionFilter) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	where, args := buildSessionFilter(filter)

	var total int64
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM attendance_sessions
`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}

	return total, nil
}

// AutoCheckout closes every open session whose check-in is older than the
// cutoff. Used by the maintenance job for forgotten checkouts.
func (r *SessionRepo) AutoCheckout(ctx context.Context, cutoff, at time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE attendance_sessions
SET as_checkout_at = $2, as_status = 'closed', as_updated_at = $2
WHERE as_status = 'open' AND as_checkin_at < $1
`, cutoff.UTC(), at.UTC())
	if err != nil {
		return 0, fmt.Errorf("auto checkout stale sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

func buildSessionFilter(filter SessionFilter) (string, []any) {
	conditions := make([]string, 0, 5)
	args := make([]any, 0, 5)

	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("as_user_id = $%d", len(args)))
	}
	if strings.TrimSpace(filter.SiteID) != "" {
		args = append(args, filter.SiteID)
		conditions = append(conditions, fmt.Sprintf("as_site_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, filter.DateFrom.UTC().Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("DATE(as_checkin_at AT TIME ZONE 'UTC') >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, filter.DateTo.UTC().Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("DATE(as_checkin_at AT TIME ZONE 'UTC') <= $%d", len(args)))
	}
	if strings.TrimSpace(filter.Status) != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("as_status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanSession(row pgx.Row) (model.AttendanceSession, error) {
	var s model.AttendanceSession
	err := row.Scan(&s.ID, &s.UserID, &s.SiteID, &s.CheckinAt, &s.CheckoutAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AttendanceSession{}, ErrSessionNotFound
		}
		return model.AttendanceSession{}, err
	}
	return s, nil
}
