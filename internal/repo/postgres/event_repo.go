package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `ae_id, ae_session_id, ae_user_id, ae_site_id, ae_event_type, ae_occurred_at, ae_token_jti, ae_lat, ae_lon, ae_device_id, ae_created_at`

// Create appends one audit event inside the caller's transaction so the
// session transition and its event commit together.
func (r *EventRepo) Create(ctx context.Context, tx pgx.Tx, event model.AttendanceEvent) (model.AttendanceEvent, error) {
	if event.SessionID <= 0 || event.UserID <= 0 || strings.TrimSpace(event.SiteID) == "" {
		return model.AttendanceEvent{}, fmt.Errorf("invalid event payload")
	}
	if event.EventType != model.EventTypeCheckin && event.EventType != model.EventTypeCheckout {
		return model.AttendanceEvent{}, fmt.Errorf("invalid event type %q", event.EventType)
	}
	if tx == nil {
		return model.AttendanceEvent{}, fmt.Errorf("transaction is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	var created model.AttendanceEvent
	err := tx.QueryRow(ctx, `
INSERT INTO attendance_events (
	ae_session_id,
	ae_user_id,
	ae_site_id,
	ae_event_type,
	ae_occurred_at,
	ae_token_jti,
	ae_lat,
	ae_lon,
	ae_device_id,
	ae_created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $5)
RETURNING `+eventColumns+`
`,
		event.SessionID,
		event.UserID,
		event.SiteID,
		event.EventType,
		event.OccurredAt.UTC(),
		event.TokenJTI,
		event.Lat,
		event.Lon,
		event.DeviceID,
	).Scan(
		&created.ID,
		&created.SessionID,
		&created.UserID,
		&created.SiteID,
		&created.EventType,
		&created.OccurredAt,
		&created.TokenJTI,
		&created.Lat,
		&created.Lon,
		&created.DeviceID,
		&created.CreatedAt,
	)
	if err != nil {
		return model.AttendanceEvent{}, fmt.Errorf("create attendance event: %w", err)
	}

	return created, nil
}

// ListByUserAndDay returns the user's events for one UTC calendar day, newest
// first.
func (r *EventRepo) ListByUserAndDay(ctx context.Context, userID int64, day time.Time, limit, offset int) ([]model.AttendanceEvent, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
FROM attendance_events
WHERE ae_user_id = $1
  AND DATE(ae_occurred_at AT TIME ZONE 'UTC') = $2
ORDER BY ae_occurred_at DESC
LIMIT $3 OFFSET $4
`, userID, day.UTC().Format("2006-01-02"), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	defer rows.Close()

	events := make([]model.AttendanceEvent, 0, limit)
	for rows.Next() {
		var e model.AttendanceEvent
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.UserID,
			&e.SiteID,
			&e.EventType,
			&e.OccurredAt,
			&e.TokenJTI,
			&e.Lat,
			&e.Lon,
			&e.DeviceID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}
