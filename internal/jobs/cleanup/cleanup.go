package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type ReplayPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionCloser interface {
	AutoCheckout(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// Job removes consumed-token records past their retention window and closes
// sessions whose owner never checked out.
type Job struct {
	replays    ReplayPurger
	sessions   SessionCloser
	retention  time.Duration
	staleAfter time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

type Stats struct {
	PurgedTokens int64
	AutoClosed   int64
}

func New(replays ReplayPurger, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		replays:   replays,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// AttachAutoCheckout enables closing of forgotten open sessions.
func (j *Job) AttachAutoCheckout(sessions SessionCloser, staleAfter time.Duration) {
	j.sessions = sessions
	if staleAfter > 0 {
		j.staleAfter = staleAfter
	}
}

// RunOnce executes one maintenance pass with the configured retention.
func (j *Job) RunOnce(ctx context.Context) (Stats, error) {
	return j.RunOnceWithRetention(ctx, j.retention)
}

// RunOnceWithRetention runs one pass with a caller-chosen replay retention.
// The auto-checkout cutoff is not affected.
func (j *Job) RunOnceWithRetention(ctx context.Context, retention time.Duration) (Stats, error) {
	if retention <= 0 {
		retention = j.retention
	}

	var stats Stats
	now := j.now().UTC()

	if j.replays != nil {
		purged, err := j.replays.PurgeOlderThan(ctx, now.Add(-retention))
		if err != nil {
			return stats, fmt.Errorf("purge consumed tokens: %w", err)
		}
		stats.PurgedTokens = purged
	}

	if j.sessions != nil && j.staleAfter > 0 {
		closed, err := j.sessions.AutoCheckout(ctx, now.Add(-j.staleAfter), now)
		if err != nil {
			return stats, fmt.Errorf("auto checkout stale sessions: %w", err)
		}
		stats.AutoClosed = closed
	}

	return stats, nil
}

func (j *Job) Run(ctx context.Context) error {
	stats, err := j.RunOnce(ctx)
	if err != nil {
		return err
	}

	if stats.PurgedTokens > 0 || stats.AutoClosed > 0 {
		j.logger.Info("attendance cleanup completed",
			zap.Int64("purged_tokens", stats.PurgedTokens),
			zap.Int64("auto_closed_sessions", stats.AutoClosed),
		)
	}
	return nil
}
