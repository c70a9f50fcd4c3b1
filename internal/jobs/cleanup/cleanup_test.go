package cleanup

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakePurger struct {
	cutoff time.Time
	purged int64
}

func (f *fakePurger) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.purged, nil
}

type fakeCloser struct {
	cutoff time.Time
	at     time.Time
	closed int64
}

func (f *fakeCloser) AutoCheckout(_ context.Context, cutoff, at time.Time) (int64, error) {
	f.cutoff = cutoff
	f.at = at
	return f.closed, nil
}

func TestRunOncePurgesAndAutoCloses(t *testing.T) {
	purger := &fakePurger{purged: 12}
	closer := &fakeCloser{closed: 3}

	job := New(purger, 7*24*time.Hour, zap.NewNop())
	job.AttachAutoCheckout(closer, 16*time.Hour)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	stats, err := job.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}

	if stats.PurgedTokens != 12 || stats.AutoClosed != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !purger.cutoff.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("unexpected purge cutoff %s", purger.cutoff)
	}
	if !closer.cutoff.Equal(now.Add(-16 * time.Hour)) {
		t.Fatalf("unexpected auto checkout cutoff %s", closer.cutoff)
	}
	if !closer.at.Equal(now) {
		t.Fatalf("unexpected auto checkout timestamp %s", closer.at)
	}
}

func TestRunOnceWithRetentionOverride(t *testing.T) {
	purger := &fakePurger{purged: 2}

	job := New(purger, 7*24*time.Hour, zap.NewNop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if _, err := job.RunOnceWithRetention(context.Background(), 48*time.Hour); err != nil {
		t.Fatalf("run once with retention: %v", err)
	}
	if !purger.cutoff.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("unexpected purge cutoff %s", purger.cutoff)
	}

	// Zero falls back to the configured retention.
	if _, err := job.RunOnceWithRetention(context.Background(), 0); err != nil {
		t.Fatalf("run once with zero retention: %v", err)
	}
	if !purger.cutoff.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("unexpected fallback cutoff %s", purger.cutoff)
	}
}

func TestRunOnceWithoutAutoCheckout(t *testing.T) {
	purger := &fakePurger{purged: 5}

	job := New(purger, 24*time.Hour, zap.NewNop())

	stats, err := job.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if stats.PurgedTokens != 5 || stats.AutoClosed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
