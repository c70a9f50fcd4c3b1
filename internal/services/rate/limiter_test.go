package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/GratiaManullang03/hris-attandance/internal/repo/redis"
)

func TestLimiterBlocksOverMinuteWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 3)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.AllowScan(ctx, userID)
		if err != nil {
			t.Fatalf("allow scan #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on scan #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowScan(ctx, userID)
	if err != nil {
		t.Fatalf("allow scan #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on fourth scan in a minute")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	mr.FastForward(61 * time.Second)

	retryAfter, allowed, err = limiter.AllowScan(ctx, userID)
	if err != nil {
		t.Fatalf("allow scan after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterIsolatesUsers(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 1)

	ctx := context.Background()

	if _, allowed, err := limiter.AllowScan(ctx, 1); err != nil || !allowed {
		t.Fatalf("first user first scan should pass: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.AllowScan(ctx, 1); err != nil || allowed {
		t.Fatalf("first user second scan should block: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.AllowScan(ctx, 2); err != nil || !allowed {
		t.Fatalf("second user should not share the window: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterDisabledWhenZero(t *testing.T) {
	limiter := NewLimiter(nil, 0)

	for i := 0; i < 10; i++ {
		retryAfter, allowed, err := limiter.AllowScan(context.Background(), 7)
		if err != nil {
			t.Fatalf("allow scan with disabled limiter: %v", err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("disabled limiter must always allow: allowed=%v retry_after=%d", allowed, retryAfter)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}
