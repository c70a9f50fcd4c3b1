package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ReplayRepo records spent rolling-token ids. The table carries a composite
// primary key (uj_user_id, uj_jti), so concurrent consume attempts for the
// same pair are linearized by the database: exactly one insert wins.
type ReplayRepo struct {
	pool *pgxpool.Pool
}

func NewReplayRepo(pool *pgxpool.Pool) *ReplayRepo {
	return &ReplayRepo{pool: pool}
}

// Consume marks the (user, jti) pair spent. Returns true on first use, false
// when the pair already exists. Never check-then-insert: the uniqueness
// constraint is the only arbiter.
func (r *ReplayRepo) Consume(ctx context.Context, userID int64, jti string, at time.Time) (bool, error) {
	if userID <= 0 || strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("invalid consumed token payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO used_jti (uj_user_id, uj_jti, uj_used_at)
VALUES ($1, $2, $3)
`, userID, jti, at.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark jti as used: %w", err)
	}

	return true, nil
}

// PurgeOlderThan deletes consumed-token records older than the cutoff and
// returns how many went away. Called by the maintenance job only.
func (r *ReplayRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM used_jti
WHERE uj_used_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge used jti records: %w", err)
	}

	return result.RowsAffected(), nil
}
