package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapStartErrorCollapsesRacesToStateConflict(t *testing.T) {
	// Guard path: the NOT EXISTS subquery suppressed the insert, so the
	// RETURNING clause produced no row.
	if err := mapStartError(ErrSessionNotFound); !errors.Is(err, ErrSessionStateConflict) {
		t.Fatalf("expected ErrSessionStateConflict for guarded insert, got %v", err)
	}

	// Index path: a concurrent check-in won the partial unique index on
	// (user, day, open) and this insert lost with a unique violation.
	unique := fmt.Errorf("exec insert: %w", &pgconn.PgError{Code: "23505"})
	if err := mapStartError(unique); !errors.Is(err, ErrSessionStateConflict) {
		t.Fatalf("expected ErrSessionStateConflict for unique violation, got %v", err)
	}

	other := fmt.Errorf("connection reset")
	if err := mapStartError(other); errors.Is(err, ErrSessionStateConflict) {
		t.Fatalf("unrelated errors must not read as a benign conflict: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected 23505 to register as a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violations are not unique violations")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain errors are not unique violations")
	}
}
