package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUndefinedObject(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, true},
		{"undefined column", &pgconn.PgError{Code: "42703"}, true},
		{"undefined function", &pgconn.PgError{Code: "42883"}, true},
		{"invalid schema", &pgconn.PgError{Code: "3F000"}, true},
		{"wrapped undefined table", fmt.Errorf("profiles: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUndefinedObject(tc.err); got != tc.want {
				t.Errorf("IsUndefinedObject = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 is not a unique violation")
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 should be a foreign key violation")
	}
}
